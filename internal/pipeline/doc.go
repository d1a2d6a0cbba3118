// Package pipeline разбирает и компилирует YAML-определения пайплайнов.
//
// Parse — YAML в domain.PipelineSpec со структурной валидацией.
// Compile — PipelineSpec в Plan: реестр измерений, фильтр исключений,
// развёрнутый набор jobs и собранные шаги.
//
// Вся валидация конфигурации заканчивается на Compile: выполнение
// плана контроллером не возвращает ошибок конфигурации.
package pipeline
