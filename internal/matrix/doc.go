// Package matrix разворачивает матрицу измерений в набор jobs.
//
// Включает:
//   - registry.go — именованные измерения и их значения
//   - rule.go     — правила исключения и фильтр
//   - expand.go   — декартово произведение минус исключения
//   - spec.go     — JobSpec: неизменяемое полное назначение измерений
//   - template.go — подстановки ${matrix.<имя>} в строках шагов
//
// Вся валидация конфигурации происходит при конструировании Registry
// и Filter. Expand никогда не возвращает ошибку: к моменту развёртки
// конфигурация уже проверена.
package matrix
