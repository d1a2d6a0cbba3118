// Package controller оркестрирует выполнение полного набора jobs
// под политикой конкурентности и fail-fast.
//
// Модель: ограниченный пул воркеров размера max_parallel, каждый
// забирает следующий незанятый JobSpec из общей упорядоченной очереди.
// Очередь и флаг остановки — единственные разделяемые данные; оба
// защищены одним мьютексом (dequeue-and-check и set-on-failure —
// атомарные секции, чтобы два воркера не продиспетчеризовали job
// после сработавшего fail-fast).
//
// Fail-fast не отменяет уже запущенные jobs: он только перестаёт
// выдавать новые. Не отправленные jobs получают статус SKIPPED.
// Результаты возвращаются в порядке генерации (порядке развёртки
// матрицы), а не в порядке завершения.
package controller
