// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - run.requested — создан run, агенту пора его выполнить
//   - run.started   — агент начал выполнение run
//   - run.finished  — run завершён (SUCCEEDED или FAILED)
//   - job.finished  — job завершён (PASSED, FAILED или SKIPPED)
//
// Exchanges:
//   - conveyor.runs   — заявки на выполнение (direct)
//   - conveyor.events — события жизненного цикла (topic, подписка по маске)
//   - conveyor.dlq    — dead letter queue
package mq
