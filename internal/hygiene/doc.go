// Package hygiene — проверки гигиены репозитория.
//
// Три проверки: authors (каждый автор коммитов числится в AUTHORS),
// headers (исходные файлы несут строку copyright в первых строках),
// conflict-markers (в отслеживаемых файлах нет маркеров конфликтов).
//
// Проверки собираются в обычные шаги runner и выполняются как
// отдельный pipeline из одного job с пустой матрицей: у гигиены свой
// запуск и свой exit code, с матричной проверкой она не смешивается.
package hygiene
