// Package cli реализует инструмент командной строки Conveyor.
//
// # Обзор
//
// CLI совмещает две роли. Локальные команды (run, plan, validate,
// hygiene) работают с файлом pipeline напрямую: разворачивают матрицу
// и выполняют jobs на текущей машине, без сервера. Удалённые команды
// (pipeline, runs, schedule) управляют сервером Conveyor через HTTP
// и не импортируют внутренние пакеты системы.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Conveyor API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	pipelines, err := client.ListPipelines()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) и строки
// прогресса — в stderr. Это позволяет использовать pipe:
// conveyor runs list --json | jq .
//
// ## Commands
//
// Локальное выполнение:
//   - run FILE — развернуть матрицу и выполнить jobs; ненулевой код
//     выхода, если хотя бы один job провалился
//   - plan FILE — показать развёртку матрицы без выполнения
//   - validate FILE — разобрать и скомпилировать файл pipeline
//   - hygiene FILE — проверки гигиены репозитория: отдельный
//     одно-job'овый pipeline со своим кодом выхода
//
// Удалённые группы организованы по ресурсам:
//   - pipeline: list, apply, show, activate, deactivate, delete
//   - runs: list, trigger, show, jobs
//   - schedule: list, create, show, update, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewPipelineCmd
// и т.д.), принимающую clientFn и outputFn — замыкания для ленивого
// создания Client и Output после парсинга PersistentFlags.
package cli
