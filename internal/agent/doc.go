// Package agent выполняет runs целиком: от захвата до итогового статуса.
//
// # Обзор
//
// Agent — компонент системы Conveyor, который выполняет runs, созданные
// API, CLI или scheduler'ом. Agent отвечает за:
//
//   - Получение заявок run.requested из очереди RabbitMQ (event-driven)
//   - Периодическую проверку PENDING runs в БД (polling fallback)
//   - Компиляцию pipeline: развёртка матрицы, фильтр исключений, сборка шагов
//   - Выполнение jobs через пул воркеров контроллера
//   - Публикацию событий run.started / job.finished / run.finished
//
// Агенты масштабируются горизонтально — несколько экземпляров потребляют
// из одной очереди runs.requested. Каждый run целиком выполняется одним
// агентом: захват — атомарный CAS-переход PENDING → RUNNING в БД, поэтому
// даже при повторной доставке заявки run не выполнится дважды.
//
// # Ключевые компоненты
//
// ## Agent
//
// Основная структура, управляющая жизненным циклом.
// Создаётся через New(cfg Config) и запускается методом Start(ctx).
//
//	a := agent.New(agent.Config{
//	    RunRepo:      runRepo,
//	    JobRepo:      jobRepo,
//	    PipelineRepo: pipelineRepo,
//	    Publisher:    publisher,
//	    Conn:         mqConn,
//	    Registry:     registry,
//	    Logger:       logger,
//	})
//
//	if err := a.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer a.Stop()
//
// ## Реестр шагов
//
// Шаги собираются через steps.Registry. По умолчанию используется
// steps.DefaultRegistry(); обычно агент передаёт реестр с фабриками
// кэша, у которых Store настроен на cache_dir из конфигурации.
//
// # Обработка run
//
//  1. Получение заявки (из очереди или polling)
//  2. Загрузка run из БД, проверка статуса PENDING
//  3. Захват: CAS-переход PENDING → RUNNING (проигравший агент отступает)
//  4. Загрузка pipeline по имени, парсинг YAML, компиляция в план
//  5. Материализация jobs — по одному на точку матрицы — батчем в БД
//  6. Выполнение плана контроллером; хуки фиксируют переходы jobs в БД
//  7. Итог: SUCCEEDED, если ни один job не FAILED; иначе FAILED
//
// Ошибка конфигурации (pipeline не найден, деактивирован, не парсится
// или не компилируется) — терминальный провал run: повторная доставка
// заявки её не вылечит, поэтому run помечается FAILED, а сообщение
// подтверждается.
//
// # Параллелизм
//
// Пул воркеров живёт внутри run: до max_parallel jobs выполняются
// одновременно, fail_fast останавливает диспетчеризацию после первого
// провала. Сам агент выполняет runs строго по одному — jobs делят
// рабочую директорию процесса, параллельные runs затоптали бы
// checkouts друг друга.
//
// # Ошибки
//
// Пакет различает два уровня ошибок обработки заявки:
//   - Инфраструктурные (БД недоступна) — сообщение возвращается в очередь
//   - Ожидаемые (run не найден, run уже захвачен) — сообщение подтверждается
//
// Провал jobs — не ошибка обработки: run с проваленными jobs — это
// нормально завершённый run со статусом FAILED.
package agent
