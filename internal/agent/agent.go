package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/conveyor-ci/conveyor/internal/mq"
	"github.com/conveyor-ci/conveyor/internal/repo"
	"github.com/conveyor-ci/conveyor/internal/steps"
)

// Default configuration values.
const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 10

	// Один run занимает агента целиком, поэтому prefetch больше 1
	// только копил бы заявки, которые мог забрать свободный агент.
	defaultPrefetch = 1
)

// Agent выполняет runs.
//
// Agent — компонент системы, который:
//   - Получает заявки run.requested из очереди RabbitMQ (event-driven)
//   - Периодически проверяет PENDING runs в БД (polling fallback)
//   - Компилирует pipeline в план и выполняет jobs через контроллер
//   - Публикует события run.started / job.finished / run.finished
//
// Агенты масштабируются горизонтально: каждый run целиком выполняется
// одним агентом, захват — CAS-переход PENDING → RUNNING в БД.
type Agent struct {
	// Repositories
	runRepo      *repo.RunRepo
	jobRepo      *repo.JobRepo
	pipelineRepo *repo.PipelineRepo

	// MQ
	publisher *mq.Publisher
	conn      *mq.Connection

	// Реестр встроенных шагов
	registry *steps.Registry

	// Consumer
	consumer *mq.Consumer

	// Configuration
	pollInterval time.Duration
	batchSize    int

	// Runs выполняются по одному: jobs делят рабочую директорию
	// процесса, параллельные runs затоптали бы checkouts друг друга.
	runMu sync.Mutex

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Agent.
type Config struct {
	// Repositories
	RunRepo      *repo.RunRepo
	JobRepo      *repo.JobRepo
	PipelineRepo *repo.PipelineRepo

	// MQ. Conn == nil — агент работает в режиме polling-only:
	// заявки подхватываются только опросом БД, события не публикуются.
	Publisher *mq.Publisher
	Conn      *mq.Connection

	// Реестр шагов (опционально; если nil — steps.DefaultRegistry())
	Registry *steps.Registry

	// Polling configuration
	PollInterval time.Duration // интервал опроса БД (default: 5s)
	BatchSize    int           // количество runs за один poll (default: 10)

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Agent.
func New(cfg Config) *Agent {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = steps.DefaultRegistry()
	}

	return &Agent{
		runRepo:      cfg.RunRepo,
		jobRepo:      cfg.JobRepo,
		pipelineRepo: cfg.PipelineRepo,
		publisher:    cfg.Publisher,
		conn:         cfg.Conn,
		registry:     registry,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Start запускает Agent.
//
// Запускает:
//   - Consumer для runs.requested (если есть соединение с MQ)
//   - Polling горутину для fallback
func (a *Agent) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel

	a.logger.Info("starting agent",
		"poll_interval", a.pollInterval,
		"batch_size", a.batchSize,
		"steps", a.registry.Uses(),
	)

	if a.conn != nil {
		a.consumer = mq.NewConsumer(a.conn, a.logger, mq.ConsumerConfig{
			Queue:    string(mq.QueueRunsRequested),
			Handler:  a.handleRunRequested,
			Prefetch: defaultPrefetch,
		})

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("run consumer error", "error", err)
			}
		}()
	} else {
		a.logger.Warn("message queue unavailable, running in polling-only mode")
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.pollLoop(ctx)
	}()

	a.logger.Info("agent started")
	return nil
}

// Stop останавливает Agent.
//
// Отмена контекста убивает команды выполняющихся jobs; их исходы и
// итоговый статус run фиксируются в БД до возврата из Stop.
func (a *Agent) Stop() {
	a.stoppedMu.Lock()
	a.stopped = true
	a.stoppedMu.Unlock()

	a.logger.Info("stopping agent...")

	if a.cancelFunc != nil {
		a.cancelFunc()
	}

	if a.consumer != nil {
		a.consumer.Stop()
	}

	// Ждём завершения горутин
	a.wg.Wait()

	a.logger.Info("agent stopped")
}

// IsStopped проверяет, остановлен ли Agent.
func (a *Agent) IsStopped() bool {
	a.stoppedMu.RLock()
	defer a.stoppedMu.RUnlock()
	return a.stopped
}

// pollLoop — цикл опроса БД для fallback.
func (a *Agent) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(a.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу при старте (подхватываем runs, созданные пока агент был выключен)
	a.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.poll(ctx)
		}
	}
}

// poll выполняет один цикл опроса.
func (a *Agent) poll(ctx context.Context) {
	runs, err := a.runRepo.ListPending(ctx, a.batchSize)
	if err != nil {
		a.logger.Error("failed to list pending runs", "error", err)
		return
	}

	if len(runs) == 0 {
		return
	}

	a.logger.Debug("poll found pending runs", "count", len(runs))

	for i := range runs {
		if ctx.Err() != nil {
			return
		}

		run := &runs[i]
		if err := a.processRun(ctx, run.ID); err != nil {
			// Захват проигран — run уже забрал другой агент
			if errors.Is(err, ErrRunNotPending) || errors.Is(err, ErrRunNotFound) {
				continue
			}
			a.logger.Error("failed to process run from poll",
				"run_id", run.ID,
				"error", err,
			)
		}
	}
}
