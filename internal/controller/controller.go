package controller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

// Policy — политика выполнения набора jobs.
type Policy struct {
	// FailFast останавливает диспетчеризацию новых jobs после первого
	// провала. Уже запущенные jobs довыполняются, оставшиеся в очереди
	// получают статус SKIPPED.
	FailFast bool

	// MaxParallel — размер пула воркеров. Значение меньше 1
	// трактуется как 1 (последовательное выполнение).
	MaxParallel int
}

// RunResult — итог выполнения всего набора.
type RunResult struct {
	// Jobs — результаты в порядке генерации набора, не в порядке
	// завершения. Длина всегда равна длине входного набора.
	Jobs []runner.JobResult

	// Status — SUCCEEDED, если ни один job не завершился FAILED;
	// иначе FAILED. SKIPPED на статус не влияет.
	Status domain.RunStatus

	Duration time.Duration
}

// Success сообщает, завершился ли запуск без провалов.
func (r RunResult) Success() bool {
	return r.Status == domain.RunStatusSucceeded
}

// Counts возвращает количество jobs по терминальным статусам.
func (r RunResult) Counts() (passed, failed, skipped int) {
	for _, job := range r.Jobs {
		switch job.Status {
		case domain.JobStatusPassed:
			passed++
		case domain.JobStatusFailed:
			failed++
		case domain.JobStatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// JobExecutor — выполняет один job. Реализуется runner.Runner;
// в тестах подменяется фейком с управляемым временем завершения.
type JobExecutor interface {
	Run(ctx context.Context, spec matrix.JobSpec, steps []runner.Step) runner.JobResult
}

// Config — зависимости контроллера. Нулевые поля получают значения
// по умолчанию.
type Config struct {
	// Executor выполняет отдельные jobs. По умолчанию runner.New(nil).
	Executor JobExecutor

	// Logger — структурный логгер. По умолчанию slog.Default().
	Logger *slog.Logger

	// OnJobStart вызывается перед выполнением job i.
	OnJobStart func(i int, spec matrix.JobSpec)

	// OnJobDone вызывается после фиксации результата job i. Для
	// провалившегося job при включённом fail-fast вызов происходит
	// после установки флага остановки: к моменту вызова новые jobs
	// уже не диспетчеризуются.
	OnJobDone func(i int, result runner.JobResult)
}

// Controller выполняет наборы jobs через пул воркеров.
type Controller struct {
	executor   JobExecutor
	logger     *slog.Logger
	onJobStart func(i int, spec matrix.JobSpec)
	onJobDone  func(i int, result runner.JobResult)
}

// New создаёт контроллер из конфигурации.
func New(cfg Config) *Controller {
	executor := cfg.Executor
	if executor == nil {
		executor = runner.New(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		executor:   executor,
		logger:     logger,
		onJobStart: cfg.OnJobStart,
		onJobDone:  cfg.OnJobDone,
	}
}

// RunAll выполняет все specs с общим набором шагов под политикой policy.
//
// Пул из policy.MaxParallel воркеров разбирает очередь в порядке
// генерации. Извлечение из очереди и проверка флага остановки — одна
// критическая секция; установка флага при провале — другая, под тем же
// мьютексом. Отмена ctx останавливает диспетчеризацию так же, как
// fail-fast: запущенные jobs довыполняются (их команды получают отмену
// через контекст), не отправленные помечаются SKIPPED.
func (c *Controller) RunAll(ctx context.Context, specs []matrix.JobSpec, steps []runner.Step, policy Policy) RunResult {
	startedAt := time.Now()

	maxParallel := policy.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}

	n := len(specs)
	c.logger.Info("run started",
		"jobs", n,
		"max_parallel", maxParallel,
		"fail_fast", policy.FailFast,
	)

	results := make([]runner.JobResult, n)
	state := newRunState(n)

	var (
		mu      sync.Mutex
		next    int  // индекс следующего незанятого job в очереди
		stopped bool // диспетчеризация остановлена (fail-fast или отмена)
	)

	workers := maxParallel
	if workers > n {
		workers = n
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				// Dequeue-and-check: извлечение и проверка флага —
				// атомарно, иначе воркер может забрать job после
				// сработавшего fail-fast.
				mu.Lock()
				if stopped || next >= n || ctx.Err() != nil {
					mu.Unlock()
					return
				}
				i := next
				next++
				mu.Unlock()

				c.runOne(ctx, i, specs[i], steps, policy, state, results, &mu, &stopped)
			}
		}()
	}
	wg.Wait()

	// Всё, что осталось PENDING, не было продиспетчеризовано.
	for _, i := range state.Pending() {
		c.transition(state, i, domain.JobStatusSkipped, specs[i].Label())
		results[i] = runner.JobResult{
			Spec:   specs[i],
			Status: domain.JobStatusSkipped,
		}
		c.logger.Debug("job skipped", "job", specs[i].Label())
		if c.onJobDone != nil {
			c.onJobDone(i, results[i])
		}
	}

	passed, failed, skipped := state.Counts()
	status := domain.RunStatusSucceeded
	if failed > 0 {
		status = domain.RunStatusFailed
	}

	result := RunResult{
		Jobs:     results,
		Status:   status,
		Duration: time.Since(startedAt),
	}
	c.logger.Info("run finished",
		"status", status,
		"passed", passed,
		"failed", failed,
		"skipped", skipped,
		"duration", result.Duration,
	)
	return result
}

// runOne выполняет job i и фиксирует его исход. Флаг остановки
// ставится до вызова OnJobDone, чтобы наблюдатель видел уже
// применённый fail-fast.
func (c *Controller) runOne(
	ctx context.Context,
	i int,
	spec matrix.JobSpec,
	steps []runner.Step,
	policy Policy,
	state *runState,
	results []runner.JobResult,
	mu *sync.Mutex,
	stopped *bool,
) {
	c.transition(state, i, domain.JobStatusRunning, spec.Label())
	c.logger.Debug("job dispatched", "job", spec.Label())
	if c.onJobStart != nil {
		c.onJobStart(i, spec)
	}

	res := c.executor.Run(ctx, spec, steps)
	results[i] = res
	c.transition(state, i, res.Status, spec.Label())

	if res.Status == domain.JobStatusFailed {
		c.logger.Warn("job failed",
			"job", spec.Label(),
			"failing_step", res.FailingStep,
		)
		if policy.FailFast {
			mu.Lock()
			if !*stopped {
				*stopped = true
				c.logger.Info("fail-fast engaged, dispatch stopped", "job", spec.Label())
			}
			mu.Unlock()
		}
	}

	if c.onJobDone != nil {
		c.onJobDone(i, res)
	}
}

// transition двигает статус job. Невозможный переход — баг самого
// контроллера, поэтому не возвращается наверх, а логируется.
func (c *Controller) transition(state *runState, i int, to domain.JobStatus, label string) {
	if err := state.Transition(i, to); err != nil {
		c.logger.Error("job state transition rejected",
			"job", label,
			"error", err,
		)
	}
}
