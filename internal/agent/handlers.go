package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/conveyor-ci/conveyor/internal/controller"
	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/mq"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
	"github.com/conveyor-ci/conveyor/internal/repo"
	"github.com/conveyor-ci/conveyor/internal/runner"
	"github.com/conveyor-ci/conveyor/internal/telemetry"
)

// handleRunRequested обрабатывает заявку из очереди runs.requested.
func (a *Agent) handleRunRequested(ctx context.Context, delivery *mq.Delivery) error {
	// Парсим payload
	payload, err := mq.ParsePayload[mq.RunRequestedPayload](&delivery.Message)
	if err != nil {
		a.logger.Error("failed to parse run.requested payload", "error", err)
		return err
	}

	telemetry.RunRequestsConsumed.Inc()

	a.logger.Debug("received run.requested event", "run_id", payload.RunID)

	// Обрабатываем run
	if err := a.processRun(ctx, payload.RunID); err != nil {
		// Ожидаемые ситуации — не возвращаем ошибку (ack)
		if errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrRunNotPending) {
			a.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
			return nil
		}
		a.logger.Error("failed to process run", "run_id", payload.RunID, "error", err)
		return err
	}

	return nil
}

// processRun захватывает run, компилирует pipeline и выполняет план.
func (a *Agent) processRun(ctx context.Context, runID uuid.UUID) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	// 1. Загружаем run из БД
	run, err := a.runRepo.GetByID(ctx, runID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	// 2. Проверяем статус
	if run.Status != domain.RunStatusPending {
		return ErrRunNotPending
	}

	// 3. Захватываем run. CAS в БД: проигравший агент получает
	// ErrInvalidState и отступает без побочных эффектов.
	now := time.Now().UTC()
	if err := a.runRepo.TryStart(ctx, run.ID, now); err != nil {
		if errors.Is(err, repo.ErrInvalidState) {
			return ErrRunNotPending
		}
		return fmt.Errorf("claim run: %w", err)
	}
	run.Status = domain.RunStatusRunning
	run.StartedAt = &now

	logger := telemetry.WithPipeline(telemetry.WithRunID(a.logger, run.ID.String()), run.Pipeline)
	logger.Info("run claimed", "triggered_by", run.TriggeredBy)

	// Статусы jobs и итог run фиксируются и при отменённом ctx:
	// graceful shutdown не должен терять исходы уже выполненных jobs.
	persistCtx := context.WithoutCancel(ctx)

	// 4. Загружаем pipeline по имени
	pl, err := a.pipelineRepo.GetByName(ctx, run.Pipeline)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return a.failRun(persistCtx, logger, run, fmt.Errorf("%w: %s", ErrPipelineNotFound, run.Pipeline))
		}
		return fmt.Errorf("get pipeline: %w", err)
	}
	if !pl.IsActive {
		return a.failRun(persistCtx, logger, run, fmt.Errorf("%w: %s", ErrPipelineInactive, run.Pipeline))
	}

	// 5. Парсим и компилируем. Ошибка конфигурации — терминальный
	// провал run: повторная доставка заявки её не вылечит.
	spec, err := pipeline.Parse([]byte(pl.Source))
	if err != nil {
		return a.failRun(persistCtx, logger, run, fmt.Errorf("parse pipeline: %w", err))
	}
	plan, err := pipeline.Compile(spec, a.registry)
	if err != nil {
		return a.failRun(persistCtx, logger, run, fmt.Errorf("compile pipeline: %w", err))
	}

	// 6. Переносим политику плана в run и материализуем jobs
	run.FailFast = plan.Policy.FailFast
	run.MaxParallel = plan.Policy.MaxParallel
	run.JobsTotal = len(plan.Specs)
	if err := a.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to running: %w", err)
	}

	jobs := buildJobs(run, plan.Specs)
	if err := a.jobRepo.CreateBatch(ctx, jobs); err != nil {
		return fmt.Errorf("create jobs: %w", err)
	}

	logger.Info("run started",
		"pipeline_version", pl.Version,
		"jobs", run.JobsTotal,
		"max_parallel", run.MaxParallel,
		"fail_fast", run.FailFast,
	)

	telemetry.RunsStarted.Inc()
	telemetry.RunsInFlight.Inc()
	defer telemetry.RunsInFlight.Dec()

	a.publishRunStarted(ctx, run)

	// 7. Выполняем план: контроллер ведёт пул воркеров, агент
	// через хуки фиксирует переходы jobs в БД
	result := a.executePlan(ctx, persistCtx, logger, plan, jobs)

	// 8. Итог run
	passed, failed, skipped := result.Counts()
	run.JobsPassed = passed
	run.JobsFailed = failed
	run.JobsSkipped = skipped
	if result.Success() {
		run.MarkSucceeded()
	} else {
		run.MarkFailed(runError(result))
	}

	if err := a.runRepo.Update(persistCtx, run); err != nil {
		return fmt.Errorf("update run result: %w", err)
	}

	logger.Info("run finished",
		"status", run.Status,
		"passed", passed,
		"failed", failed,
		"skipped", skipped,
		"duration", result.Duration,
	)

	telemetry.RunsFinished.WithLabelValues(string(run.Status)).Inc()
	a.publishRunFinished(persistCtx, run)

	return nil
}

// executePlan выполняет план через контроллер. Хуки контроллера
// переводят jobs по жизненному циклу и публикуют события job.finished.
func (a *Agent) executePlan(
	ctx context.Context,
	persistCtx context.Context,
	logger *slog.Logger,
	plan *pipeline.Plan,
	jobs []domain.Job,
) controller.RunResult {
	ctrl := controller.New(controller.Config{
		Logger: logger,

		OnJobStart: func(i int, spec matrix.JobSpec) {
			jobs[i].MarkRunning()
			if err := a.jobRepo.Update(persistCtx, &jobs[i]); err != nil {
				logger.Error("failed to update job to running",
					"job", jobs[i].Label,
					"error", err,
				)
			}
		},

		OnJobDone: func(i int, res runner.JobResult) {
			job := &jobs[i]
			switch res.Status {
			case domain.JobStatusPassed:
				job.MarkPassed()
			case domain.JobStatusFailed:
				job.MarkFailed(res.FailingStep, res.Error)
			case domain.JobStatusSkipped:
				job.MarkSkipped()
			}

			if err := a.jobRepo.Update(persistCtx, job); err != nil {
				logger.Error("failed to update job result",
					"job", job.Label,
					"status", job.Status,
					"error", err,
				)
			}

			telemetry.JobsFinished.WithLabelValues(string(job.Status)).Inc()
			if job.Status != domain.JobStatusSkipped {
				telemetry.JobDuration.Observe(res.Duration.Seconds())
			}

			a.publishJobFinished(persistCtx, job)
		},
	})

	return ctrl.RunAll(ctx, plan.Specs, plan.Steps, plan.Policy)
}

// failRun фиксирует терминальный провал уже захваченного run:
// pipeline не найден, деактивирован или не компилируется.
func (a *Agent) failRun(ctx context.Context, logger *slog.Logger, run *domain.Run, cause error) error {
	run.MarkFailed(cause.Error())
	if err := a.runRepo.Update(ctx, run); err != nil {
		return fmt.Errorf("update run to failed: %w", err)
	}

	logger.Warn("run rejected", "error", cause)

	telemetry.RunsFinished.WithLabelValues(string(domain.RunStatusFailed)).Inc()
	a.publishRunFinished(ctx, run)

	return nil
}

// buildJobs материализует specs плана в jobs. Ordinal фиксирует
// порядок генерации матрицы — результаты run перечисляются по нему.
func buildJobs(run *domain.Run, specs []matrix.JobSpec) []domain.Job {
	now := time.Now().UTC()
	jobs := make([]domain.Job, len(specs))
	for i, spec := range specs {
		jobs[i] = domain.Job{
			ID:        uuid.New(),
			RunID:     run.ID,
			Ordinal:   i,
			Label:     spec.Label(),
			Values:    spec.Values(),
			Status:    domain.JobStatusPending,
			CreatedAt: now,
		}
	}
	return jobs
}

// runError собирает сообщение об ошибке run из первого провалившегося
// job в порядке генерации.
func runError(result controller.RunResult) string {
	for _, job := range result.Jobs {
		if job.Status != domain.JobStatusFailed {
			continue
		}
		if job.FailingStep != "" {
			return fmt.Sprintf("job %s failed at step %q: %s", job.Spec.Label(), job.FailingStep, job.Error)
		}
		return fmt.Sprintf("job %s failed: %s", job.Spec.Label(), job.Error)
	}
	return "run failed"
}

// publishRunStarted публикует событие run.started.
func (a *Agent) publishRunStarted(ctx context.Context, run *domain.Run) {
	if a.publisher == nil {
		return
	}

	payload := mq.RunStartedPayload{
		RunID:    run.ID,
		Pipeline: run.Pipeline,
		Jobs:     run.JobsTotal,
	}
	if err := a.publisher.PublishRunStarted(ctx, payload); err != nil {
		a.logger.Warn("failed to publish run.started", "run_id", run.ID, "error", err)
	}
}

// publishRunFinished публикует событие run.finished.
func (a *Agent) publishRunFinished(ctx context.Context, run *domain.Run) {
	if a.publisher == nil {
		return
	}

	payload := mq.RunFinishedPayload{
		RunID:    run.ID,
		Pipeline: run.Pipeline,
		Status:   run.Status,
		Passed:   run.JobsPassed,
		Failed:   run.JobsFailed,
		Skipped:  run.JobsSkipped,
		Error:    run.Error,
	}
	if err := a.publisher.PublishRunFinished(ctx, payload); err != nil {
		a.logger.Warn("failed to publish run.finished", "run_id", run.ID, "error", err)
		// Не возвращаем ошибку — run обновлён в БД, события не критичны
	}
}

// publishJobFinished публикует событие job.finished.
func (a *Agent) publishJobFinished(ctx context.Context, job *domain.Job) {
	if a.publisher == nil {
		return
	}

	payload := mq.JobFinishedPayload{
		JobID:       job.ID,
		RunID:       job.RunID,
		Label:       job.Label,
		Status:      job.Status,
		FailingStep: job.FailingStep,
		Error:       job.Error,
	}
	if err := a.publisher.PublishJobFinished(ctx, payload); err != nil {
		a.logger.Warn("failed to publish job.finished", "job_id", job.ID, "error", err)
	}
}
