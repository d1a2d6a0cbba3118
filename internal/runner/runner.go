package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// Predicate — условие выполнения шага: функция над JobSpec.
// Nil-предикат означает безусловный шаг.
type Predicate func(spec matrix.JobSpec) bool

// Step — один шаг job.
type Step struct {
	// Label — имя шага. Попадает в FailingStep при падении.
	Label string

	// When — предикат выполнения. Nil — шаг безусловный.
	When Predicate

	// Action — действие шага.
	Action Action
}

// StepStatus — исход одного шага внутри job.
type StepStatus string

const (
	// StepPassed — шаг выполнен успешно.
	StepPassed StepStatus = "PASSED"

	// StepSkipped — предикат шага вернул false, шаг не выполнялся.
	StepSkipped StepStatus = "SKIPPED"

	// StepFailed — действие шага завершилось ошибкой.
	StepFailed StepStatus = "FAILED"
)

// StepOutcome — запись о прохождении одного шага.
type StepOutcome struct {
	// Label — имя шага.
	Label string `json:"label"`

	// Status — исход шага.
	Status StepStatus `json:"status"`

	// Output — stdout действия (для shell-шагов).
	Output string `json:"output,omitempty"`

	// Error — текст ошибки при падении.
	Error string `json:"error,omitempty"`
}

// JobResult — результат выполнения одного job.
type JobResult struct {
	// Spec — назначение измерений, для которого выполнялся job.
	Spec matrix.JobSpec `json:"-"`

	// Status — PASSED или FAILED (SKIPPED выставляет контроллер
	// для jobs, не отправленных из-за fail-fast).
	Status domain.JobStatus `json:"status"`

	// FailingStep — имя шага, на котором job упал. Пусто при успехе.
	FailingStep string `json:"failing_step,omitempty"`

	// Error — текст ошибки упавшего шага.
	Error string `json:"error,omitempty"`

	// Steps — исходы шагов в порядке объявления
	// (шаги после упавшего в список не попадают).
	Steps []StepOutcome `json:"steps,omitempty"`

	// Duration — полное время выполнения job.
	Duration time.Duration `json:"duration"`
}

// Runner выполняет jobs: шаги строго последовательно, без retry.
type Runner struct {
	logger *slog.Logger
}

// New создаёт Runner. Nil logger заменяется на slog.Default().
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Run выполняет шаги строго в объявленном порядке.
//
// Перед каждым шагом вычисляется его предикат над spec: false —
// шаг пропускается (не выполняется и не считается ошибкой).
// Если действие шага завершилось ошибкой, job немедленно
// останавливается: статус FAILED, FailingStep — имя упавшего шага,
// оставшиеся шаги не выполняются. Все шаги прошли или пропущены —
// статус PASSED. Retry на этом уровне нет.
func (r *Runner) Run(ctx context.Context, spec matrix.JobSpec, steps []Step) JobResult {
	result := JobResult{
		Spec:   spec,
		Status: domain.JobStatusPassed,
		Steps:  make([]StepOutcome, 0, len(steps)),
	}

	logger := r.logger.With(slog.String("job", spec.Label()))
	start := time.Now()

	for _, step := range steps {
		if step.When != nil && !step.When(spec) {
			logger.Debug("step skipped by predicate", slog.String("step", step.Label))
			result.Steps = append(result.Steps, StepOutcome{Label: step.Label, Status: StepSkipped})
			continue
		}

		outcome := r.runStep(ctx, logger, spec, step)
		result.Steps = append(result.Steps, outcome)

		if outcome.Status == StepFailed {
			result.Status = domain.JobStatusFailed
			result.FailingStep = step.Label
			result.Error = outcome.Error
			break
		}
	}

	result.Duration = time.Since(start)
	return result
}

// runStep выполняет одно действие и переводит его исход в StepOutcome.
func (r *Runner) runStep(ctx context.Context, logger *slog.Logger, spec matrix.JobSpec, step Step) StepOutcome {
	logger.Debug("running step", slog.String("step", step.Label))

	if step.Action == nil {
		return StepOutcome{Label: step.Label, Status: StepFailed, Error: ErrNoAction.Error()}
	}

	actionResult, err := step.Action.Execute(ctx, spec)

	outcome := StepOutcome{Label: step.Label, Status: StepPassed}
	if actionResult != nil {
		outcome.Output = actionResult.Output
	}

	switch {
	case err != nil:
		outcome.Status = StepFailed
		outcome.Error = err.Error()
	case actionResult != nil && actionResult.Error != "":
		outcome.Status = StepFailed
		outcome.Error = actionResult.Error
	}

	if outcome.Status == StepFailed {
		logger.Warn("step failed",
			slog.String("step", step.Label),
			slog.String("error", outcome.Error))
	}
	return outcome
}
