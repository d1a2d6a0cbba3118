package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conveyor-ci/conveyor/internal/controller"
	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

// jobReport — итог одного job для вывода.
type jobReport struct {
	Job         string               `json:"job"`
	Values      map[string]string    `json:"values,omitempty"`
	Status      string               `json:"status"`
	FailingStep string               `json:"failing_step,omitempty"`
	Error       string               `json:"error,omitempty"`
	Duration    string               `json:"duration"`
	Steps       []runner.StepOutcome `json:"steps,omitempty"`
}

func newJobReport(res runner.JobResult) jobReport {
	return jobReport{
		Job:         res.Spec.Label(),
		Values:      res.Spec.Values(),
		Status:      string(res.Status),
		FailingStep: res.FailingStep,
		Error:       res.Error,
		Duration:    formatDuration(res.Duration),
		Steps:       res.Steps,
	}
}

// NewRunCmd создаёт команду локального выполнения pipeline.
//
// Команда разворачивает матрицу из файла и выполняет все jobs на
// текущей машине. Код выхода ненулевой, если запуск не завершился
// успехом — включая ошибки конфигурации, обнаруженные до старта
// первого job.
func NewRunCmd(outputFn func() *Output) *cobra.Command {
	var maxParallel int
	var failFast string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Expand the matrix and run all jobs locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			spec, plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("max-parallel") {
				if maxParallel < 1 {
					return fmt.Errorf("invalid value for --max-parallel: %d", maxParallel)
				}
				plan.Policy.MaxParallel = maxParallel
			}
			if cmd.Flags().Changed("fail-fast") {
				b, err := strconv.ParseBool(failFast)
				if err != nil {
					return fmt.Errorf("invalid value for --fail-fast: %s", failFast)
				}
				plan.Policy.FailFast = b
			}

			out.Progress("pipeline %s: %d job(s), max_parallel=%d, fail_fast=%t",
				spec.Name, len(plan.Specs), plan.Policy.MaxParallel, plan.Policy.FailFast)

			// Каждый hook пишет только в свою ячейку reports[i];
			// RunAll возвращает управление после завершения всех jobs.
			reports := make([]jobReport, len(plan.Specs))

			ctrl := controller.New(controller.Config{
				Logger: runLogger(verbose),
				OnJobStart: func(i int, s matrix.JobSpec) {
					out.Progress("RUN   %s", s.Label())
				},
				OnJobDone: func(i int, res runner.JobResult) {
					reports[i] = newJobReport(res)
					switch res.Status {
					case domain.JobStatusPassed:
						out.Progress("PASS  %s (%s)", res.Spec.Label(), formatDuration(res.Duration))
					case domain.JobStatusFailed:
						out.Progress("FAIL  %s: step %s: %s", res.Spec.Label(), res.FailingStep, res.Error)
					case domain.JobStatusSkipped:
						out.Progress("SKIP  %s", res.Spec.Label())
					}
				},
			})

			result := ctrl.RunAll(cmd.Context(), plan.Specs, plan.Steps, plan.Policy)

			headers := []string{"JOB", "STATUS", "STEP", "DURATION"}
			rows := make([][]string, len(reports))
			for i, rep := range reports {
				rows[i] = []string{rep.Job, rep.Status, rep.FailingStep, rep.Duration}
			}
			out.Print(headers, rows, reports)

			passed, failed, skipped := result.Counts()
			if !result.Success() {
				return fmt.Errorf("run failed: %d of %d job(s) failed", failed, len(plan.Specs))
			}
			out.Success(fmt.Sprintf("run succeeded: %d passed, %d skipped (%s)",
				passed, skipped, formatDuration(result.Duration)))
			return nil
		},
	}

	cmd.Flags().IntVar(&maxParallel, "max-parallel", 0, "Override policy.max_parallel from the file")
	cmd.Flags().StringVar(&failFast, "fail-fast", "", "Override policy.fail_fast (true/false)")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log step execution to stderr")

	return cmd
}
