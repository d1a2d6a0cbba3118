package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/hygiene"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

// NewHygieneCmd создаёт команду проверок гигиены репозитория.
//
// Проверки из секции hygiene файла pipeline выполняются как отдельный
// одно-job'овый запуск: без матрицы, с собственным кодом выхода,
// не зависящим от исхода матричных jobs.
func NewHygieneCmd(outputFn func() *Output) *cobra.Command {
	var root string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "hygiene FILE",
		Short: "Run repository hygiene checks (authors, headers, conflict markers)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			spec, err := loadSpec(args[0])
			if err != nil {
				return err
			}
			if spec.Hygiene == nil {
				return fmt.Errorf("pipeline %s has no hygiene section", spec.Name)
			}

			steps, err := hygiene.Steps(spec.Hygiene, root, nil)
			if err != nil {
				return err
			}

			out.Progress("hygiene: %d check(s) on %s", len(steps), root)

			// Проверки идут через тот же Runner, что и шаги jobs:
			// первый провал останавливает оставшиеся.
			r := runner.New(runLogger(verbose))
			result := r.Run(cmd.Context(), matrix.JobSpec{}, steps)

			headers := []string{"CHECK", "STATUS", "DETAIL"}
			rows := make([][]string, len(result.Steps))
			for i, s := range result.Steps {
				detail := s.Output
				if s.Error != "" {
					detail = s.Error
				}
				rows[i] = []string{s.Label, string(s.Status), detail}
			}
			out.Print(headers, rows, result.Steps)

			if result.Status == domain.JobStatusFailed {
				return fmt.Errorf("hygiene failed: %s: %s", result.FailingStep, result.Error)
			}
			out.Success(fmt.Sprintf("hygiene passed (%s)", formatDuration(result.Duration)))
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "Repository root to check")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Log check execution to stderr")

	return cmd
}
