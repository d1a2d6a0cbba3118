package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunsCmd создаёт группу команд для работы с runs на сервере.
// Группа называется runs: имя run занято локальным выполнением.
func NewRunsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage runs on a Conveyor server",
	}

	cmd.AddCommand(
		newRunsListCmd(clientFn, outputFn),
		newRunsTriggerCmd(clientFn, outputFn),
		newRunsShowCmd(clientFn, outputFn),
		newRunsJobsCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var pipelineName string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				Pipeline: pipelineName,
				Status:   status,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "PIPELINE", "STATUS", "JOBS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.Pipeline, r.Status, formatJobCounts(r), r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&pipelineName, "pipeline", "", "Filter by pipeline name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunsTriggerCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var idempotencyKey string

	cmd := &cobra.Command{
		Use:   "trigger PIPELINE",
		Short: "Queue a new run for a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.TriggerRun(args[0], CreateRunRequest{
				IdempotencyKey: idempotencyKey,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run queued: %s", run.ID))
			out.Print(
				[]string{"ID", "PIPELINE", "STATUS", "CREATED"},
				[][]string{{run.ID, run.Pipeline, run.Status, run.CreatedAt}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Reuse an existing run with the same key instead of creating a duplicate")

	return cmd
}

func newRunsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "PIPELINE", "STATUS", "JOBS", "ERROR", "CREATED"},
				[][]string{{run.ID, run.Pipeline, run.Status, formatJobCounts(*run), run.Error, run.CreatedAt}},
				run,
			)
			return nil
		},
	}
}

func newRunsJobsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "jobs RUN_ID",
		Short: "List jobs of a run in matrix order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			jobs, err := client.ListRunJobs(args[0])
			if err != nil {
				return err
			}

			headers := []string{"#", "JOB", "STATUS", "STEP", "ERROR"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				rows[i] = []string{strconv.Itoa(j.Ordinal + 1), j.Label, j.Status, j.FailingStep, j.Error}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}
}

// formatJobCounts сводит счётчики jobs запуска в одну ячейку таблицы.
func formatJobCounts(r RunResponse) string {
	if r.JobsTotal == 0 {
		return ""
	}
	return fmt.Sprintf("%d passed, %d failed, %d skipped of %d",
		r.JobsPassed, r.JobsFailed, r.JobsSkipped, r.JobsTotal)
}
