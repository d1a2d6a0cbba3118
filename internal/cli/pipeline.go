package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conveyor-ci/conveyor/internal/pipeline"
)

// NewPipelineCmd создаёт группу команд для управления pipelines.
func NewPipelineCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Manage pipelines on a Conveyor server",
	}

	cmd.AddCommand(
		newPipelineListCmd(clientFn, outputFn),
		newPipelineApplyCmd(clientFn, outputFn),
		newPipelineShowCmd(clientFn, outputFn),
		newPipelineActivateCmd(clientFn, outputFn),
		newPipelineDeactivateCmd(clientFn, outputFn),
		newPipelineDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newPipelineListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			pipelines, err := client.ListPipelines()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "VERSION", "ACTIVE", "UPDATED"}
			rows := make([][]string, len(pipelines))
			for i, p := range pipelines {
				rows[i] = []string{p.Name, strconv.Itoa(p.Version), strconv.FormatBool(p.IsActive), p.UpdatedAt}
			}

			out.Print(headers, rows, pipelines)
			return nil
		},
	}
}

func newPipelineApplyCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create a pipeline or a new version of it from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read pipeline file: %w", err)
			}

			// Разбираем локально перед отправкой: битый файл не
			// должен уходить на сервер.
			if _, err := pipeline.Parse(data); err != nil {
				return err
			}

			p, err := client.ApplyPipeline(string(data))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Pipeline %s applied: version %d", p.Name, p.Version))
			out.Print(
				[]string{"NAME", "VERSION", "ACTIVE", "UPDATED"},
				[][]string{{p.Name, strconv.Itoa(p.Version), strconv.FormatBool(p.IsActive), p.UpdatedAt}},
				p,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to pipeline YAML file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newPipelineShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var showSource bool

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show pipeline details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			p, err := client.GetPipeline(args[0])
			if err != nil {
				return err
			}

			if showSource {
				out.Raw(p.Source)
				return nil
			}

			out.Print(
				[]string{"NAME", "VERSION", "ACTIVE", "CREATED", "UPDATED"},
				[][]string{{p.Name, strconv.Itoa(p.Version), strconv.FormatBool(p.IsActive), p.CreatedAt, p.UpdatedAt}},
				p,
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showSource, "source", false, "Print the raw YAML source instead of details")

	return cmd
}

func newPipelineActivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "activate NAME",
		Short: "Activate a pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.SetPipelineActive(args[0], true); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Pipeline activated: %s", args[0]))
			return nil
		},
	}
}

func newPipelineDeactivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate NAME",
		Short: "Deactivate a pipeline (schedules and triggers stop creating runs)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if _, err := client.SetPipelineActive(args[0], false); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Pipeline deactivated: %s", args[0]))
			return nil
		},
	}
}

func newPipelineDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a pipeline and its run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeletePipeline(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Pipeline deleted: %s", args[0]))
			return nil
		},
	}
}
