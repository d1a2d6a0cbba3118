// Conveyor CLI — инструмент командной строки Conveyor.
//
// Локальные команды работают с файлом pipeline без сервера:
//
//	conveyor run ci.yml       # развернуть матрицу и выполнить jobs
//	conveyor plan ci.yml      # показать развёртку без выполнения
//	conveyor validate ci.yml  # проверить файл
//	conveyor hygiene ci.yml   # проверки гигиены репозитория
//
// Удалённые команды управляют сервером Conveyor через HTTP API:
//
//	conveyor [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	pipeline  Управление pipelines
//	runs      Управление runs
//	schedule  Управление schedules
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conveyor-ci/conveyor/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Conveyor CLI — matrix CI pipelines",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "Conveyor API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRunCmd(outputFn),
		cli.NewPlanCmd(outputFn),
		cli.NewValidateCmd(outputFn),
		cli.NewHygieneCmd(outputFn),
		cli.NewPipelineCmd(clientFn, outputFn),
		cli.NewRunsCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
	)

	// Ctrl-C во время локального run: диспетчеризация останавливается,
	// выполняющиеся команды получают отмену, остаток помечается SKIPPED.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
