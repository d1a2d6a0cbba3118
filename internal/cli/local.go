package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/pipeline"
)

// loadSpec читает и разбирает файл pipeline.
func loadSpec(path string) (*domain.PipelineSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pipeline file: %w", err)
	}
	return pipeline.Parse(data)
}

// loadPlan читает файл pipeline и компилирует его в план выполнения
// со встроенным набором шагов. Все ошибки конфигурации — состав
// матрицы, правила исключения, предикаты when, опции шагов —
// всплывают здесь, до запуска первого job.
func loadPlan(path string) (*domain.PipelineSpec, *pipeline.Plan, error) {
	spec, err := loadSpec(path)
	if err != nil {
		return nil, nil, err
	}
	plan, err := pipeline.Compile(spec, nil)
	if err != nil {
		return nil, nil, err
	}
	return spec, plan, nil
}

// runLogger возвращает логгер локального выполнения: молчаливый по
// умолчанию, текстовый debug в stderr при --verbose. Прогресс jobs
// CLI печатает сам, через Output.
func runLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// formatDuration округляет длительность для вывода.
func formatDuration(d time.Duration) string {
	return d.Round(10 * time.Millisecond).String()
}
