package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// planRow — один job развёртки для вывода.
type planRow struct {
	Ordinal int               `json:"ordinal"`
	Job     string            `json:"job"`
	Values  map[string]string `json:"values"`
}

// NewPlanCmd создаёт команду развёртки матрицы без выполнения.
func NewPlanCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "plan FILE",
		Short: "Show the expanded job matrix without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			spec, plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}

			// Колонки: порядковый номер, метка и по одной колонке
			// на каждое измерение в порядке объявления.
			dims := plan.Matrix.Dimensions()
			headers := make([]string, 0, len(dims)+2)
			headers = append(headers, "#", "JOB")
			for _, d := range dims {
				headers = append(headers, strings.ToUpper(d.Name))
			}

			rows := make([][]string, len(plan.Specs))
			jsonRows := make([]planRow, len(plan.Specs))
			for i, s := range plan.Specs {
				row := make([]string, 0, len(dims)+2)
				row = append(row, strconv.Itoa(i+1), s.Label())
				for _, d := range dims {
					row = append(row, s.Value(d.Name))
				}
				rows[i] = row
				jsonRows[i] = planRow{Ordinal: i, Job: s.Label(), Values: s.Values()}
			}

			out.Print(headers, rows, jsonRows)

			excluded := plan.Matrix.Product() - len(plan.Specs)
			out.Success(fmt.Sprintf("pipeline %s: %d job(s) planned, %d candidate(s) excluded",
				spec.Name, len(plan.Specs), excluded))
			return nil
		},
	}
}

// NewValidateCmd создаёт команду проверки файла pipeline.
//
// Файл проходит полный путь разбора и компиляции; выполнение не
// запускается. Ненулевой код выхода — файл не пригоден к запуску.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Parse and compile a pipeline file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			spec, plan, err := loadPlan(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"PIPELINE", "JOBS", "STEPS", "MAX_PARALLEL", "FAIL_FAST"},
				[][]string{{
					spec.Name,
					strconv.Itoa(len(plan.Specs)),
					strconv.Itoa(len(plan.Steps)),
					strconv.Itoa(plan.Policy.MaxParallel),
					strconv.FormatBool(plan.Policy.FailFast),
				}},
				map[string]any{
					"pipeline":     spec.Name,
					"jobs":         len(plan.Specs),
					"steps":        len(plan.Steps),
					"max_parallel": plan.Policy.MaxParallel,
					"fail_fast":    plan.Policy.FailFast,
				},
			)
			out.Success(fmt.Sprintf("pipeline %s is valid", spec.Name))
			return nil
		},
	}
}
