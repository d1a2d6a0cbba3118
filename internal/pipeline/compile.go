package pipeline

import (
	"fmt"

	"github.com/conveyor-ci/conveyor/internal/controller"
	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
	"github.com/conveyor-ci/conveyor/internal/steps"
)

// Plan — скомпилированный пайплайн: развёрнутый набор jobs, собранные
// шаги и политика выполнения. После успешной компиляции выполнение
// плана не возвращает ошибок конфигурации — всё, что могло не
// сойтись, уже не сошлось бы здесь.
type Plan struct {
	// Matrix — реестр измерений.
	Matrix *matrix.Registry

	// Filter — правила исключения.
	Filter *matrix.Filter

	// Specs — развёрнутый набор jobs в порядке генерации.
	Specs []matrix.JobSpec

	// Steps — упорядоченный список шагов, общий для всех jobs.
	Steps []runner.Step

	// Policy — политика контроллера (fail_fast, max_parallel).
	Policy controller.Policy
}

// Compile собирает план из разобранного определения.
//
// Состав измерений, правила исключения, предикаты when, опции
// встроенных шагов и плейсхолдеры ${matrix.*} проверяются здесь,
// до старта первого job.
func Compile(spec *domain.PipelineSpec, registry *steps.Registry) (*Plan, error) {
	if err := Validate(spec); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = steps.DefaultRegistry()
	}

	dims := make([]matrix.Dimension, 0, len(spec.Matrix.Dimensions))
	for _, d := range spec.Matrix.Dimensions {
		dims = append(dims, matrix.Dimension{Name: d.Name, Values: d.Values})
	}
	mreg, err := matrix.NewRegistry(dims...)
	if err != nil {
		return nil, fmt.Errorf("matrix: %w", err)
	}

	rules := make([]matrix.Rule, 0, len(spec.Matrix.Exclude))
	for _, ex := range spec.Matrix.Exclude {
		rules = append(rules, matrix.Rule(ex))
	}
	filter, err := matrix.NewFilter(mreg, rules)
	if err != nil {
		return nil, fmt.Errorf("exclude: %w", err)
	}

	policy := controller.Policy{FailFast: true, MaxParallel: 1}
	if p := spec.Policy; p != nil {
		if p.FailFast != nil {
			policy.FailFast = *p.FailFast
		}
		if p.MaxParallel > 0 {
			policy.MaxParallel = p.MaxParallel
		}
	}

	compiled := make([]runner.Step, 0, len(spec.Steps))
	for i := range spec.Steps {
		step, err := compileStep(&spec.Steps[i], mreg, registry)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, step)
	}

	return &Plan{
		Matrix: mreg,
		Filter: filter,
		Specs:  matrix.Expand(mreg, filter),
		Steps:  compiled,
		Policy: policy,
	}, nil
}

// compileStep превращает определение шага в runner.Step.
func compileStep(def *domain.StepDef, mreg *matrix.Registry, registry *steps.Registry) (runner.Step, error) {
	uses := def.Uses
	with := def.With

	// run — сокращение для встроенного шага run: команда уходит
	// в опцию command, остальные опции (dir) остаются из with.
	if def.Run != "" {
		uses = steps.UsesRun
		merged := make(map[string]string, len(with)+1)
		for k, v := range with {
			merged[k] = v
		}
		merged["command"] = def.Run
		with = merged
	}

	for _, v := range with {
		if err := checkPlaceholders(def.Name, mreg, v); err != nil {
			return runner.Step{}, err
		}
	}

	factory, err := registry.Get(uses)
	if err != nil {
		return runner.Step{}, NewValidationError(def.Name, "uses",
			fmt.Sprintf("unknown step: %s", uses), err)
	}
	action, err := factory.Build(with)
	if err != nil {
		return runner.Step{}, NewValidationError(def.Name, "with", err.Error(), err)
	}

	step := runner.Step{Label: def.Name, Action: action}

	if len(def.When) > 0 {
		whenFilter, err := matrix.NewFilter(mreg, []matrix.Rule{matrix.Rule(def.When)})
		if err != nil {
			return runner.Step{}, NewValidationError(def.Name, "when", err.Error(), err)
		}
		step.When = whenFilter.Matches
	}

	return step, nil
}

// checkPlaceholders проверяет, что все ссылки ${matrix.*} указывают
// на объявленные измерения.
func checkPlaceholders(stepName string, mreg *matrix.Registry, s string) error {
	for _, name := range matrix.Placeholders(s) {
		if !mreg.Has(name) {
			return NewValidationError(stepName, "with",
				fmt.Sprintf("placeholder ${matrix.%s} references unknown dimension", name),
				ErrUnknownPlaceholder)
		}
	}
	return nil
}
