package pipeline

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/conveyor-ci/conveyor/internal/domain"
)

// Parse разбирает YAML-определение пайплайна и валидирует структуру.
//
// Незнакомые поля — ошибка: опечатка в имени поля не должна молча
// превращаться в пропущенную настройку.
func Parse(data []byte) (*domain.PipelineSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var spec domain.PipelineSpec
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}

	if err := Validate(&spec); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate выполняет структурную валидацию определения.
//
// Проверяет:
// - Наличие имени и шагов
// - Уникальность имён шагов
// - Ровно один источник у каждого шага (run или uses)
// - Неотрицательность max_parallel
//
// Состав матрицы, правила исключения, предикаты when и опции
// встроенных шагов проверяет Compile.
func Validate(spec *domain.PipelineSpec) error {
	if spec == nil {
		return NewValidationError("", "name", "pipeline has no name", ErrEmptyName)
	}
	if spec.Name == "" {
		return NewValidationError("", "name", "pipeline has no name", ErrEmptyName)
	}
	if len(spec.Steps) == 0 {
		return NewValidationError("", "steps", "pipeline has no steps", ErrNoSteps)
	}

	names := make(map[string]bool)
	for i := range spec.Steps {
		step := &spec.Steps[i]

		if step.Name == "" {
			return NewValidationError("", "name",
				fmt.Sprintf("step %d has empty name", i), ErrEmptyStepName)
		}
		if names[step.Name] {
			return NewValidationError(step.Name, "name",
				fmt.Sprintf("duplicate step name: %s", step.Name), ErrDuplicateStep)
		}
		names[step.Name] = true

		hasRun := step.Run != ""
		hasUses := step.Uses != ""
		if hasRun == hasUses {
			return NewValidationError(step.Name, "run",
				"step must set exactly one of run or uses", ErrStepSource)
		}
	}

	if spec.Policy != nil && spec.Policy.MaxParallel < 0 {
		return NewValidationError("", "policy.max_parallel",
			fmt.Sprintf("max_parallel must not be negative, got %d", spec.Policy.MaxParallel),
			ErrNegativeParallel)
	}

	return nil
}
