package pipeline

import (
	"errors"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/domain"
)

const verifyPipeline = `
name: build-verify
description: Library verification across the check x features matrix

matrix:
  dimensions:
    - name: check
      values: [format, clippy, test]
    - name: features
      values: [all, default]
  exclude:
    - check: format
      features: all

policy:
  fail_fast: true
  max_parallel: 2

steps:
  - name: sources
    uses: checkout
    with:
      url: https://github.com/acme/widget.git
  - name: verify
    run: cargo ${matrix.check} --features ${matrix.features}
`

func TestParse_FullPipeline(t *testing.T) {
	spec, err := Parse([]byte(verifyPipeline))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if spec.Name != "build-verify" {
		t.Errorf("Name = %q", spec.Name)
	}
	if len(spec.Matrix.Dimensions) != 2 {
		t.Fatalf("got %d dimensions, expected 2", len(spec.Matrix.Dimensions))
	}
	if spec.Matrix.Dimensions[0].Name != "check" || len(spec.Matrix.Dimensions[0].Values) != 3 {
		t.Errorf("first dimension: %+v", spec.Matrix.Dimensions[0])
	}
	if len(spec.Matrix.Exclude) != 1 || spec.Matrix.Exclude[0]["check"] != "format" {
		t.Errorf("exclude: %+v", spec.Matrix.Exclude)
	}
	if spec.Policy == nil || spec.Policy.FailFast == nil || !*spec.Policy.FailFast {
		t.Errorf("policy.fail_fast: %+v", spec.Policy)
	}
	if spec.Policy.MaxParallel != 2 {
		t.Errorf("policy.max_parallel = %d", spec.Policy.MaxParallel)
	}
	if len(spec.Steps) != 2 {
		t.Fatalf("got %d steps, expected 2", len(spec.Steps))
	}
	if spec.Steps[0].Uses != "checkout" || spec.Steps[0].With["url"] == "" {
		t.Errorf("first step: %+v", spec.Steps[0])
	}
	if spec.Steps[1].Run == "" {
		t.Errorf("second step: %+v", spec.Steps[1])
	}
}

func TestParse_UnknownFieldRejected(t *testing.T) {
	// Опечатка в имени поля — ошибка разбора, а не молча пропущенная настройка.
	_, err := Parse([]byte(`
name: x
matrx:
  dimensions: []
steps:
  - name: s
    run: "true"
`))
	if err == nil {
		t.Fatal("expected an error for unknown field matrx")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("{{Jinja?}}: ["))
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestValidate_EmptyName(t *testing.T) {
	spec := &domain.PipelineSpec{
		Steps: []domain.StepDef{{Name: "s", Run: "true"}},
	}
	if err := Validate(spec); !errors.Is(err, ErrEmptyName) {
		t.Errorf("err = %v, expected ErrEmptyName", err)
	}
}

func TestValidate_NoSteps(t *testing.T) {
	spec := &domain.PipelineSpec{Name: "x"}
	if err := Validate(spec); !errors.Is(err, ErrNoSteps) {
		t.Errorf("err = %v, expected ErrNoSteps", err)
	}
}

func TestValidate_DuplicateStepName(t *testing.T) {
	spec := &domain.PipelineSpec{
		Name: "x",
		Steps: []domain.StepDef{
			{Name: "build", Run: "true"},
			{Name: "build", Run: "false"},
		},
	}
	err := Validate(spec)
	if !errors.Is(err, ErrDuplicateStep) {
		t.Fatalf("err = %v, expected ErrDuplicateStep", err)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Step != "build" {
		t.Errorf("ValidationError.Step = %+v", err)
	}
}

func TestValidate_EmptyStepName(t *testing.T) {
	spec := &domain.PipelineSpec{
		Name:  "x",
		Steps: []domain.StepDef{{Run: "true"}},
	}
	if err := Validate(spec); !errors.Is(err, ErrEmptyStepName) {
		t.Errorf("err = %v, expected ErrEmptyStepName", err)
	}
}

func TestValidate_StepSource(t *testing.T) {
	// Оба источника сразу
	spec := &domain.PipelineSpec{
		Name:  "x",
		Steps: []domain.StepDef{{Name: "s", Run: "true", Uses: "checkout"}},
	}
	if err := Validate(spec); !errors.Is(err, ErrStepSource) {
		t.Errorf("run+uses: err = %v, expected ErrStepSource", err)
	}

	// Ни одного
	spec.Steps[0] = domain.StepDef{Name: "s"}
	if err := Validate(spec); !errors.Is(err, ErrStepSource) {
		t.Errorf("no source: err = %v, expected ErrStepSource", err)
	}
}

func TestValidate_NegativeMaxParallel(t *testing.T) {
	spec := &domain.PipelineSpec{
		Name:   "x",
		Policy: &domain.PolicyDef{MaxParallel: -2},
		Steps:  []domain.StepDef{{Name: "s", Run: "true"}},
	}
	if err := Validate(spec); !errors.Is(err, ErrNegativeParallel) {
		t.Errorf("err = %v, expected ErrNegativeParallel", err)
	}
}
