package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// spyAction записывает свои вызовы в общий журнал.
type spyAction struct {
	label    string
	calls    *[]string
	fail     bool
	infraErr error
}

func (a *spyAction) Execute(ctx context.Context, spec matrix.JobSpec) (*ActionResult, error) {
	*a.calls = append(*a.calls, a.label)
	if a.infraErr != nil {
		return nil, a.infraErr
	}
	if a.fail {
		return &ActionResult{Error: "boom"}, nil
	}
	return &ActionResult{Output: "ok"}, nil
}

func testSpec(t *testing.T, check, features string) matrix.JobSpec {
	t.Helper()
	reg, err := matrix.NewRegistry(
		matrix.Dimension{Name: "check", Values: []string{check}},
		matrix.Dimension{Name: "features", Values: []string{features}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return matrix.Expand(reg, nil)[0]
}

func TestRunner_StepsInOrder(t *testing.T) {
	var calls []string
	steps := []Step{
		{Label: "checkout", Action: &spyAction{label: "checkout", calls: &calls}},
		{Label: "build", Action: &spyAction{label: "build", calls: &calls}},
		{Label: "test", Action: &spyAction{label: "test", calls: &calls}},
	}

	result := New(nil).Run(context.Background(), testSpec(t, "test", "all"), steps)

	if result.Status != domain.JobStatusPassed {
		t.Errorf("expected PASSED, got %s", result.Status)
	}
	if result.FailingStep != "" {
		t.Errorf("failing step should be empty, got %q", result.FailingStep)
	}

	// Шаги выполняются строго в объявленном порядке
	want := []string{"checkout", "build", "test"}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, label := range want {
		if calls[i] != label {
			t.Errorf("call #%d: expected %s, got %s", i, label, calls[i])
		}
	}
}

func TestRunner_FailureStopsFollowingSteps(t *testing.T) {
	var calls []string
	steps := []Step{
		{Label: "s1", Action: &spyAction{label: "s1", calls: &calls}},
		{Label: "s2", Action: &spyAction{label: "s2", calls: &calls, fail: true}},
		{Label: "s3", Action: &spyAction{label: "s3", calls: &calls}},
		{Label: "s4", Action: &spyAction{label: "s4", calls: &calls}},
	}

	result := New(nil).Run(context.Background(), testSpec(t, "test", "all"), steps)

	if result.Status != domain.JobStatusFailed {
		t.Errorf("expected FAILED, got %s", result.Status)
	}
	if result.FailingStep != "s2" {
		t.Errorf("expected failing step s2, got %q", result.FailingStep)
	}

	// Шаги после упавшего никогда не выполняются
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls (s1, s2), got %d: %v", len(calls), calls)
	}
	if calls[0] != "s1" || calls[1] != "s2" {
		t.Errorf("unexpected call order: %v", calls)
	}
}

func TestRunner_PredicateSkips(t *testing.T) {
	var calls []string
	spec := testSpec(t, "format", "default")

	steps := []Step{
		{Label: "always", Action: &spyAction{label: "always", calls: &calls}},
		{
			Label: "clippy-only",
			// Упал бы, если бы выполнился — но предикат false
			When:   func(s matrix.JobSpec) bool { return s.Value("check") == "clippy" },
			Action: &spyAction{label: "clippy-only", calls: &calls, fail: true},
		},
		{Label: "after", Action: &spyAction{label: "after", calls: &calls}},
	}

	result := New(nil).Run(context.Background(), spec, steps)

	// Пропущенный шаг не влияет на статус и не попадает в failing_step
	if result.Status != domain.JobStatusPassed {
		t.Errorf("expected PASSED, got %s", result.Status)
	}
	if result.FailingStep != "" {
		t.Errorf("failing step should be empty, got %q", result.FailingStep)
	}

	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d: %v", len(calls), calls)
	}

	// Исход пропущенного шага записан как SKIPPED
	if len(result.Steps) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(result.Steps))
	}
	if result.Steps[1].Status != StepSkipped {
		t.Errorf("expected SKIPPED outcome, got %s", result.Steps[1].Status)
	}
}

func TestRunner_RuleAsPredicate(t *testing.T) {
	var calls []string
	spec := testSpec(t, "clippy", "all")

	// Частичное назначение из matrix.Rule работает как предикат шага
	steps := []Step{
		{
			Label:  "clippy",
			When:   matrix.Rule{"check": "clippy"}.Matches,
			Action: &spyAction{label: "clippy", calls: &calls},
		},
		{
			Label:  "fmt",
			When:   matrix.Rule{"check": "format"}.Matches,
			Action: &spyAction{label: "fmt", calls: &calls},
		},
	}

	result := New(nil).Run(context.Background(), spec, steps)

	if result.Status != domain.JobStatusPassed {
		t.Errorf("expected PASSED, got %s", result.Status)
	}
	if len(calls) != 1 || calls[0] != "clippy" {
		t.Errorf("expected only clippy to run, got %v", calls)
	}
}

func TestRunner_InfrastructureError(t *testing.T) {
	var calls []string
	steps := []Step{
		{Label: "broken", Action: &spyAction{label: "broken", calls: &calls, infraErr: errors.New("spawn failed")}},
	}

	result := New(nil).Run(context.Background(), testSpec(t, "test", "all"), steps)

	if result.Status != domain.JobStatusFailed {
		t.Errorf("expected FAILED, got %s", result.Status)
	}
	if result.FailingStep != "broken" {
		t.Errorf("expected failing step broken, got %q", result.FailingStep)
	}
	if result.Error != "spawn failed" {
		t.Errorf("expected error text, got %q", result.Error)
	}
}

func TestRunner_NilAction(t *testing.T) {
	steps := []Step{{Label: "empty"}}

	result := New(nil).Run(context.Background(), testSpec(t, "test", "all"), steps)

	if result.Status != domain.JobStatusFailed {
		t.Errorf("expected FAILED, got %s", result.Status)
	}
	if result.FailingStep != "empty" {
		t.Errorf("expected failing step empty, got %q", result.FailingStep)
	}
}

func TestRunner_NoSteps(t *testing.T) {
	result := New(nil).Run(context.Background(), testSpec(t, "test", "all"), nil)

	if result.Status != domain.JobStatusPassed {
		t.Errorf("job without steps should pass, got %s", result.Status)
	}
}
