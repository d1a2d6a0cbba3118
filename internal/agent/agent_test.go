package agent

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/conveyor-ci/conveyor/internal/controller"
	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
	"github.com/conveyor-ci/conveyor/internal/steps"
)

// --- Agent Tests ---

func TestNew_DefaultConfig(t *testing.T) {
	a := New(Config{})

	if a.pollInterval != defaultPollInterval {
		t.Errorf("expected default poll interval %v, got %v", defaultPollInterval, a.pollInterval)
	}
	if a.batchSize != defaultBatchSize {
		t.Errorf("expected default batch size %d, got %d", defaultBatchSize, a.batchSize)
	}
	if a.registry == nil {
		t.Error("registry should be initialized")
	}
	// Реестр по умолчанию — все встроенные шаги
	if !a.registry.Has(steps.UsesRun) {
		t.Error("default registry should have the run step")
	}
}

func TestNew_CustomConfig(t *testing.T) {
	a := New(Config{
		PollInterval: 3 * time.Second,
		BatchSize:    4,
	})

	if a.pollInterval != 3*time.Second {
		t.Errorf("expected poll interval 3s, got %v", a.pollInterval)
	}
	if a.batchSize != 4 {
		t.Errorf("expected batch size 4, got %d", a.batchSize)
	}
}

func TestNew_CustomRegistry(t *testing.T) {
	r := steps.NewRegistry()
	r.Register(&steps.CacheSaveFactory{Store: t.TempDir()})

	a := New(Config{Registry: r})

	if !a.registry.Has(steps.UsesCacheSave) {
		t.Error("custom registry should be used")
	}
	if a.registry.Has(steps.UsesRun) {
		t.Error("custom registry should not be extended with defaults")
	}
}

func TestAgent_IsStopped(t *testing.T) {
	a := New(Config{})

	if a.IsStopped() {
		t.Error("should not be stopped initially")
	}

	a.stoppedMu.Lock()
	a.stopped = true
	a.stoppedMu.Unlock()

	if !a.IsStopped() {
		t.Error("should be stopped")
	}
}

// --- buildJobs Tests ---

func TestBuildJobs_MaterializesMatrixOrder(t *testing.T) {
	reg, err := matrix.NewRegistry(
		matrix.Dimension{Name: "check", Values: []string{"format", "clippy", "test"}},
		matrix.Dimension{Name: "features", Values: []string{"all", "default"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	filter, err := matrix.NewFilter(reg, []matrix.Rule{
		{"check": "format", "features": "all"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	specs := matrix.Expand(reg, filter)

	run := &domain.Run{ID: uuid.New()}
	jobs := buildJobs(run, specs)

	// 3×2 минус одно исключение
	if len(jobs) != 5 {
		t.Fatalf("expected 5 jobs, got %d", len(jobs))
	}

	for i := range jobs {
		if jobs[i].Ordinal != i {
			t.Errorf("job %d: expected ordinal %d, got %d", i, i, jobs[i].Ordinal)
		}
		if jobs[i].RunID != run.ID {
			t.Errorf("job %d: run_id mismatch", i)
		}
		if jobs[i].Status != domain.JobStatusPending {
			t.Errorf("job %d: expected PENDING, got %s", i, jobs[i].Status)
		}
		if jobs[i].ID == uuid.Nil {
			t.Errorf("job %d: id should be set", i)
		}
	}

	// Порядок генерации: первое измерение меняется медленнее всех,
	// format/all выброшен исключением
	wantLabels := []string{"format/default", "clippy/all", "clippy/default", "test/all", "test/default"}
	for i, want := range wantLabels {
		if jobs[i].Label != want {
			t.Errorf("job %d: expected label %q, got %q", i, want, jobs[i].Label)
		}
	}

	if jobs[0].Values["check"] != "format" || jobs[0].Values["features"] != "default" {
		t.Errorf("job 0: unexpected values %v", jobs[0].Values)
	}
}

func TestBuildJobs_EmptySpecs(t *testing.T) {
	run := &domain.Run{ID: uuid.New()}
	jobs := buildJobs(run, nil)

	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}

// --- runError Tests ---

func TestRunError_NamesFirstFailedJob(t *testing.T) {
	reg, err := matrix.NewRegistry(
		matrix.Dimension{Name: "check", Values: []string{"format", "clippy", "test"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	specs := matrix.Expand(reg, nil)

	result := controller.RunResult{
		Status: domain.RunStatusFailed,
		Jobs: []runner.JobResult{
			{Spec: specs[0], Status: domain.JobStatusPassed},
			{Spec: specs[1], Status: domain.JobStatusFailed, FailingStep: "lint", Error: "exit status 1"},
			{Spec: specs[2], Status: domain.JobStatusFailed, FailingStep: "build", Error: "exit status 2"},
		},
	}

	got := runError(result)
	want := `job clippy failed at step "lint": exit status 1`
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRunError_WithoutFailingStep(t *testing.T) {
	reg, err := matrix.NewRegistry(
		matrix.Dimension{Name: "check", Values: []string{"format"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	specs := matrix.Expand(reg, nil)

	result := controller.RunResult{
		Status: domain.RunStatusFailed,
		Jobs: []runner.JobResult{
			{Spec: specs[0], Status: domain.JobStatusFailed, Error: "context canceled"},
		},
	}

	got := runError(result)
	want := "job format failed: context canceled"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
