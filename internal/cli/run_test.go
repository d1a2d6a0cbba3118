package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// writePipelineFile сохраняет YAML во временный файл.
func writePipelineFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write pipeline file: %v", err)
	}
	return path
}

// newTestOutput возвращает Output с буферами вместо stdout/stderr.
func newTestOutput() (*Output, *bytes.Buffer, *bytes.Buffer) {
	data := &bytes.Buffer{}
	msgs := &bytes.Buffer{}
	return &Output{w: data, errW: msgs}, data, msgs
}

// execute запускает команду с аргументами, глуша вывод cobra.
func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

func TestRunCmd_SucceedsWhenAllJobsPass(t *testing.T) {
	path := writePipelineFile(t, `
name: ok
matrix:
  dimensions:
    - name: check
      values: [one, two]
steps:
  - name: noop
    run: "true"
`)

	out, data, _ := newTestOutput()
	cmd := NewRunCmd(func() *Output { return out })

	if err := execute(t, cmd, path); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}

	got := data.String()
	for _, label := range []string{"one", "two"} {
		if !strings.Contains(got, label) {
			t.Errorf("summary does not mention job %q:\n%s", label, got)
		}
	}
	if !strings.Contains(got, "PASSED") {
		t.Errorf("summary does not mention PASSED:\n%s", got)
	}
}

func TestRunCmd_FailsWhenAJobFails(t *testing.T) {
	// gate выполняется только для check=two и всегда падает.
	path := writePipelineFile(t, `
name: flaky
matrix:
  dimensions:
    - name: check
      values: [one, two]
steps:
  - name: gate
    run: "false"
    when: {check: two}
  - name: noop
    run: "true"
`)

	out, data, _ := newTestOutput()
	cmd := NewRunCmd(func() *Output { return out })

	err := execute(t, cmd, path)
	if err == nil {
		t.Fatal("Execute() error = nil, want run failure")
	}
	if !strings.Contains(err.Error(), "run failed") {
		t.Errorf("Execute() error = %q, want mention of run failure", err)
	}

	got := data.String()
	if !strings.Contains(got, "FAILED") {
		t.Errorf("summary does not mention FAILED:\n%s", got)
	}
	if !strings.Contains(got, "gate") {
		t.Errorf("summary does not name the failing step:\n%s", got)
	}
}

func TestRunCmd_ConfigErrorBeforeAnyJob(t *testing.T) {
	path := writePipelineFile(t, `
name: broken
matrix:
  dimensions:
    - name: check
      values: [one]
steps:
  - name: mystery
    uses: no-such-step
`)

	out, _, msgs := newTestOutput()
	cmd := NewRunCmd(func() *Output { return out })

	err := execute(t, cmd, path)
	if err == nil {
		t.Fatal("Execute() error = nil, want configuration error")
	}
	if !strings.Contains(err.Error(), "unknown step") {
		t.Errorf("Execute() error = %q, want mention of unknown step", err)
	}
	// Ошибка конфигурации обнаруживается до старта первого job.
	if strings.Contains(msgs.String(), "RUN") {
		t.Errorf("jobs were dispatched despite configuration error:\n%s", msgs.String())
	}
}

func TestPlanCmd_ExpandsWithoutRunning(t *testing.T) {
	// Шаг всегда падает: plan не должен его выполнять.
	path := writePipelineFile(t, `
name: build-verify
matrix:
  dimensions:
    - name: check
      values: [format, clippy, test]
    - name: features
      values: [all, default]
  exclude:
    - check: format
      features: all
steps:
  - name: boom
    run: "exit 1"
`)

	out, data, msgs := newTestOutput()
	cmd := NewPlanCmd(func() *Output { return out })

	if err := execute(t, cmd, path); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}

	got := data.String()
	wantOrder := []string{"format/default", "clippy/all", "clippy/default", "test/all", "test/default"}
	prev := -1
	for _, label := range wantOrder {
		idx := strings.Index(got, label)
		if idx < 0 {
			t.Fatalf("plan does not list job %q:\n%s", label, got)
		}
		if idx < prev {
			t.Errorf("job %q listed out of order:\n%s", label, got)
		}
		prev = idx
	}
	if strings.Contains(got, "format/all") {
		t.Errorf("excluded job format/all present in plan:\n%s", got)
	}
	if !strings.Contains(msgs.String(), "5 job(s) planned, 1 candidate(s) excluded") {
		t.Errorf("summary = %q, want counts of planned and excluded jobs", msgs.String())
	}
}

func TestValidateCmd_AcceptsValidFile(t *testing.T) {
	path := writePipelineFile(t, `
name: ok
matrix:
  dimensions:
    - name: check
      values: [one]
policy:
  max_parallel: 3
steps:
  - name: noop
    run: "true"
`)

	out, data, _ := newTestOutput()
	cmd := NewValidateCmd(func() *Output { return out })

	if err := execute(t, cmd, path); err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if !strings.Contains(data.String(), "ok") {
		t.Errorf("summary does not mention pipeline name:\n%s", data.String())
	}
}

func TestValidateCmd_RejectsUnknownWhenDimension(t *testing.T) {
	path := writePipelineFile(t, `
name: broken
matrix:
  dimensions:
    - name: check
      values: [one]
steps:
  - name: noop
    run: "true"
    when: {nope: x}
`)

	out, _, _ := newTestOutput()
	cmd := NewValidateCmd(func() *Output { return out })

	err := execute(t, cmd, path)
	if err == nil {
		t.Fatal("Execute() error = nil, want validation error")
	}
	if !errors.Is(err, matrix.ErrUnknownDimension) {
		t.Errorf("Execute() error = %v, want ErrUnknownDimension in chain", err)
	}
}
