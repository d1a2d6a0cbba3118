package hygiene

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// fakeRunner — исполнитель команд по заранее заданному сценарию.
type fakeRunner struct {
	calls     [][]string
	responses []fakeResponse
}

type fakeResponse struct {
	stdout string
	stderr string
	code   int32
	err    error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	i := len(f.calls) - 1
	if i >= len(f.responses) {
		return nil, nil, 0, nil
	}
	r := f.responses[i]
	return []byte(r.stdout), []byte(r.stderr), r.code, r.err
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Authors Tests

func TestAuthors_AllListed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "AUTHORS", "# Maintainers\nJane Doe <jane@acme.dev>\nBob Lee <bob@acme.dev>\n")

	fake := &fakeRunner{responses: []fakeResponse{
		{stdout: "Jane Doe <jane@acme.dev>\nBob Lee <bob@acme.dev>\nJane Doe <jane@acme.dev>\n"},
	}}
	action := &authorsAction{root: root, authorsFile: "AUTHORS", runner: fake}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("result.Error = %q, expected success", result.Error)
	}
	// Дубликаты авторов схлопываются
	if !strings.Contains(result.Output, "2 commit author(s)") {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestAuthors_Missing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "AUTHORS", "Jane Doe <jane@acme.dev>\n")

	fake := &fakeRunner{responses: []fakeResponse{
		{stdout: "Jane Doe <jane@acme.dev>\nEve Intruder <eve@unknown.io>\n"},
	}}
	action := &authorsAction{root: root, authorsFile: "AUTHORS", runner: fake}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Error, "missing from AUTHORS") ||
		!strings.Contains(result.Error, "Eve Intruder <eve@unknown.io>") {
		t.Errorf("result.Error = %q", result.Error)
	}
}

func TestAuthors_AllowedBotSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "AUTHORS", "Jane Doe <jane@acme.dev>\n")

	fake := &fakeRunner{responses: []fakeResponse{
		{stdout: "Jane Doe <jane@acme.dev>\ndependabot[bot] <49699333+dependabot[bot]@users.noreply.github.com>\n"},
	}}
	action := &authorsAction{
		root:        root,
		authorsFile: "AUTHORS",
		allowed:     map[string]bool{"dependabot[bot]": true},
		runner:      fake,
	}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("allowed author must not fail the check: %q", result.Error)
	}
}

func TestAuthors_FileMissing(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{stdout: "Jane Doe <jane@acme.dev>\n"},
	}}
	action := &authorsAction{root: t.TempDir(), authorsFile: "AUTHORS", runner: fake}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("missing AUTHORS is a check failure, not an error: %v", err)
	}
	if !strings.Contains(result.Error, "authors file AUTHORS") {
		t.Errorf("result.Error = %q", result.Error)
	}
}

func TestAuthors_GitFails(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{stderr: "fatal: not a git repository\n", code: 128},
	}}
	action := &authorsAction{root: t.TempDir(), authorsFile: "AUTHORS", runner: fake}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Error, "exit code 128") {
		t.Errorf("result.Error = %q", result.Error)
	}
}

// Headers Tests

func TestHeaders_AllPresent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "lib.rs", "// Copyright 2026 Acme Corp\nfn main() {}\n")
	writeFile(t, root, "sub/util.rs", "#![allow(dead_code)]\n// Copyright 2026 Acme Corp\n")
	writeFile(t, root, "README.md", "no header here and none required\n")

	action := &headersAction{
		root:   root,
		header: "Copyright 2026 Acme Corp",
		depth:  5,
		exts:   map[string]bool{".rs": true},
	}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("result.Error = %q", result.Error)
	}
	if !strings.Contains(result.Output, "all 2 checked") {
		t.Errorf("Output = %q, .md files must not be counted", result.Output)
	}
}

func TestHeaders_ViolationBeyondDepth(t *testing.T) {
	root := t.TempDir()
	// Заголовок есть, но глубже проверяемых строк
	writeFile(t, root, "late.rs", "a\nb\nc\n// Copyright 2026 Acme Corp\n")

	action := &headersAction{
		root:   root,
		header: "Copyright 2026 Acme Corp",
		depth:  3,
		exts:   map[string]bool{".rs": true},
	}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Error, "late.rs") {
		t.Errorf("result.Error = %q, expected late.rs", result.Error)
	}
}

func TestHeaders_HiddenDirsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/objects/junk.rs", "junk without a header\n")
	writeFile(t, root, "ok.rs", "// Copyright 2026 Acme Corp\n")

	action := &headersAction{
		root:   root,
		header: "Copyright 2026 Acme Corp",
		depth:  5,
		exts:   map[string]bool{".rs": true},
	}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("files under .git must not be checked: %q", result.Error)
	}
}

// Conflict Markers Tests

func TestMarkers_Clean(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main\n\nfunc main() {}\n")

	fake := &fakeRunner{responses: []fakeResponse{{stdout: "main.go\n"}}}
	action := &markersAction{root: root, runner: fake}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("result.Error = %q", result.Error)
	}
	if !strings.Contains(result.Output, "1 tracked file(s)") {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestMarkers_Found(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "merge.go", "package main\n<<<<<<< HEAD\nx := 1\n=======\nx := 2\n>>>>>>> feature\n")

	fake := &fakeRunner{responses: []fakeResponse{{stdout: "merge.go\n"}}}
	action := &markersAction{root: root, runner: fake}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"merge.go:2", "merge.go:4", "merge.go:6"} {
		if !strings.Contains(result.Error, want) {
			t.Errorf("result.Error = %q, expected to contain %q", result.Error, want)
		}
	}
}

func TestMarkers_BinarySkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "blob.bin", "=======\x00=======\n")

	fake := &fakeRunner{responses: []fakeResponse{{stdout: "blob.bin\n"}}}
	action := &markersAction{root: root, runner: fake}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("binary files must not be checked: %q", result.Error)
	}
}

func TestMarkers_DeletedFileSkipped(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{{stdout: "gone.go\n"}}}
	action := &markersAction{root: t.TempDir(), runner: fake}

	result, err := action.Execute(context.Background(), matrix.JobSpec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("tracked file missing from worktree must be skipped: %q", result.Error)
	}
}

// Steps Builder Tests

func TestSteps_FullDefinition(t *testing.T) {
	def := &domain.HygieneDef{
		AuthorsFile: "AUTHORS",
		Header:      "Copyright 2026 Acme Corp",
		Extensions:  []string{".rs", "go"}, // расширение без точки нормализуется
	}

	built, err := Steps(def, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"authors", "headers", "conflict-markers"}
	if len(built) != len(want) {
		t.Fatalf("got %d steps, expected %d", len(built), len(want))
	}
	for i, label := range want {
		if built[i].Label != label {
			t.Errorf("Steps[%d].Label = %q, expected %q", i, built[i].Label, label)
		}
	}

	headers := built[1].Action.(*headersAction)
	if !headers.exts[".go"] || !headers.exts[".rs"] {
		t.Errorf("exts = %v", headers.exts)
	}
	if headers.depth != defaultHeaderDepth {
		t.Errorf("depth = %d, expected %d", headers.depth, defaultHeaderDepth)
	}
}

func TestSteps_MarkersAlwaysIncluded(t *testing.T) {
	built, err := Steps(&domain.HygieneDef{}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(built) != 1 || built[0].Label != "conflict-markers" {
		t.Errorf("Steps = %+v", built)
	}
}

func TestSteps_NilDefinition(t *testing.T) {
	if _, err := Steps(nil, "", nil); !errors.Is(err, ErrNoChecks) {
		t.Errorf("err = %v, expected ErrNoChecks", err)
	}
}

func TestSteps_HeaderWithoutExtensions(t *testing.T) {
	def := &domain.HygieneDef{Header: "Copyright"}
	if _, err := Steps(def, "", nil); !errors.Is(err, ErrNoExtensions) {
		t.Errorf("err = %v, expected ErrNoExtensions", err)
	}
}
