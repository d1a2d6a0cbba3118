package steps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// fakeRunner — исполнитель команд по заранее заданному сценарию.
// Записывает вызовы для проверки порядка и аргументов.
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

// specWith строит JobSpec c заданными измерениями через настоящую
// развёртку. Без измерений — пустой spec единственного job.
func specWith(t *testing.T, dims ...matrix.Dimension) matrix.JobSpec {
	t.Helper()
	reg, err := matrix.NewRegistry(dims...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return matrix.Expand(reg, nil)[0]
}

// Registry Tests

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	// Пустой реестр
	if r.Count() != 0 {
		t.Errorf("expected an empty registry")
	}

	// Регистрация
	r.Register(NewRunFactory())
	if r.Count() != 1 {
		t.Errorf("expected 1 factory, got %d", r.Count())
	}

	// Получение
	factory, err := r.Get("run")
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if factory.Uses() != "run" {
		t.Errorf("expected run, got %s", factory.Uses())
	}

	// Несуществующее имя
	_, err = r.Get("deploy")
	if !errors.Is(err, ErrUnknownStep) {
		t.Errorf("expected ErrUnknownStep, got %v", err)
	}

	// Has
	if !r.Has("run") {
		t.Error("run should be registered")
	}
	if r.Has("deploy") {
		t.Error("deploy should not be registered")
	}

	// Unregister
	r.Unregister("run")
	if r.Has("run") {
		t.Error("run should be gone after Unregister")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	expected := []string{"cache-restore", "cache-save", "checkout", "run", "toolchain"}
	for _, uses := range expected {
		if !r.Has(uses) {
			t.Errorf("default registry should contain %s", uses)
		}
	}

	if got := r.Uses(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Uses() = %v, expected %v", got, expected)
	}
}

// Run Step Tests

func TestRunFactory_Build(t *testing.T) {
	f := NewRunFactory()

	action, err := f.Build(map[string]string{"command": "true"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("result.Error = %q, expected success", result.Error)
	}
}

func TestRunFactory_MissingCommand(t *testing.T) {
	f := NewRunFactory()
	_, err := f.Build(map[string]string{})
	if !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("expected ErrInvalidOptions, got %v", err)
	}
}

// Checkout Step Tests

func TestCheckout_CloneAndRevParse(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{},                      // clone
		{stdout: "abc123def\n"}, // rev-parse
	}}
	f := &CheckoutFactory{Runner: fake}

	action, err := f.Build(map[string]string{
		"url": "https://github.com/acme/widget.git",
		"dir": "src",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Fatalf("result.Error = %q, expected success", result.Error)
	}
	if !strings.Contains(result.Output, "abc123def") {
		t.Errorf("Output = %q, expected the HEAD hash", result.Output)
	}

	wantCalls := [][]string{
		{"git", "clone", "https://github.com/acme/widget.git", "src"},
		{"git", "-C", "src", "rev-parse", "HEAD"},
	}
	if !reflect.DeepEqual(fake.calls, wantCalls) {
		t.Errorf("calls = %v, expected %v", fake.calls, wantCalls)
	}
}

func TestCheckout_RefAndDepth(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{}, {}, {stdout: "f00\n"},
	}}
	f := &CheckoutFactory{Runner: fake}

	action, err := f.Build(map[string]string{
		"url":   "https://github.com/acme/widget.git",
		"ref":   "v1.2.0",
		"depth": "1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := action.Execute(context.Background(), specWith(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := []string{"git", "clone", "--depth", "1", "https://github.com/acme/widget.git", "."}; !reflect.DeepEqual(fake.calls[0], want) {
		t.Errorf("clone = %v, expected %v", fake.calls[0], want)
	}
	if want := []string{"git", "-C", ".", "checkout", "v1.2.0"}; !reflect.DeepEqual(fake.calls[1], want) {
		t.Errorf("checkout = %v, expected %v", fake.calls[1], want)
	}
}

func TestCheckout_RefFromMatrix(t *testing.T) {
	// Ref может ссылаться на измерение: каждая ветка матрицы проверяет
	// свою ревизию.
	fake := &fakeRunner{responses: []fakeResponse{{}, {}, {stdout: "aa\n"}}}
	f := &CheckoutFactory{Runner: fake}

	action, err := f.Build(map[string]string{
		"url": "https://github.com/acme/widget.git",
		"ref": "${matrix.branch}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spec := specWith(t, matrix.Dimension{Name: "branch", Values: []string{"release-2.1"}})
	if _, err := action.Execute(context.Background(), spec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := fake.calls[1][4]; got != "release-2.1" {
		t.Errorf("checkout ref = %q, expected release-2.1", got)
	}
}

func TestCheckout_Submodules(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{}, {}, {stdout: "beef\n"},
	}}
	f := &CheckoutFactory{Runner: fake}

	action, err := f.Build(map[string]string{
		"url":        "https://github.com/acme/widget.git",
		"submodules": "true",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := action.Execute(context.Background(), specWith(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"git", "-C", ".", "submodule", "update", "--init", "--recursive"}
	if !reflect.DeepEqual(fake.calls[1], want) {
		t.Errorf("submodule update = %v, expected %v", fake.calls[1], want)
	}
}

func TestCheckout_CloneFails(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{stderr: "fatal: repository not found\n", code: 128},
	}}
	f := &CheckoutFactory{Runner: fake}

	action, err := f.Build(map[string]string{"url": "https://github.com/acme/missing.git"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("a git failure is not an infrastructure error: %v", err)
	}
	if !strings.Contains(result.Error, "exit code 128") || !strings.Contains(result.Error, "repository not found") {
		t.Errorf("result.Error = %q", result.Error)
	}
	if len(fake.calls) != 1 {
		t.Errorf("no commands should run after a failed clone, got %d calls", len(fake.calls))
	}
}

func TestCheckout_InvalidOptions(t *testing.T) {
	f := NewCheckoutFactory()

	if _, err := f.Build(map[string]string{}); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("no url: expected ErrInvalidOptions, got %v", err)
	}
	if _, err := f.Build(map[string]string{"url": "x", "depth": "-1"}); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("depth=-1: expected ErrInvalidOptions, got %v", err)
	}
	if _, err := f.Build(map[string]string{"url": "x", "depth": "full"}); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("depth=full: expected ErrInvalidOptions, got %v", err)
	}
	if _, err := f.Build(map[string]string{"url": "x", "submodules": "yep"}); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("submodules=yep: expected ErrInvalidOptions, got %v", err)
	}
}

// Toolchain Step Tests

func TestToolchain_Found(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{stdout: "go version go1.24.6 linux/amd64\n"},
	}}
	f := &ToolchainFactory{Runner: fake}

	action, err := f.Build(map[string]string{"name": "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("result.Error = %q, expected success", result.Error)
	}
	if result.Output != "go version go1.24.6 linux/amd64" {
		t.Errorf("Output = %q", result.Output)
	}
}

func TestToolchain_NotFound(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{{code: 127}}}
	f := &ToolchainFactory{Runner: fake}

	action, _ := f.Build(map[string]string{"name": "zig"})
	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("a missing tool is a step failure, not an error: %v", err)
	}
	if !strings.Contains(result.Error, `"zig" not found in PATH`) {
		t.Errorf("result.Error = %q", result.Error)
	}
}

func TestToolchain_VersionMismatch(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{stdout: "go version go1.22.1 linux/amd64\n"},
	}}
	f := &ToolchainFactory{Runner: fake}

	action, _ := f.Build(map[string]string{"name": "go", "version": "1.24"})
	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Error, "version mismatch") {
		t.Errorf("result.Error = %q, expected version mismatch", result.Error)
	}
}

func TestToolchain_VersionFromMatrix(t *testing.T) {
	fake := &fakeRunner{responses: []fakeResponse{
		{stdout: "go version go1.24.6 linux/amd64\n"},
	}}
	f := &ToolchainFactory{Runner: fake}

	action, _ := f.Build(map[string]string{"name": "go", "version": "${matrix.go}"})
	spec := specWith(t, matrix.Dimension{Name: "go", Values: []string{"1.24"}})

	result, err := action.Execute(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("result.Error = %q, version 1.24 is in the output", result.Error)
	}
}

func TestToolchain_VersionOnStderr(t *testing.T) {
	// Часть инструментов печатает версию в stderr.
	fake := &fakeRunner{responses: []fakeResponse{
		{stderr: "openjdk 17.0.2 2022-01-18\n"},
	}}
	f := &ToolchainFactory{Runner: fake}

	action, _ := f.Build(map[string]string{"name": "java", "version": "17"})
	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("result.Error = %q, version on stderr must count", result.Error)
	}
}

// Cache Step Tests

func TestCache_SaveThenRestore(t *testing.T) {
	store := t.TempDir()
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "lib.rlib"), []byte("artifact"), 0o644); err != nil {
		t.Fatal(err)
	}

	spec := specWith(t, matrix.Dimension{Name: "features", Values: []string{"default"}})
	opts := map[string]string{
		"key":   "deps-${matrix.features}",
		"path":  src,
		"store": store,
	}

	saveAction, err := NewCacheSaveFactory().Build(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err := saveAction.Execute(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "cache saved: deps-default") {
		t.Errorf("Output = %q", result.Output)
	}

	// Восстанавливаем в чистую директорию
	dest := filepath.Join(t.TempDir(), "restored")
	opts["path"] = dest
	restoreAction, err := NewCacheRestoreFactory().Build(opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result, err = restoreAction.Execute(context.Background(), spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Output, "cache hit: deps-default") {
		t.Errorf("Output = %q, expected a cache hit", result.Output)
	}

	data, err := os.ReadFile(filepath.Join(dest, "lib.rlib"))
	if err != nil {
		t.Fatalf("file not restored: %v", err)
	}
	if string(data) != "artifact" {
		t.Errorf("content = %q, expected artifact", data)
	}
}

func TestCache_FactoryStoreFallback(t *testing.T) {
	store := t.TempDir()
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "out.bin"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// store не задан в опциях — используется значение фабрики.
	save := &CacheSaveFactory{Store: store}
	action, err := save.Build(map[string]string{"key": "bin", "path": src})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := action.Execute(context.Background(), specWith(t)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store, "bin", "out.bin")); err != nil {
		t.Errorf("artifact did not land in the factory store: %v", err)
	}
}

func TestCacheRestore_Miss(t *testing.T) {
	action, err := NewCacheRestoreFactory().Build(map[string]string{
		"key":   "never-saved",
		"path":  t.TempDir(),
		"store": t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("a cache miss is not an error: %v", err)
	}
	if result.Error != "" {
		t.Errorf("a cache miss is not a step failure: %q", result.Error)
	}
	if !strings.Contains(result.Output, "cache miss") {
		t.Errorf("Output = %q, expected a cache miss", result.Output)
	}
}

func TestCacheSave_MissingPath(t *testing.T) {
	action, err := NewCacheSaveFactory().Build(map[string]string{
		"key":   "k",
		"path":  filepath.Join(t.TempDir(), "never-built"),
		"store": t.TempDir(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := action.Execute(context.Background(), specWith(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Error, "does not exist") {
		t.Errorf("result.Error = %q, expected a step failure", result.Error)
	}
}

func TestCache_MissingOptions(t *testing.T) {
	if _, err := NewCacheRestoreFactory().Build(map[string]string{"path": "x"}); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("no key: expected ErrInvalidOptions, got %v", err)
	}
	if _, err := NewCacheSaveFactory().Build(map[string]string{"key": "x"}); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("no path: expected ErrInvalidOptions, got %v", err)
	}
}

func TestCacheKey_Sanitized(t *testing.T) {
	spec := specWith(t, matrix.Dimension{Name: "features", Values: []string{"serde json"}})

	tests := []struct {
		in   string
		want string
	}{
		{"deps-${matrix.features}", "deps-serde-json"},
		{"a/../b", "a-..-b"},
		{"..", "default"},
		{"x:y*z", "x-y-z"},
	}
	for _, tt := range tests {
		if got := cacheKey(tt.in, spec); got != tt.want {
			t.Errorf("cacheKey(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

// Helper Functions Tests

func TestOptHelpers(t *testing.T) {
	opts := map[string]string{
		"s": "value",
		"n": "42",
		"b": "true",
	}

	// OptString
	if OptString(opts, "s", "def") != "value" {
		t.Error("OptString did not return the value")
	}
	if OptString(opts, "missing", "def") != "def" {
		t.Error("OptString did not return the default")
	}

	// OptRequired
	if _, err := OptRequired(opts, "step", "s"); err != nil {
		t.Errorf("OptRequired: %v", err)
	}
	if _, err := OptRequired(opts, "step", "missing"); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("OptRequired for a missing option: %v", err)
	}

	// OptInt
	if n, err := OptInt(opts, "step", "n", 0); err != nil || n != 42 {
		t.Errorf("OptInt = %d, %v", n, err)
	}
	if n, err := OptInt(opts, "step", "missing", 7); err != nil || n != 7 {
		t.Errorf("OptInt default = %d, %v", n, err)
	}
	if _, err := OptInt(opts, "step", "s", 0); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("OptInt for a non-number: %v", err)
	}

	// OptBool
	if b, err := OptBool(opts, "step", "b", false); err != nil || !b {
		t.Errorf("OptBool = %v, %v", b, err)
	}
	if b, err := OptBool(opts, "step", "missing", true); err != nil || !b {
		t.Errorf("OptBool default = %v, %v", b, err)
	}
	if _, err := OptBool(opts, "step", "s", false); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("OptBool for a non-boolean: %v", err)
	}
}
