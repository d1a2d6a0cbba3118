package matrix

import (
	"errors"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		Dimension{Name: "check", Values: []string{"format", "clippy", "test"}},
		Dimension{Name: "features", Values: []string{"all", "default"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return reg
}

func TestRule_Matches_Partial(t *testing.T) {
	reg := testRegistry(t)
	specs := Expand(reg, nil)

	// Правило с одной парой совпадает со всеми jobs этого значения
	rule := Rule{"check": "format"}

	matched := 0
	for _, spec := range specs {
		if rule.Matches(spec) {
			matched++
			if spec.Value("check") != "format" {
				t.Errorf("rule matched spec %s without check=format", spec)
			}
		}
	}
	if matched != 2 {
		t.Errorf("expected rule to match 2 specs (format/all, format/default), got %d", matched)
	}
}

func TestRule_Matches_AllPairsRequired(t *testing.T) {
	reg := testRegistry(t)
	specs := Expand(reg, nil)

	rule := Rule{"check": "format", "features": "all"}

	// Совпадение требует равенства КАЖДОЙ пары правила
	for _, spec := range specs {
		want := spec.Value("check") == "format" && spec.Value("features") == "all"
		if got := rule.Matches(spec); got != want {
			t.Errorf("spec %s: expected match=%v, got %v", spec, want, got)
		}
	}
}

func TestNewFilter_Valid(t *testing.T) {
	reg := testRegistry(t)

	f, err := NewFilter(reg, []Rule{{"check": "format", "features": "all"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Len() != 1 {
		t.Errorf("expected 1 rule, got %d", f.Len())
	}
}

func TestNewFilter_UnknownDimension(t *testing.T) {
	reg := testRegistry(t)

	_, err := NewFilter(reg, []Rule{{"platform": "linux"}})
	if !errors.Is(err, ErrUnknownDimension) {
		t.Errorf("expected ErrUnknownDimension, got %v", err)
	}

	// Ошибка несёт контекст
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if cfgErr.Dimension != "platform" {
		t.Errorf("expected dimension 'platform' in error, got %q", cfgErr.Dimension)
	}
}

func TestNewFilter_UnknownValue(t *testing.T) {
	reg := testRegistry(t)

	// Ошибка возникает при конструировании фильтра, а не при развёртке
	_, err := NewFilter(reg, []Rule{{"check": "fuzz"}})
	if !errors.Is(err, ErrUnknownValue) {
		t.Errorf("expected ErrUnknownValue, got %v", err)
	}
}

func TestNewFilter_EmptyRule(t *testing.T) {
	reg := testRegistry(t)

	_, err := NewFilter(reg, []Rule{{}})
	if !errors.Is(err, ErrEmptyRule) {
		t.Errorf("expected ErrEmptyRule, got %v", err)
	}
}

func TestFilter_IsolatedFromCaller(t *testing.T) {
	reg := testRegistry(t)

	rule := Rule{"check": "format", "features": "all"}
	f, err := NewFilter(reg, []Rule{rule})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Мутация исходного правила не должна влиять на фильтр
	rule["check"] = "test"

	specs := Expand(reg, f)
	for _, spec := range specs {
		if spec.Value("check") == "format" && spec.Value("features") == "all" {
			t.Error("filter should hold its own copy of rules")
		}
	}
}
