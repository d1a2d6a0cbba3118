package matrix

import (
	"errors"
	"testing"
)

func TestNewRegistry_Valid(t *testing.T) {
	reg, err := NewRegistry(
		Dimension{Name: "check", Values: []string{"format", "clippy", "test"}},
		Dimension{Name: "features", Values: []string{"all", "default"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Порядок объявления сохраняется
	dims := reg.Dimensions()
	if len(dims) != 2 {
		t.Fatalf("expected 2 dimensions, got %d", len(dims))
	}
	if dims[0].Name != "check" || dims[1].Name != "features" {
		t.Errorf("declaration order not preserved: %s, %s", dims[0].Name, dims[1].Name)
	}

	if reg.Product() != 6 {
		t.Errorf("expected product 6, got %d", reg.Product())
	}
}

func TestNewRegistry_EmptyName(t *testing.T) {
	_, err := NewRegistry(Dimension{Name: "", Values: []string{"a"}})
	if !errors.Is(err, ErrEmptyDimensionName) {
		t.Errorf("expected ErrEmptyDimensionName, got %v", err)
	}
}

func TestNewRegistry_EmptyValues(t *testing.T) {
	_, err := NewRegistry(Dimension{Name: "check", Values: nil})
	if !errors.Is(err, ErrEmptyValues) {
		t.Errorf("expected ErrEmptyValues, got %v", err)
	}
}

func TestNewRegistry_DuplicateDimension(t *testing.T) {
	_, err := NewRegistry(
		Dimension{Name: "check", Values: []string{"format"}},
		Dimension{Name: "check", Values: []string{"test"}},
	)
	if !errors.Is(err, ErrDuplicateDimension) {
		t.Errorf("expected ErrDuplicateDimension, got %v", err)
	}
}

func TestNewRegistry_DuplicateValue(t *testing.T) {
	_, err := NewRegistry(Dimension{Name: "check", Values: []string{"test", "test"}})
	if !errors.Is(err, ErrDuplicateValue) {
		t.Errorf("expected ErrDuplicateValue, got %v", err)
	}
}

func TestRegistry_HasValue(t *testing.T) {
	reg, err := NewRegistry(Dimension{Name: "features", Values: []string{"all", "default"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reg.HasValue("features", "all") {
		t.Error("expected features/all to be known")
	}
	if reg.HasValue("features", "none") {
		t.Error("features/none should not be known")
	}
	if reg.HasValue("check", "all") {
		t.Error("unknown dimension should not have values")
	}
}

func TestRegistry_IsolatedFromCaller(t *testing.T) {
	values := []string{"all", "default"}
	reg, err := NewRegistry(Dimension{Name: "features", Values: values})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Мутация исходного слайса не должна влиять на Registry
	values[0] = "mutated"
	if !reg.HasValue("features", "all") {
		t.Error("registry should hold its own copy of values")
	}
}
