package matrix

import "testing"

func TestExpand_FullProduct(t *testing.T) {
	reg := testRegistry(t)
	specs := Expand(reg, nil)

	// 3 × 2 = 6, первое измерение меняется медленнее всех
	want := []string{
		"format/all",
		"format/default",
		"clippy/all",
		"clippy/default",
		"test/all",
		"test/default",
	}
	if len(specs) != len(want) {
		t.Fatalf("expected %d specs, got %d", len(want), len(specs))
	}
	for i, label := range want {
		if specs[i].Label() != label {
			t.Errorf("spec #%d: expected %s, got %s", i, label, specs[i].Label())
		}
	}
}

func TestExpand_ConcreteScenario(t *testing.T) {
	// check = [format, clippy, test], features = [all, default],
	// исключение {check: format, features: all} → ровно 5 jobs
	reg := testRegistry(t)
	f, err := NewFilter(reg, []Rule{{"check": "format", "features": "all"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	specs := Expand(reg, f)

	want := []string{
		"format/default",
		"clippy/all",
		"clippy/default",
		"test/all",
		"test/default",
	}
	if len(specs) != 5 {
		t.Fatalf("expected 5 specs, got %d", len(specs))
	}
	for i, label := range want {
		if specs[i].Label() != label {
			t.Errorf("spec #%d: expected %s, got %s", i, label, specs[i].Label())
		}
	}

	// format/all отсутствует
	for _, spec := range specs {
		if spec.Value("check") == "format" && spec.Value("features") == "all" {
			t.Error("excluded combination format/all survived expansion")
		}
	}
}

func TestExpand_Deterministic(t *testing.T) {
	reg := testRegistry(t)
	f, err := NewFilter(reg, []Rule{{"check": "format", "features": "all"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Два вызова с одинаковым входом дают одинаковую последовательность
	first := Expand(reg, f)
	second := Expand(reg, f)

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("spec #%d differs: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestExpand_ExcludedNeverSurvives(t *testing.T) {
	reg, err := NewRegistry(
		Dimension{Name: "check", Values: []string{"format", "clippy", "test"}},
		Dimension{Name: "features", Values: []string{"all", "default"}},
		Dimension{Name: "profile", Values: []string{"debug", "release"}},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := NewFilter(reg, []Rule{
		{"check": "format"},
		{"features": "all", "profile": "debug"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Ни один выживший spec не совпадает ни с одним правилом фильтра
	for _, spec := range Expand(reg, f) {
		if f.Matches(spec) {
			t.Errorf("spec %s matches an exclusion rule but survived", spec)
		}
	}
}

func TestExpand_OverlappingRulesCountOnce(t *testing.T) {
	reg := testRegistry(t)

	// Правила перекрываются на format/all; кандидат выбрасывается один раз:
	// matched = {format/all, format/default, clippy/all, test/all} → 6 - 4 = 2
	f, err := NewFilter(reg, []Rule{
		{"check": "format"},
		{"features": "all"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	specs := Expand(reg, f)
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
	if specs[0].Label() != "clippy/default" || specs[1].Label() != "test/default" {
		t.Errorf("unexpected survivors: %s, %s", specs[0].Label(), specs[1].Label())
	}
}

func TestExpand_NoDimensions(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Пустая матрица — ровно один пустой JobSpec (единственный job)
	specs := Expand(reg, nil)
	if len(specs) != 1 {
		t.Fatalf("expected 1 spec, got %d", len(specs))
	}
	if specs[0].Label() != "" {
		t.Errorf("expected empty label, got %q", specs[0].Label())
	}
	if len(specs[0].Dimensions()) != 0 {
		t.Errorf("expected no dimensions, got %v", specs[0].Dimensions())
	}
}

func TestExpand_SingleDimension(t *testing.T) {
	reg, err := NewRegistry(Dimension{Name: "check", Values: []string{"format", "clippy", "test"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	specs := Expand(reg, nil)
	if len(specs) != 3 {
		t.Fatalf("expected 3 specs, got %d", len(specs))
	}
	for i, want := range []string{"format", "clippy", "test"} {
		if specs[i].Label() != want {
			t.Errorf("spec #%d: expected %s, got %s", i, want, specs[i].Label())
		}
	}
}
