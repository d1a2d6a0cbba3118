package matrix

import "fmt"

// Rule — правило исключения: частичное назначение измерений.
//
// Правило совпадает с JobSpec, если КАЖДАЯ пара (измерение, значение)
// правила равна соответствующей записи в JobSpec. Измерения, не названные
// в правиле, не участвуют в сравнении.
type Rule map[string]string

// Matches возвращает true, если правило совпадает с given spec.
func (r Rule) Matches(spec JobSpec) bool {
	for name, want := range r {
		got, ok := spec.Get(name)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// Filter — набор правил исключения, проверенный против Registry.
//
// Валидация происходит при конструировании (NewFilter), а не при
// сопоставлении: некорректная конфигурация обнаруживается до того,
// как сгенерирован хотя бы один job.
type Filter struct {
	rules []Rule
}

// NewFilter создаёт Filter из правил, проверяя каждое против registry.
//
// Ошибки конфигурации:
//   - правило без единой пары (совпадало бы с любым job)
//   - ссылка на необъявленное измерение
//   - ссылка на значение вне множества измерения
func NewFilter(registry *Registry, rules []Rule) (*Filter, error) {
	f := &Filter{rules: make([]Rule, 0, len(rules))}

	for i, rule := range rules {
		if len(rule) == 0 {
			return nil, NewConfigError("", "",
				fmt.Sprintf("exclusion rule #%d has no pairs", i+1), ErrEmptyRule)
		}
		for name, value := range rule {
			if !registry.Has(name) {
				return nil, NewConfigError(name, value,
					fmt.Sprintf("exclusion rule #%d references unknown dimension %q", i+1, name),
					ErrUnknownDimension)
			}
			if !registry.HasValue(name, value) {
				return nil, NewConfigError(name, value,
					fmt.Sprintf("exclusion rule #%d: value %q is not declared for dimension %q", i+1, value, name),
					ErrUnknownValue)
			}
		}

		// Копия правила: Filter не должен зависеть от мутаций у вызывающего.
		cp := make(Rule, len(rule))
		for k, v := range rule {
			cp[k] = v
		}
		f.rules = append(f.rules, cp)
	}

	return f, nil
}

// Matches возвращает true, если spec совпадает хотя бы с одним правилом.
func (f *Filter) Matches(spec JobSpec) bool {
	if f == nil {
		return false
	}
	for _, rule := range f.rules {
		if rule.Matches(spec) {
			return true
		}
	}
	return false
}

// Len возвращает количество правил в фильтре.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.rules)
}
