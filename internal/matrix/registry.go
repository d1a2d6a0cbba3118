package matrix

import "fmt"

// Dimension — одна именованная ось матрицы.
type Dimension struct {
	// Name — имя измерения (например, "check", "features").
	Name string

	// Values — упорядоченный непустой список значений.
	// Порядок значений определяет порядок перечисления jobs.
	Values []string
}

// Registry — набор измерений матрицы в порядке объявления.
//
// Registry конструируется один раз из статической конфигурации
// и после этого не мутируется. Порядок измерений фиксирован:
// первое объявленное измерение меняется при развёртке медленнее всех.
type Registry struct {
	dims  []Dimension
	index map[string]int // имя измерения → позиция в dims
}

// NewRegistry создаёт Registry из списка измерений.
//
// Валидация (ошибки конфигурации, до генерации jobs):
//   - имя измерения непустое и уникально
//   - список значений непуст
//   - значения внутри измерения не повторяются
func NewRegistry(dims ...Dimension) (*Registry, error) {
	r := &Registry{
		dims:  make([]Dimension, 0, len(dims)),
		index: make(map[string]int, len(dims)),
	}

	for _, dim := range dims {
		if dim.Name == "" {
			return nil, NewConfigError("", "", "dimension name is required", ErrEmptyDimensionName)
		}
		if _, exists := r.index[dim.Name]; exists {
			return nil, NewConfigError(dim.Name, "",
				fmt.Sprintf("dimension %q declared twice", dim.Name), ErrDuplicateDimension)
		}
		if len(dim.Values) == 0 {
			return nil, NewConfigError(dim.Name, "",
				fmt.Sprintf("dimension %q has no values", dim.Name), ErrEmptyValues)
		}

		seen := make(map[string]bool, len(dim.Values))
		for _, v := range dim.Values {
			if seen[v] {
				return nil, NewConfigError(dim.Name, v,
					fmt.Sprintf("value %q repeats in dimension %q", v, dim.Name), ErrDuplicateValue)
			}
			seen[v] = true
		}

		// Копируем значения, чтобы Registry не зависел от мутаций у вызывающего.
		cp := Dimension{Name: dim.Name, Values: append([]string(nil), dim.Values...)}
		r.index[dim.Name] = len(r.dims)
		r.dims = append(r.dims, cp)
	}

	return r, nil
}

// Dimensions возвращает измерения в порядке объявления.
func (r *Registry) Dimensions() []Dimension {
	return append([]Dimension(nil), r.dims...)
}

// Has возвращает true, если измерение с таким именем объявлено.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// HasValue возвращает true, если значение принадлежит множеству измерения.
func (r *Registry) HasValue(name, value string) bool {
	i, ok := r.index[name]
	if !ok {
		return false
	}
	for _, v := range r.dims[i].Values {
		if v == value {
			return true
		}
	}
	return false
}

// Len возвращает количество измерений.
func (r *Registry) Len() int {
	return len(r.dims)
}

// Product возвращает размер полного декартова произведения
// (до применения исключений).
func (r *Registry) Product() int {
	total := 1
	for _, dim := range r.dims {
		total *= len(dim.Values)
	}
	return total
}
