package matrix

import "strings"

// Expand — разворачивает матрицу в упорядоченный список JobSpec.
//
// Перечисление — декартово произведение значений в порядке объявления
// измерений: первое измерение меняется медленнее всех, последнее —
// быстрее всех. Кандидаты, совпавшие хотя бы с одним правилом фильтра,
// выбрасываются. Результат детерминирован: одинаковые Registry и Filter
// всегда дают одинаковую последовательность (и по составу, и по порядку).
//
// Матрица без измерений разворачивается в ровно один пустой JobSpec —
// pipeline без матрицы выполняется как единственный job.
//
// Expand не возвращает ошибку: вся валидация выполнена при
// конструировании Registry и Filter.
func Expand(registry *Registry, filter *Filter) []JobSpec {
	dims := registry.dims

	names := make([]string, len(dims))
	for i, dim := range dims {
		names[i] = dim.Name
	}

	specs := make([]JobSpec, 0, registry.Product())
	idx := make([]int, len(dims))

	for {
		spec := buildSpec(dims, names, idx)
		if !filter.Matches(spec) {
			specs = append(specs, spec)
		}

		// Одометр: крутим последнее измерение, перенос влево при переполнении.
		pos := len(dims) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(dims[pos].Values) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	return specs
}

// buildSpec собирает JobSpec по текущим индексам одометра.
func buildSpec(dims []Dimension, names []string, idx []int) JobSpec {
	values := make(map[string]string, len(dims))
	parts := make([]string, len(dims))
	for i, dim := range dims {
		v := dim.Values[idx[i]]
		values[dim.Name] = v
		parts[i] = v
	}
	return JobSpec{
		names:  names,
		values: values,
		label:  strings.Join(parts, "/"),
	}
}
