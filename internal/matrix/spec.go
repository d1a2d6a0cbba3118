package matrix

import "strings"

// JobSpec — полное назначение: каждому измерению ровно одно значение.
//
// JobSpec создаётся только развёрткой матрицы (Expand) и неизменяем.
// Отдаёт значения через методы; внутренние структуры наружу не утекают.
type JobSpec struct {
	names  []string          // имена измерений в порядке объявления
	values map[string]string // имя → назначенное значение
	label  string            // значения через "/" в порядке объявления
}

// Get возвращает значение измерения и признак его наличия.
func (s JobSpec) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Value возвращает значение измерения или пустую строку.
func (s JobSpec) Value(name string) string {
	return s.values[name]
}

// Label возвращает метку job: значения, соединённые "/" в порядке
// объявления измерений (например, "clippy/all"). Для пустой матрицы — "".
func (s JobSpec) Label() string {
	return s.label
}

// Dimensions возвращает имена измерений в порядке объявления.
func (s JobSpec) Dimensions() []string {
	return append([]string(nil), s.names...)
}

// Values возвращает копию назначения измерений.
func (s JobSpec) Values() map[string]string {
	cp := make(map[string]string, len(s.values))
	for k, v := range s.values {
		cp[k] = v
	}
	return cp
}

// Equal возвращает true, если оба spec задают одинаковое назначение
// в одинаковом порядке измерений.
func (s JobSpec) Equal(other JobSpec) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i, name := range s.names {
		if other.names[i] != name {
			return false
		}
		if s.values[name] != other.values[name] {
			return false
		}
	}
	return true
}

// String возвращает человекочитаемое представление "k=v,k=v"
// в порядке объявления измерений.
func (s JobSpec) String() string {
	if len(s.names) == 0 {
		return "{}"
	}
	var b strings.Builder
	for i, name := range s.names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(s.values[name])
	}
	return b.String()
}
