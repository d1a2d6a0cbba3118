package matrix

import "errors"

// Ошибки валидации измерений.
var (
	// ErrEmptyDimensionName — измерение без имени.
	ErrEmptyDimensionName = errors.New("dimension has empty name")

	// ErrEmptyValues — измерение не содержит значений.
	ErrEmptyValues = errors.New("dimension has no values")

	// ErrDuplicateDimension — несколько измерений с одинаковым именем.
	ErrDuplicateDimension = errors.New("duplicate dimension name")

	// ErrDuplicateValue — повторяющееся значение внутри измерения.
	ErrDuplicateValue = errors.New("duplicate value in dimension")
)

// Ошибки валидации правил исключения.
var (
	// ErrEmptyRule — правило без единой пары (совпадало бы со всем).
	ErrEmptyRule = errors.New("exclusion rule is empty")

	// ErrUnknownDimension — правило ссылается на несуществующее измерение.
	ErrUnknownDimension = errors.New("rule references unknown dimension")

	// ErrUnknownValue — правило ссылается на значение вне множества измерения.
	ErrUnknownValue = errors.New("rule references unknown value")
)

// ConfigError — ошибка конфигурации матрицы с контекстом.
//
// Возникает только при конструировании Registry или Filter,
// до того как сгенерирован хотя бы один job.
type ConfigError struct {
	Dimension string // имя измерения, вызвавшего ошибку
	Value     string // значение, вызвавшее ошибку (если применимо)
	Message   string // описание ошибки
	Err       error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ConfigError) Error() string {
	if e.Dimension != "" {
		return "dimension " + e.Dimension + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError создаёт новую ошибку конфигурации.
func NewConfigError(dimension, value, message string, err error) *ConfigError {
	return &ConfigError{
		Dimension: dimension,
		Value:     value,
		Message:   message,
		Err:       err,
	}
}
