package pipeline

import "errors"

// Ошибки структуры определения.
var (
	// ErrEmptyName — pipeline без имени.
	ErrEmptyName = errors.New("pipeline has no name")

	// ErrNoSteps — pipeline без шагов.
	ErrNoSteps = errors.New("pipeline has no steps")

	// ErrEmptyStepName — шаг без имени.
	ErrEmptyStepName = errors.New("step has empty name")

	// ErrDuplicateStep — несколько шагов с одинаковым именем.
	ErrDuplicateStep = errors.New("duplicate step name")

	// ErrStepSource — шаг должен задавать ровно один источник: run или uses.
	ErrStepSource = errors.New("step must set exactly one of run or uses")

	// ErrNegativeParallel — max_parallel меньше нуля.
	ErrNegativeParallel = errors.New("max_parallel must not be negative")
)

// Ошибки разрешения ссылок на матрицу.
var (
	// ErrUnknownPlaceholder — плейсхолдер ссылается на необъявленное измерение.
	ErrUnknownPlaceholder = errors.New("placeholder references unknown dimension")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	Step    string // имя шага, где произошла ошибка (пусто для ошибок уровня pipeline)
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Step != "" {
		return "step " + e.Step + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(step, field, message string, err error) *ValidationError {
	return &ValidationError{
		Step:    step,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
