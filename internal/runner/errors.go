package runner

import "errors"

// Ошибки выполнения шагов.
var (
	// ErrNoAction — шаг не содержит действия.
	ErrNoAction = errors.New("step has no action")

	// ErrEmptyCommand — shell-шаг с пустой командой.
	ErrEmptyCommand = errors.New("shell action has empty command")
)
