package runner

import (
	"context"

	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// Action — интерфейс выполнения действия одного шага.
//
// Реализации: ShellAction (shell-команда), действия встроенных шагов
// (checkout, toolchain, cache) и проверки гигиены репозитория.
//
// Инфраструктурные ошибки (не удалось запустить процесс) возвращаются
// через error. Логические (команда отработала и вернула ненулевой
// exit code) — через ActionResult.Error. Для job обе означают
// падение шага; разделение сохраняется ради диагностики.
type Action interface {
	Execute(ctx context.Context, spec matrix.JobSpec) (*ActionResult, error)
}

// ActionResult — результат выполнения действия.
type ActionResult struct {
	// Output — собранный stdout (может быть усечён для хранения).
	Output string

	// Error — сообщение о логической ошибке выполнения.
	// Пустая строка — действие завершилось успешно.
	Error string
}

// ActionFunc — адаптер, позволяющий использовать функцию как Action.
type ActionFunc func(ctx context.Context, spec matrix.JobSpec) (*ActionResult, error)

// Execute реализует интерфейс Action.
func (f ActionFunc) Execute(ctx context.Context, spec matrix.JobSpec) (*ActionResult, error) {
	return f(ctx, spec)
}
