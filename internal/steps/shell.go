package steps

import (
	"github.com/conveyor-ci/conveyor/internal/runner"
)

const (
	// UsesRun — имя шага выполнения shell-команды.
	UsesRun = "run"

	// Ключи опций run.
	optCommand = "command"
	optDir     = "dir"
)

// RunFactory — шаг выполнения произвольной shell-команды.
//
// Команда запускается через sh -c; значения измерений job доступны ей
// как переменные окружения MATRIX_<ИЗМЕРЕНИЕ>. Ненулевой exit code —
// провал шага, а не ошибка инфраструктуры.
//
// Опции:
//
//	command: cargo test          # обязательная
//	dir: ./crates/core           # рабочая директория, по умолчанию текущая
type RunFactory struct {
	// Runner подменяет исполнителя команд. Nil — ExecRunner
	// с окружением матрицы.
	Runner runner.CommandRunner
}

// NewRunFactory создаёт фабрику шага run.
func NewRunFactory() *RunFactory {
	return &RunFactory{}
}

// Uses возвращает имя шага.
func (f *RunFactory) Uses() string {
	return UsesRun
}

// Build собирает действие из опций.
func (f *RunFactory) Build(opts map[string]string) (runner.Action, error) {
	command, err := OptRequired(opts, UsesRun, optCommand)
	if err != nil {
		return nil, err
	}

	return &runner.ShellAction{
		Command: command,
		Dir:     OptString(opts, optDir, ""),
		Runner:  f.Runner,
	}, nil
}
