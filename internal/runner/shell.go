package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/matrix"
)

// CommandRunner — абстракция запуска shell-команд.
// Подменяется в тестах фейковой реализацией.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, exitCode int32, err error)
}

// ExecRunner — запускает команды на локальном хосте через os/exec.
//
// Нулевое значение пригодно к использованию: команды выполняются
// в текущей директории с окружением процесса.
type ExecRunner struct {
	// Dir — рабочая директория команд. Пусто — текущая.
	Dir string

	// Env — дополнительные переменные окружения ("KEY=value").
	// Добавляются к окружению процесса.
	Env []string
}

// Run выполняет команду и возвращает stdout, stderr и exit code.
//
// Exit code: 0 — успех; код процесса при ненулевом завершении;
// 127 — бинарник не найден (exec.Error); 1 — прочие ошибки запуска.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.Dir
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), int32(exitErr.ExitCode()), err
	}

	exitCode := int32(1)
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		exitCode = 127
	}
	return stdout.Bytes(), stderr.Bytes(), exitCode, err
}

// ShellAction — действие шага: shell-команда, выполняемая через sh -c.
//
// Значения измерений job доступны команде через переменные окружения
// MATRIX_<ИМЯ> (имя измерения в верхнем регистре, не-алфанумерика → "_").
type ShellAction struct {
	// Command — текст команды. Плейсхолдеры ${matrix.<имя>}
	// подставляются значениями измерений job перед запуском.
	Command string

	// Dir — рабочая директория команды. Пустая — текущая.
	Dir string

	// Runner — исполнитель команд. Nil — ExecRunner{}.
	Runner CommandRunner
}

// Execute выполняет команду и переводит exit code в результат действия.
func (a *ShellAction) Execute(ctx context.Context, spec matrix.JobSpec) (*ActionResult, error) {
	if strings.TrimSpace(a.Command) == "" {
		return nil, ErrEmptyCommand
	}

	cmdRunner := a.Runner
	if cmdRunner == nil {
		cmdRunner = ExecRunner{Dir: a.Dir, Env: MatrixEnv(spec)}
	}

	command := matrix.Render(a.Command, spec)
	stdout, stderr, code, err := cmdRunner.Run(ctx, "sh", "-c", command)
	result := &ActionResult{Output: string(stdout)}

	if code != 0 {
		result.Error = fmt.Sprintf("exit code %d: %s", code, tail(stderr, err))
		return result, nil
	}
	if err != nil {
		// Процесс не запустился — инфраструктурная ошибка
		return result, fmt.Errorf("run %q: %w", command, err)
	}
	return result, nil
}

// MatrixEnv строит переменные окружения MATRIX_<ИМЯ>=значение из JobSpec.
func MatrixEnv(spec matrix.JobSpec) []string {
	names := spec.Dimensions()
	env := make([]string, 0, len(names))
	for _, name := range names {
		env = append(env, "MATRIX_"+envKey(name)+"="+spec.Value(name))
	}
	return env
}

// envKey нормализует имя измерения в ключ переменной окружения.
func envKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// tail возвращает последнюю непустую строку stderr для диагностики.
// Если stderr пуст, используется текст ошибки.
func tail(stderr []byte, err error) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	if err != nil {
		return err.Error()
	}
	return "no output"
}
