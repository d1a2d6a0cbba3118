package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

const (
	// UsesToolchain — имя шага проверки инструмента.
	UsesToolchain = "toolchain"

	// Ключи опций toolchain.
	optName    = "name"
	optVersion = "version"
)

// ToolchainFactory — шаг проверки доступности инструмента.
//
// Запускает <name> --version и убеждается, что инструмент есть в PATH.
// Если задана version, вывод должен содержать её как подстроку —
// так матрица с измерением версий ловит агент с не той версией до
// запуска настоящих команд.
//
// Опции:
//
//	name: go                      # обязательная
//	version: ${matrix.go}         # опционально
type ToolchainFactory struct {
	// Runner подменяет исполнителя команд. Nil — ExecRunner
	// с окружением матрицы.
	Runner runner.CommandRunner
}

// NewToolchainFactory создаёт фабрику шага toolchain.
func NewToolchainFactory() *ToolchainFactory {
	return &ToolchainFactory{}
}

// Uses возвращает имя шага.
func (f *ToolchainFactory) Uses() string {
	return UsesToolchain
}

// Build собирает действие из опций.
func (f *ToolchainFactory) Build(opts map[string]string) (runner.Action, error) {
	name, err := OptRequired(opts, UsesToolchain, optName)
	if err != nil {
		return nil, err
	}

	return &toolchainAction{
		name:    name,
		version: OptString(opts, optVersion, ""),
		runner:  f.Runner,
	}, nil
}

type toolchainAction struct {
	name    string
	version string
	runner  runner.CommandRunner
}

func (a *toolchainAction) Execute(ctx context.Context, spec matrix.JobSpec) (*runner.ActionResult, error) {
	cmdRunner := a.runner
	if cmdRunner == nil {
		cmdRunner = runner.ExecRunner{Env: runner.MatrixEnv(spec)}
	}

	stdout, stderr, code, err := cmdRunner.Run(ctx, a.name, "--version")
	if code == 127 {
		return &runner.ActionResult{Error: fmt.Sprintf("toolchain %q not found in PATH", a.name)}, nil
	}
	if code != 0 {
		return &runner.ActionResult{
			Error: fmt.Sprintf("%s --version: exit code %d: %s", a.name, code, lastLine(stderr, err)),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("toolchain %s: %w", a.name, err)
	}

	reported := firstLine(stdout, stderr)
	if want := matrix.Render(a.version, spec); want != "" && !strings.Contains(reported, want) {
		return &runner.ActionResult{
			Output: reported,
			Error:  fmt.Sprintf("toolchain %q version mismatch: want %q, have %q", a.name, want, reported),
		}, nil
	}

	return &runner.ActionResult{Output: reported}, nil
}

// firstLine возвращает первую непустую строку вывода: инструменты
// печатают версию либо в stdout, либо в stderr.
func firstLine(stdout, stderr []byte) string {
	for _, out := range [][]byte{stdout, stderr} {
		for _, line := range strings.Split(string(out), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				return line
			}
		}
	}
	return ""
}
