package steps

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

const (
	// UsesCheckout — имя шага клонирования репозитория.
	UsesCheckout = "checkout"

	// Ключи опций checkout.
	optURL        = "url"
	optRef        = "ref"
	optDepth      = "depth"
	optSubmodules = "submodules"
)

// CheckoutFactory — шаг получения исходников из git.
//
// Клонирует репозиторий в рабочую директорию, опционально переключаясь
// на указанный ref. Провал любой git-команды — провал шага: git пишет
// причину в stderr, её последняя строка попадает в результат.
//
// Опции:
//
//	url: https://github.com/acme/widget.git   # обязательная
//	ref: main            # ветка, тег или коммит
//	dir: src             # по умолчанию "."
//	depth: "1"           # shallow clone, 0 — полная история
//	submodules: "true"   # git submodule update --init --recursive
type CheckoutFactory struct {
	// Runner подменяет исполнителя команд. Nil — ExecRunner
	// с окружением матрицы.
	Runner runner.CommandRunner
}

// NewCheckoutFactory создаёт фабрику шага checkout.
func NewCheckoutFactory() *CheckoutFactory {
	return &CheckoutFactory{}
}

// Uses возвращает имя шага.
func (f *CheckoutFactory) Uses() string {
	return UsesCheckout
}

// Build собирает действие из опций.
func (f *CheckoutFactory) Build(opts map[string]string) (runner.Action, error) {
	url, err := OptRequired(opts, UsesCheckout, optURL)
	if err != nil {
		return nil, err
	}
	depth, err := OptInt(opts, UsesCheckout, optDepth, 0)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, fmt.Errorf("%w: %s: option %q must not be negative", ErrInvalidOptions, UsesCheckout, optDepth)
	}
	submodules, err := OptBool(opts, UsesCheckout, optSubmodules, false)
	if err != nil {
		return nil, err
	}

	return &checkoutAction{
		url:        url,
		ref:        OptString(opts, optRef, ""),
		dir:        OptString(opts, optDir, "."),
		depth:      depth,
		submodules: submodules,
		runner:     f.Runner,
	}, nil
}

// checkoutAction клонирует репозиторий и сообщает полученный HEAD.
type checkoutAction struct {
	url        string
	ref        string
	dir        string
	depth      int
	submodules bool
	runner     runner.CommandRunner
}

func (a *checkoutAction) Execute(ctx context.Context, spec matrix.JobSpec) (*runner.ActionResult, error) {
	cmdRunner := a.runner
	if cmdRunner == nil {
		cmdRunner = runner.ExecRunner{Env: runner.MatrixEnv(spec)}
	}

	dir := matrix.Render(a.dir, spec)
	ref := matrix.Render(a.ref, spec)

	cloneArgs := []string{"clone"}
	if a.depth > 0 {
		cloneArgs = append(cloneArgs, "--depth", strconv.Itoa(a.depth))
	}
	cloneArgs = append(cloneArgs, a.url, dir)

	if result, err := a.git(ctx, cmdRunner, "clone", cloneArgs...); result != nil || err != nil {
		return result, err
	}

	if ref != "" {
		args := []string{"-C", dir, "checkout", ref}
		if result, err := a.git(ctx, cmdRunner, "checkout", args...); result != nil || err != nil {
			return result, err
		}
	}

	if a.submodules {
		args := []string{"-C", dir, "submodule", "update", "--init", "--recursive"}
		if result, err := a.git(ctx, cmdRunner, "submodule update", args...); result != nil || err != nil {
			return result, err
		}
	}

	stdout, stderr, code, err := cmdRunner.Run(ctx, "git", "-C", dir, "rev-parse", "HEAD")
	if code != 0 {
		return &runner.ActionResult{Error: fmt.Sprintf("git rev-parse: exit code %d: %s", code, lastLine(stderr, err))}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkout %s: %w", a.url, err)
	}

	head := strings.TrimSpace(string(stdout))
	return &runner.ActionResult{Output: fmt.Sprintf("checked out %s at %s", a.url, head)}, nil
}

// git выполняет одну git-команду. Ненулевой exit code возвращается как
// провал шага, ошибка запуска процесса — как инфраструктурная.
func (a *checkoutAction) git(ctx context.Context, cmdRunner runner.CommandRunner, what string, args ...string) (*runner.ActionResult, error) {
	_, stderr, code, err := cmdRunner.Run(ctx, "git", args...)
	if code != 0 {
		return &runner.ActionResult{
			Error: fmt.Sprintf("git %s: exit code %d: %s", what, code, lastLine(stderr, err)),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkout %s: %w", a.url, err)
	}
	return nil, nil
}
