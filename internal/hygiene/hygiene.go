package hygiene

import (
	"strings"

	"github.com/conveyor-ci/conveyor/internal/domain"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

// defaultHeaderDepth — сколько первых строк сканировать, если
// header_depth не задан.
const defaultHeaderDepth = 5

// Steps собирает включённые проверки гигиены в шаги для runner.
//
// Порядок фиксирован: authors, headers, conflict-markers. Проверка
// маркеров включена всегда — её наличие не зависит от настроек.
// Выполняются шаги как обычный job: первый провал останавливает
// остальные проверки.
func Steps(def *domain.HygieneDef, root string, cmdRunner runner.CommandRunner) ([]runner.Step, error) {
	if def == nil {
		return nil, ErrNoChecks
	}
	if root == "" {
		root = "."
	}

	var out []runner.Step

	if def.AuthorsFile != "" {
		allowed := make(map[string]bool, len(def.AllowedAuthors))
		for _, a := range def.AllowedAuthors {
			allowed[a] = true
		}
		out = append(out, runner.Step{
			Label: "authors",
			Action: &authorsAction{
				root:        root,
				authorsFile: def.AuthorsFile,
				allowed:     allowed,
				runner:      cmdRunner,
			},
		})
	}

	if def.Header != "" {
		if len(def.Extensions) == 0 {
			return nil, ErrNoExtensions
		}
		depth := def.HeaderDepth
		if depth <= 0 {
			depth = defaultHeaderDepth
		}
		exts := make(map[string]bool, len(def.Extensions))
		for _, e := range def.Extensions {
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			exts[e] = true
		}
		out = append(out, runner.Step{
			Label: "headers",
			Action: &headersAction{
				root:   root,
				header: def.Header,
				depth:  depth,
				exts:   exts,
			},
		})
	}

	out = append(out, runner.Step{
		Label:  "conflict-markers",
		Action: &markersAction{root: root, runner: cmdRunner},
	})

	return out, nil
}
