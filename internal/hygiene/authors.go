package hygiene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

// authorsAction сверяет авторов коммитов с файлом AUTHORS.
//
// Автор берётся из git log в форме "Имя <email>" и должен совпасть
// со строкой AUTHORS целиком. Авторы из allowed (обычно боты)
// пропускаются — по полной строке или по имени.
type authorsAction struct {
	root        string
	authorsFile string
	allowed     map[string]bool
	runner      runner.CommandRunner
}

func (a *authorsAction) Execute(ctx context.Context, _ matrix.JobSpec) (*runner.ActionResult, error) {
	cmdRunner := a.runner
	if cmdRunner == nil {
		cmdRunner = runner.ExecRunner{}
	}

	stdout, stderr, code, err := cmdRunner.Run(ctx, "git", "-C", a.root, "log", "--format=%an <%ae>")
	if code != 0 {
		return &runner.ActionResult{
			Error: fmt.Sprintf("git log: exit code %d: %s", code, lastLine(stderr, err)),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("authors: %w", err)
	}

	listed, err := readAuthorsFile(filepath.Join(a.root, a.authorsFile))
	if err != nil {
		// Отсутствие или нечитаемость AUTHORS — провал проверки
		return &runner.ActionResult{
			Error: fmt.Sprintf("authors file %s: %v", a.authorsFile, err),
		}, nil
	}

	seen := make(map[string]bool)
	var missing []string
	total := 0
	for _, line := range strings.Split(string(stdout), "\n") {
		author := strings.TrimSpace(line)
		if author == "" || seen[author] {
			continue
		}
		seen[author] = true
		total++

		if listed[author] || a.allowed[author] || a.allowed[authorName(author)] {
			continue
		}
		missing = append(missing, author)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return &runner.ActionResult{
			Error: fmt.Sprintf("%d author(s) missing from %s: %s",
				len(missing), a.authorsFile, strings.Join(missing, ", ")),
		}, nil
	}

	return &runner.ActionResult{
		Output: fmt.Sprintf("%d commit author(s) verified against %s", total, a.authorsFile),
	}, nil
}

// readAuthorsFile читает AUTHORS в множество строк.
// Пустые строки и комментарии (#) пропускаются.
func readAuthorsFile(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = true
	}
	return set, nil
}

// authorName возвращает имя из строки "Имя <email>".
func authorName(author string) string {
	if i := strings.Index(author, " <"); i > 0 {
		return author[:i]
	}
	return author
}

// lastLine возвращает последнюю непустую строку stderr.
func lastLine(stderr []byte, err error) string {
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
