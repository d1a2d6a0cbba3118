package hygiene

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

// markersAction ищет маркеры конфликтов слияния в отслеживаемых файлах.
//
// Список файлов берётся из git ls-files: непроиндексированный мусор
// проверку не волнует. Маркером считается строка, начинающаяся с
// "<<<<<<< " или ">>>>>>> ", либо состоящая ровно из "=======".
type markersAction struct {
	root   string
	runner runner.CommandRunner
}

func (a *markersAction) Execute(ctx context.Context, _ matrix.JobSpec) (*runner.ActionResult, error) {
	cmdRunner := a.runner
	if cmdRunner == nil {
		cmdRunner = runner.ExecRunner{}
	}

	stdout, stderr, code, err := cmdRunner.Run(ctx, "git", "-C", a.root, "ls-files")
	if code != 0 {
		return &runner.ActionResult{
			Error: fmt.Sprintf("git ls-files: exit code %d: %s", code, lastLine(stderr, err)),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conflict markers: %w", err)
	}

	var violations []string
	checked := 0
	for _, name := range strings.Split(string(stdout), "\n") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		data, err := os.ReadFile(filepath.Join(a.root, name))
		if err != nil {
			// Файл числится в индексе, но отсутствует в рабочей копии
			continue
		}
		if bytes.IndexByte(data, 0) >= 0 {
			// Бинарный файл
			continue
		}

		checked++
		violations = append(violations, scanMarkers(name, data)...)
	}

	if len(violations) > 0 {
		return &runner.ActionResult{
			Error: fmt.Sprintf("%d conflict marker(s) found: %s",
				len(violations), summarize(violations, 10)),
		}, nil
	}

	return &runner.ActionResult{
		Output: fmt.Sprintf("no conflict markers in %d tracked file(s)", checked),
	}, nil
}

// scanMarkers возвращает нарушения вида "path:line" для каждого
// маркера конфликта в содержимом файла.
func scanMarkers(name string, data []byte) []string {
	var found []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		if isConflictMarker(scanner.Text()) {
			found = append(found, fmt.Sprintf("%s:%d", name, n))
		}
	}
	return found
}

// isConflictMarker проверяет строку на маркер конфликта в её начале.
func isConflictMarker(line string) bool {
	return strings.HasPrefix(line, "<<<<<<< ") ||
		strings.HasPrefix(line, ">>>>>>> ") ||
		line == "======="
}
