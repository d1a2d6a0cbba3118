package hygiene

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

// headersAction проверяет, что исходные файлы несут строку copyright
// в первых depth строках. Проверяются только файлы с расширениями из
// exts; скрытые директории и .git пропускаются целиком.
type headersAction struct {
	root   string
	header string
	depth  int
	exts   map[string]bool
}

func (a *headersAction) Execute(ctx context.Context, _ matrix.JobSpec) (*runner.ActionResult, error) {
	var violations []string
	checked := 0

	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if name := d.Name(); path != a.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !a.exts[filepath.Ext(path)] {
			return nil
		}

		checked++
		ok, err := fileHasHeader(path, a.header, a.depth)
		if err != nil {
			return err
		}
		if !ok {
			rel, relErr := filepath.Rel(a.root, path)
			if relErr != nil {
				rel = path
			}
			violations = append(violations, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("headers: %w", err)
	}

	if len(violations) > 0 {
		return &runner.ActionResult{
			Error: fmt.Sprintf("%d file(s) missing copyright header: %s",
				len(violations), summarize(violations, 10)),
		}, nil
	}

	return &runner.ActionResult{
		Output: fmt.Sprintf("header present in all %d checked file(s)", checked),
	}, nil
}

// fileHasHeader ищет подстроку header в первых depth строках файла.
func fileHasHeader(path, header string, depth int) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for i := 0; i < depth && scanner.Scan(); i++ {
		if strings.Contains(scanner.Text(), header) {
			return true, nil
		}
	}
	return false, scanner.Err()
}

// summarize перечисляет первые limit элементов, сворачивая хвост
// в "+N more".
func summarize(items []string, limit int) string {
	if len(items) <= limit {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(items[:limit], ", "), len(items)-limit)
}
