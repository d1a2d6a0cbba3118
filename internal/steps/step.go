package steps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/runner"
)

// Ошибки встроенных шагов.
var (
	// ErrUnknownStep — имя из uses не найдено в реестре.
	ErrUnknownStep = errors.New("unknown step")

	// ErrInvalidOptions — невалидные опции with.
	ErrInvalidOptions = errors.New("invalid step options")
)

// Factory — фабрика встроенного шага.
//
// Каждый встроенный шаг (checkout, toolchain, cache-restore,
// cache-save, run) реализует этот интерфейс.
type Factory interface {
	// Uses возвращает имя шага в поле uses пайплайна.
	Uses() string

	// Build собирает действие из опций with. Опции валидируются
	// здесь: ошибка сборки означает невалидный пайплайн, job с таким
	// шагом не стартует.
	Build(opts map[string]string) (runner.Action, error)
}

// OptString извлекает строковую опцию, возвращая def при отсутствии.
func OptString(opts map[string]string, key, def string) string {
	if v, ok := opts[key]; ok && v != "" {
		return v
	}
	return def
}

// OptRequired извлекает обязательную опцию.
// Возвращает ErrInvalidOptions, если опция отсутствует или пуста.
func OptRequired(opts map[string]string, uses, key string) (string, error) {
	if v, ok := opts[key]; ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s: option %q is required", ErrInvalidOptions, uses, key)
}

// OptInt извлекает числовую опцию, возвращая def при отсутствии.
// Возвращает ErrInvalidOptions, если значение не парсится как число.
func OptInt(opts map[string]string, uses, key string, def int) (int, error) {
	v, ok := opts[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: option %q: %q is not a number", ErrInvalidOptions, uses, key, v)
	}
	return n, nil
}

// OptBool извлекает булеву опцию, возвращая def при отсутствии.
func OptBool(opts map[string]string, uses, key string, def bool) (bool, error) {
	v, ok := opts[key]
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s: option %q: %q is not a boolean", ErrInvalidOptions, uses, key, v)
	}
	return b, nil
}

// lastLine возвращает последнюю непустую строку stderr — краткое
// описание провала для ActionResult.Error.
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
