package steps

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conveyor-ci/conveyor/internal/matrix"
	"github.com/conveyor-ci/conveyor/internal/runner"
)

const (
	// UsesCacheRestore — имя шага восстановления кэша.
	UsesCacheRestore = "cache-restore"

	// UsesCacheSave — имя шага сохранения кэша.
	UsesCacheSave = "cache-save"

	// Ключи опций кэша.
	optKey   = "key"
	optPath  = "path"
	optStore = "store"
)

// defaultStore — директория кэша, если store не задан.
func defaultStore() string {
	return filepath.Join(os.TempDir(), "conveyor-cache")
}

// CacheRestoreFactory — шаг восстановления файлового кэша.
//
// Копирует дерево store/<key> в path. Промах кэша — не провал шага:
// job продолжается с пустой директорией. Ключ обычно содержит
// ${matrix.*}, чтобы jobs матрицы не делили кэш.
//
// Опции:
//
//	key: deps-${matrix.features}   # обязательная
//	path: target                   # обязательная
//	store: /var/cache/conveyor     # по умолчанию TMPDIR/conveyor-cache
type CacheRestoreFactory struct {
	// Store — директория кэша, если опция store не задана.
	Store string
}

// NewCacheRestoreFactory создаёт фабрику шага cache-restore.
func NewCacheRestoreFactory() *CacheRestoreFactory {
	return &CacheRestoreFactory{}
}

// Uses возвращает имя шага.
func (f *CacheRestoreFactory) Uses() string {
	return UsesCacheRestore
}

// Build собирает действие из опций.
func (f *CacheRestoreFactory) Build(opts map[string]string) (runner.Action, error) {
	key, path, store, err := cacheOpts(UsesCacheRestore, opts, f.Store)
	if err != nil {
		return nil, err
	}
	return &cacheRestoreAction{key: key, path: path, store: store}, nil
}

type cacheRestoreAction struct {
	key   string
	path  string
	store string
}

func (a *cacheRestoreAction) Execute(ctx context.Context, spec matrix.JobSpec) (*runner.ActionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(a.key, spec)
	src := filepath.Join(a.store, key)

	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return &runner.ActionResult{Output: fmt.Sprintf("cache miss: %s", key)}, nil
	} else if err != nil {
		return nil, fmt.Errorf("restore cache %q: %w", key, err)
	}

	path := matrix.Render(a.path, spec)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("restore cache %q: %w", key, err)
	}
	if err := os.CopyFS(path, os.DirFS(src)); err != nil {
		return nil, fmt.Errorf("restore cache %q: %w", key, err)
	}

	return &runner.ActionResult{Output: fmt.Sprintf("cache hit: %s", key)}, nil
}

// CacheSaveFactory — шаг сохранения файлового кэша.
//
// Копирует дерево path в store/<key>, затирая прошлое содержимое
// ключа. Отсутствие path — провал шага: сборка не произвела то, что
// собиралась кэшировать.
//
// Опции совпадают с cache-restore.
type CacheSaveFactory struct {
	// Store — директория кэша, если опция store не задана.
	Store string
}

// NewCacheSaveFactory создаёт фабрику шага cache-save.
func NewCacheSaveFactory() *CacheSaveFactory {
	return &CacheSaveFactory{}
}

// Uses возвращает имя шага.
func (f *CacheSaveFactory) Uses() string {
	return UsesCacheSave
}

// Build собирает действие из опций.
func (f *CacheSaveFactory) Build(opts map[string]string) (runner.Action, error) {
	key, path, store, err := cacheOpts(UsesCacheSave, opts, f.Store)
	if err != nil {
		return nil, err
	}
	return &cacheSaveAction{key: key, path: path, store: store}, nil
}

type cacheSaveAction struct {
	key   string
	path  string
	store string
}

func (a *cacheSaveAction) Execute(ctx context.Context, spec matrix.JobSpec) (*runner.ActionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(a.key, spec)
	path := matrix.Render(a.path, spec)

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &runner.ActionResult{Error: fmt.Sprintf("cache-save: path %q does not exist", path)}, nil
	} else if err != nil {
		return nil, fmt.Errorf("save cache %q: %w", key, err)
	}

	dest := filepath.Join(a.store, key)
	if err := os.RemoveAll(dest); err != nil {
		return nil, fmt.Errorf("save cache %q: %w", key, err)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("save cache %q: %w", key, err)
	}
	if err := os.CopyFS(dest, os.DirFS(path)); err != nil {
		return nil, fmt.Errorf("save cache %q: %w", key, err)
	}

	return &runner.ActionResult{Output: fmt.Sprintf("cache saved: %s", key)}, nil
}

// cacheOpts извлекает общие опции шагов кэша. Приоритет store:
// опция шага, затем fallback фабрики, затем defaultStore.
func cacheOpts(uses string, opts map[string]string, fallback string) (key, path, store string, err error) {
	if key, err = OptRequired(opts, uses, optKey); err != nil {
		return "", "", "", err
	}
	if path, err = OptRequired(opts, uses, optPath); err != nil {
		return "", "", "", err
	}
	if fallback == "" {
		fallback = defaultStore()
	}
	return key, path, OptString(opts, optStore, fallback), nil
}

// cacheKey подставляет значения измерений и нормализует ключ до
// безопасного имени директории: всё вне [A-Za-z0-9._-] заменяется
// на дефис, так что ключ не может выйти за пределы store.
func cacheKey(key string, spec matrix.JobSpec) string {
	rendered := matrix.Render(key, spec)
	var b strings.Builder
	for _, r := range rendered {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	key = strings.Trim(b.String(), ".-")
	if key == "" {
		key = "default"
	}
	return key
}
