package steps

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр встроенных шагов.
//
// Позволяет регистрировать и получать фабрики по имени из поля uses.
// Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// DefaultRegistry создаёт реестр со всеми встроенными шагами.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(NewRunFactory())
	r.Register(NewCheckoutFactory())
	r.Register(NewToolchainFactory())
	r.Register(NewCacheRestoreFactory())
	r.Register(NewCacheSaveFactory())

	return r
}

// Register регистрирует фабрику в реестре.
// Если фабрика с таким uses уже существует, она будет перезаписана.
func (r *Registry) Register(factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[factory.Uses()] = factory
}

// Get возвращает фабрику по имени из uses.
// Возвращает ErrUnknownStep, если фабрика не найдена.
func (r *Registry) Get(uses string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[uses]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStep, uses)
	}

	return factory, nil
}

// Has проверяет, зарегистрирована ли фабрика.
func (r *Registry) Has(uses string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[uses]
	return exists
}

// Uses возвращает отсортированный список зарегистрированных имён.
func (r *Registry) Uses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count возвращает количество зарегистрированных фабрик.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factories)
}

// Unregister удаляет фабрику из реестра.
func (r *Registry) Unregister(uses string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, uses)
}
