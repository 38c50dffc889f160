package xplot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownModel reports a model name with no registered factory.
	ErrUnknownModel = errors.New("xplot: unknown model")
	// ErrDuplicateModel reports a second factory for the same model name.
	ErrDuplicateModel = errors.New("xplot: model already registered")
)

// Factory builds a widget with the supplied options.
type Factory func(opts ...Option) (Widget, error)

// Registry maps frontend model names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register stores factory under modelName.
func (r *Registry) Register(modelName string, factory Factory) error {
	modelName = strings.TrimSpace(modelName)
	if modelName == "" {
		return fmt.Errorf("xplot: model name must not be empty")
	}
	if factory == nil {
		return fmt.Errorf("xplot: factory for %q is nil", modelName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[string]Factory)
	}
	if _, exists := r.factories[modelName]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateModel, modelName)
	}
	r.factories[modelName] = factory
	return nil
}

// New builds a widget of modelName.
func (r *Registry) New(modelName string, opts ...Option) (Widget, error) {
	r.mu.RLock()
	factory := r.factories[modelName]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, modelName)
	}
	return factory(opts...)
}

// Has reports whether modelName is registered.
func (r *Registry) Has(modelName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[modelName]
	return ok
}

// Names returns the registered model names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
