package xplot

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Function is a callable exposed to rule expressions.
type Function func(args ...any) (any, error)

// FunctionRegistry maps case-insensitive names to functions. It is safe for
// concurrent use; evaluators take a clone when configured.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// StandardFunctions returns a registry preloaded with the widget helpers:
//
//	span(lo, hi)       hi - lo, or null when either bound is unset
//	clamp(v, lo, hi)   v limited to [lo, hi]
//	isref(v)           whether v is an IPY_MODEL_ reference string
//	refid(v)           the widget id inside a reference string
func StandardFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()
	r.mustRegister("span", fnSpan)
	r.mustRegister("clamp", fnClamp)
	r.mustRegister("isref", fnIsRef)
	r.mustRegister("refid", fnRefID)
	return r
}

// Register stores fn under name. Names collide case-insensitively.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("xplot: function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("xplot: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	key := strings.ToLower(name)
	if _, exists := r.functions[key]; exists {
		return fmt.Errorf("xplot: function %q already registered", name)
	}
	r.functions[key] = fn
	return nil
}

func (r *FunctionRegistry) mustRegister(name string, fn Function) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Merge copies functions from other that r does not define yet.
func (r *FunctionRegistry) Merge(other *FunctionRegistry) {
	if r == nil || other == nil {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function, len(other.functions))
	}
	for name, fn := range other.functions {
		if _, exists := r.functions[name]; !exists {
			r.functions[name] = fn
		}
	}
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	clone := NewFunctionRegistry()
	clone.Merge(r)
	return clone
}

// Call executes the function registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("xplot: function registry is nil")
	}
	r.mu.RLock()
	fn := r.functions[strings.ToLower(name)]
	r.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("xplot: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bind returns a closure calling name, for engines that bind functions as
// globals.
func (r *FunctionRegistry) bind(name string) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		return r.Call(name, args...)
	}
}

// WithFunctionRegistry adds registry's functions to the model's default
// evaluator, next to the standard ones.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *modelConfig) {
		if registry == nil {
			return
		}
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		cfg.functions.Merge(registry)
	}
}

// WithCustomFunction registers fn under name for the model's default
// evaluator. A name already taken keeps its first function.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *modelConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}

func arity(name string, args []any, want int) error {
	if len(args) != want {
		return fmt.Errorf("xplot: %s expects %d arguments, got %d", name, want, len(args))
	}
	return nil
}

func numberArg(name string, value any) (float64, error) {
	f, ok := toFloat(value)
	if !ok {
		return 0, fmt.Errorf("%w: %s expects numbers, got %T", ErrTypeMismatch, name, value)
	}
	return f, nil
}

func fnSpan(args ...any) (any, error) {
	if err := arity("span", args, 2); err != nil {
		return nil, err
	}
	if args[0] == nil || args[1] == nil {
		return nil, nil
	}
	lo, err := numberArg("span", args[0])
	if err != nil {
		return nil, err
	}
	hi, err := numberArg("span", args[1])
	if err != nil {
		return nil, err
	}
	return hi - lo, nil
}

func fnClamp(args ...any) (any, error) {
	if err := arity("clamp", args, 3); err != nil {
		return nil, err
	}
	bounds := make([]float64, 3)
	for i, arg := range args {
		f, err := numberArg("clamp", arg)
		if err != nil {
			return nil, err
		}
		bounds[i] = f
	}
	v, lo, hi := bounds[0], bounds[1], bounds[2]
	if lo > hi {
		return nil, fmt.Errorf("xplot: clamp bounds out of order: %v > %v", lo, hi)
	}
	return min(max(v, lo), hi), nil
}

func fnIsRef(args ...any) (any, error) {
	if err := arity("isref", args, 1); err != nil {
		return nil, err
	}
	s, ok := args[0].(string)
	if !ok {
		return false, nil
	}
	_, ok = ParseReference(s)
	return ok, nil
}

func fnRefID(args ...any) (any, error) {
	if err := arity("refid", args, 1); err != nil {
		return nil, err
	}
	s, _ := args[0].(string)
	id, ok := ParseReference(s)
	if !ok {
		return nil, fmt.Errorf("%w: %v is not a widget reference", ErrTypeMismatch, args[0])
	}
	return id, nil
}
