package statekit

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// Function is a helper callable from computed getter expressions.
type Function func(args ...any) (any, error)

var functionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedFunctionNames collide with expression bindings.
var reservedFunctionNames = map[string]bool{
	"state": true, "now": true, "args": true, "metadata": true, "manager": true, "call": true,
}

// FunctionRegistry holds named expression helpers. Names are identifiers and
// are matched exactly.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: map[string]Function{}}
}

// Register adds fn under name. Registering a name twice is an error.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	switch {
	case fn == nil:
		return fmt.Errorf("statekit: function %q is nil", name)
	case !functionName.MatchString(name):
		return fmt.Errorf("statekit: function name %q is not an identifier", name)
	case reservedFunctionNames[name]:
		return fmt.Errorf("statekit: function name %q is reserved", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = map[string]Function{}
	}
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("statekit: function %q already registered", name)
	}
	r.functions[name] = fn
	return nil
}

// Lookup returns the helper registered under name.
func (r *FunctionRegistry) Lookup(name string) (Function, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.functions[name]
	return fn, ok
}

// Call runs the helper registered under name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("statekit: function %q not registered", name)
	}
	return fn(args...)
}

// Names returns the registered names in sorted order.
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

// Len reports how many helpers are registered.
func (r *FunctionRegistry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.functions)
}

// Clone returns an independent copy. Cloning nil yields nil.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{functions: make(map[string]Function, len(r.functions))}
	for name, fn := range r.functions {
		out.functions[name] = fn
	}
	return out
}

// WithFunctionRegistry exposes the helpers of registry to computed getters.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		cfg.functions = registry.Clone()
	}
}

// WithFunction registers one helper for computed getters. An invalid or
// duplicate name makes New fail.
func WithFunction(name string, fn Function) Option {
	return func(cfg *config) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		if err := cfg.functions.Register(name, fn); err != nil {
			cfg.errs = append(cfg.errs, err)
		}
	}
}
