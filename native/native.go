// Package native holds the host procedures programs can call with
// cb(alias, ...).
package native

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Herwig9820/Justina-interpreter-sub002/object"
)

// MaxArgs is the maximum number of arguments passed to a callback.
const MaxArgs = 8

// Func is a native procedure. Arguments that were variables at the call
// site are written back after the call, so a callback may change them; it
// may not change their type from string to number or back.
type Func func(args []*object.Value) error

// Registry maps aliases to native procedures. It is safe for concurrent
// registration while no program runs.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

// Register adds a procedure under an alias.
func (r *Registry) Register(alias string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if alias == "" {
		return fmt.Errorf("native: empty alias")
	}
	if _, ok := r.funcs[alias]; ok {
		return fmt.Errorf("native: alias %q already registered", alias)
	}
	r.funcs[alias] = fn
	return nil
}

// Lookup returns the procedure registered under alias.
func (r *Registry) Lookup(alias string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[alias]
	return fn, ok
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
