package tool

import (
	"fmt"
	"sync"
)

// Registry holds callable tools keyed by name.
// It is safe for concurrent use after construction; Register calls
// should happen before the registry is shared with a running graph.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]CallableTool
}

// NewRegistry creates a registry, registering any tools given.
// Panics on duplicate names, matching graph-builder validation style.
func NewRegistry(tools ...CallableTool) *Registry {
	r := &Registry{tools: make(map[string]CallableTool, len(tools))}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			panic(fmt.Sprintf("tool: %v", err))
		}
	}
	return r
}

// Register adds a tool to the registry.
func (r *Registry) Register(t CallableTool) error {
	decl := t.Declaration()
	if decl == nil || decl.Name == "" {
		return fmt.Errorf("tool declaration must have a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[decl.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicate, decl.Name)
	}
	r.tools[decl.Name] = t
	return nil
}

// Lookup returns the tool registered under name.
func (r *Registry) Lookup(name string) (CallableTool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return t, nil
}

// Declarations returns the declarations of all registered tools.
// The order is not guaranteed.
func (r *Registry) Declarations() []*Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decls := make([]*Declaration, 0, len(r.tools))
	for _, t := range r.tools {
		decls = append(decls, t.Declaration())
	}
	return decls
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
