package workflow

import (
	"sort"

	"trendpub/internal/faults"
)

// Registry maps workflow identifiers to instances. Membership is fixed at
// construction; there is no dynamic registration.
type Registry struct {
	entries map[Type]Workflow
}

// NewRegistry builds a registry from the given entries.
func NewRegistry(entries map[Type]Workflow) *Registry {
	copied := make(map[Type]Workflow, len(entries))
	for t, w := range entries {
		if w == nil {
			continue
		}
		copied[t] = w
	}
	return &Registry{entries: copied}
}

// Resolve returns the workflow registered under t, or a not-found fault.
func (r *Registry) Resolve(t Type) (Workflow, error) {
	w, ok := r.entries[t]
	if !ok {
		return nil, faults.NotFound("未知的工作流类型: %s", t)
	}
	return w, nil
}

// Types returns the registered identifiers in stable order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.entries))
	for t := range r.entries {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
