package runtime

import (
	"fmt"
	"sort"

	"github.com/xirelogy/go-lox/internal/value"
)

// Spec describes a native function installed into every new global scope.
type Spec struct {
	Name    string
	Arity   int
	Handler value.NativeHandler
}

var byName = map[string]Spec{}

// Register installs a native; it panics on a nil handler or duplicate name.
func Register(spec Spec) {
	if spec.Handler == nil {
		panic(fmt.Sprintf("builtin %s has nil handler", spec.Name))
	}
	if spec.Arity < 0 {
		panic(fmt.Sprintf("builtin %s has negative arity", spec.Name))
	}
	if _, exists := byName[spec.Name]; exists {
		panic(fmt.Sprintf("builtin %s already registered", spec.Name))
	}
	byName[spec.Name] = spec
}

// LookupByName finds a builtin by its script-visible name.
func LookupByName(name string) (Spec, bool) {
	spec, ok := byName[name]
	return spec, ok
}

// All returns all registered builtins ordered by name.
func All() []Spec {
	out := make([]Spec, 0, len(byName))
	for _, spec := range byName {
		out = append(out, spec)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}
