package prim

import (
	"fmt"
	"sort"

	"github.com/roach88/rcore/internal/engine"
	"github.com/roach88/rcore/internal/ir"
)

// Factory constructs a primitive from its node description. Factories only
// fix the port layout; parameter values are validated by the primitive's
// CheckParameters at build.
type Factory func(spec ir.NodeSpec) (engine.Primitive, error)

// Registry maps primitive kind names to factories.
//
// Thread-safety: populate before use; lookups are read-only afterwards.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry holding the generic primitive library.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(KindConst, newConst)
	r.Register(KindCounter, newCounter)
	r.Register(KindSelect, newSelect)
	r.Register(KindIsNull, newIsNull)
	r.Register(KindSetNull, newSetNull)
	r.Register(KindDelay, newDelay)
	r.Register(KindHistory, newHistory)
	r.Register(KindArray, newMakeArray)
	r.Register(KindIndex, newIndex)
	r.Register(KindSetIndex, newSetIndex)
	r.Register(KindSlice, newSlice)
	for _, op := range ir.BinaryOps {
		r.Register(string(op), binaryFactory(op))
	}
	for _, op := range ir.UnaryOps {
		r.Register(string(op), unaryFactory(op))
	}
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New constructs the primitive for spec.
//
// Errors are *engine.BuildError with ErrCodeInvalidParameter naming the node.
func (r *Registry) New(spec ir.NodeSpec) (engine.Primitive, error) {
	f, ok := r.factories[spec.Kind]
	if !ok {
		return nil, &engine.BuildError{
			Code:    engine.ErrCodeInvalidParameter,
			Node:    spec.Name,
			Message: fmt.Sprintf("unknown primitive kind %q", spec.Kind),
		}
	}
	p, err := f(spec)
	if err != nil {
		if engine.BuildCode(err) != "" {
			return nil, err
		}
		return nil, &engine.BuildError{
			Code:    engine.ErrCodeInvalidParameter,
			Node:    spec.Name,
			Message: spec.Kind,
			Err:     err,
		}
	}
	return p, nil
}
