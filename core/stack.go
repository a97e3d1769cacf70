package core

import (
	"fmt"

	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/specs"
)

// SpecStack captures the wrapper chain of env, outermost layer first,
// terminated by the spec of the base environment
func SpecStack(env Env) (specs.Stack, error) {
	stack := specs.Stack{Wrappers: make([]specs.WrapperSpec, 0)}
	cur := env
	for {
		w, ok := cur.(Wrapped)
		if !ok {
			break
		}
		spec := w.WrapperSpec()
		if spec == nil {
			return specs.Stack{}, fmt.Errorf("%w: layer %d (%T)", gymerr.ErrMissingSpec, len(stack.Wrappers), cur)
		}
		stack.Wrappers = append(stack.Wrappers, spec.Clone())
		cur = w.Inner()
	}
	envSpec := cur.Spec()
	if envSpec == nil {
		return specs.Stack{}, fmt.Errorf("%w: base environment %T was not built by a registry", gymerr.ErrMissingSpec, cur)
	}
	stack.Env = envSpec.Clone()
	return stack, nil
}

// Layers lists env and every environment it wraps, outermost first
func Layers(env Env) []Env {
	out := []Env{env}
	for {
		w, ok := out[len(out)-1].(Wrapped)
		if !ok {
			return out
		}
		out = append(out, w.Inner())
	}
}

// HasWrapper checks whether a layer of the given versioned name is part of the chain
func HasWrapper(env Env, fullName string) bool {
	for _, layer := range Layers(env) {
		if w, ok := layer.(Wrapped); ok {
			if spec := w.WrapperSpec(); spec != nil && spec.FullName() == fullName {
				return true
			}
		}
	}
	return false
}
