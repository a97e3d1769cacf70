package registry

import (
	"fmt"
	"log"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/specs"
	"github.com/zeu5/gymkit/wrappers"
)

// FuncTable resolves callable references found in spec stacks. It is the
// only way functions are attached to deserialized callables.
type FuncTable map[string]any

type makeOptions struct {
	funcs           FuncTable
	maxEpisodeSteps *int
	autoreset       *bool
}

type MakeOption func(*makeOptions)

// WithFuncs provides the functions for callable references
func WithFuncs(funcs FuncTable) MakeOption {
	return func(o *makeOptions) {
		o.funcs = funcs
	}
}

// WithMaxEpisodeSteps overrides the step limit of the registered spec
func WithMaxEpisodeSteps(steps int) MakeOption {
	return func(o *makeOptions) {
		o.maxEpisodeSteps = &steps
	}
}

// WithAutoreset overrides the autoreset flag of the registered spec
func WithAutoreset(autoreset bool) MakeOption {
	return func(o *makeOptions) {
		o.autoreset = &autoreset
	}
}

func newMakeOptions(opts []MakeOption) *makeOptions {
	o := &makeOptions{funcs: FuncTable{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Make builds the environment registered under id with kwargs merged over
// the registered ones, then applies the default wrappers of its spec
func (r *Registry) Make(id string, kwargs specs.Kwargs, opts ...MakeOption) (core.Env, error) {
	o := newMakeOptions(opts)
	r.lock.RLock()
	spec, err := r.find(id)
	if err != nil {
		r.lock.RUnlock()
		return nil, err
	}
	factory, err := r.entryPoint(spec.EntryPoint)
	r.lock.RUnlock()
	if err != nil {
		return nil, err
	}

	spec.Kwargs = spec.Kwargs.Merge(kwargs)
	if o.maxEpisodeSteps != nil {
		spec.MaxEpisodeSteps = specs.IntPtr(*o.maxEpisodeSteps)
	}
	if o.autoreset != nil {
		spec.Autoreset = *o.autoreset
	}
	resolved, err := resolveKwargs(spec.Kwargs, o.funcs)
	if err != nil {
		return nil, err
	}

	env, err := r.build(factory, resolved, spec)
	if err != nil {
		return nil, err
	}
	wrapped, err := applyDefaults(env, spec)
	if err != nil {
		env.Close()
		return nil, err
	}
	return wrapped, nil
}

func (r *Registry) build(factory Factory, kwargs specs.Kwargs, spec specs.EnvSpec) (core.Env, error) {
	env, err := factory(kwargs)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", spec.ID, err)
	}
	if setter, ok := env.(core.SpecSetter); ok {
		setter.SetSpec(spec)
	} else {
		log.Printf("registry: environment %s (%T) does not accept a spec, its spec stack cannot be captured", spec.ID, env)
	}
	return env, nil
}

// applyDefaults wraps env with the layers requested by its spec, innermost first
func applyDefaults(env core.Env, spec specs.EnvSpec) (core.Env, error) {
	if spec.OrderEnforce {
		env = wrappers.NewOrderEnforcingV0(env)
	}
	if spec.MaxEpisodeSteps != nil {
		limited, err := wrappers.NewTimeLimitV0(env, *spec.MaxEpisodeSteps)
		if err != nil {
			return nil, err
		}
		env = limited
	}
	if spec.Autoreset {
		env = wrappers.NewAutoresetV0(env)
	}
	return env, nil
}

// MakeFromStack rebuilds an equivalent wrapper chain from a spec stack.
// Every layer and callable is resolved before anything is built. Default
// wrappers are not applied, they are part of the stack.
func (r *Registry) MakeFromStack(stack specs.Stack, opts ...MakeOption) (core.Env, error) {
	o := newMakeOptions(opts)

	layers := make([]specs.WrapperSpec, len(stack.Wrappers))
	for i, w := range stack.Wrappers {
		if _, err := r.catalog.Lookup(w.FullName()); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		kwargs, err := resolveKwargs(w.Kwargs, o.funcs)
		if err != nil {
			return nil, fmt.Errorf("layer %d (%s): %w", i, w.FullName(), err)
		}
		layers[i] = specs.WrapperSpec{Name: w.Name, Version: w.Version, Kwargs: kwargs}
	}

	envSpec := stack.Env.Clone()
	r.lock.RLock()
	if envSpec.EntryPoint == "" {
		registered, err := r.find(envSpec.ID)
		if err != nil {
			r.lock.RUnlock()
			return nil, err
		}
		envSpec.EntryPoint = registered.EntryPoint
	}
	factory, err := r.entryPoint(envSpec.EntryPoint)
	r.lock.RUnlock()
	if err != nil {
		return nil, err
	}
	envKwargs, err := resolveKwargs(envSpec.Kwargs, o.funcs)
	if err != nil {
		return nil, fmt.Errorf("env %s: %w", envSpec.ID, err)
	}

	env, err := r.build(factory, envKwargs, envSpec)
	if err != nil {
		return nil, err
	}
	for i := len(layers) - 1; i >= 0; i-- {
		wrapped, err := r.catalog.Build(env, layers[i])
		if err != nil {
			env.Close()
			return nil, fmt.Errorf("layer %d (%s): %w", i, layers[i].FullName(), err)
		}
		env = wrapped
	}
	return env, nil
}

// resolveKwargs attaches functions to opaque callable references
func resolveKwargs(kwargs specs.Kwargs, funcs FuncTable) (specs.Kwargs, error) {
	out := make(specs.Kwargs, len(kwargs))
	for name, v := range kwargs {
		resolved, err := resolveValue(v, funcs)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		out[name] = resolved
	}
	return out, nil
}

func resolveValue(v specs.Value, funcs FuncTable) (specs.Value, error) {
	switch v.Kind() {
	case specs.KindCallable:
		if v.Func() != nil {
			return v, nil
		}
		fn, ok := funcs[v.Ref()]
		if !ok || fn == nil {
			return specs.Value{}, fmt.Errorf("%w: %q", gymerr.ErrUnresolvedCallable, v.Ref())
		}
		return v.WithFunc(fn), nil
	case specs.KindList:
		list, _ := v.AsList()
		for i, e := range list {
			resolved, err := resolveValue(e, funcs)
			if err != nil {
				return specs.Value{}, err
			}
			list[i] = resolved
		}
		return specs.List(list...), nil
	case specs.KindMap:
		m, _ := v.AsMap()
		for k, e := range m {
			resolved, err := resolveValue(e, funcs)
			if err != nil {
				return specs.Value{}, err
			}
			m[k] = resolved
		}
		return specs.Map(m), nil
	}
	return v, nil
}
