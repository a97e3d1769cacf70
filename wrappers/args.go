package wrappers

import (
	"fmt"

	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
)

// callableArg accepts a Go function, a specs.Func or a resolved callable Value
func callableArg(owner, arg string, fn any) (specs.Value, error) {
	if fn == nil {
		return specs.Value{}, gymerr.Argument(owner, arg, "a function is required")
	}
	v, err := specs.ValueOf(fn)
	if err != nil || v.Kind() != specs.KindCallable {
		return specs.Value{}, gymerr.Argument(owner, arg, "expected a function, actual type: %T", fn)
	}
	if v.Func() == nil {
		return specs.Value{}, fmt.Errorf("%w: %s(%s) references %q", gymerr.ErrUnresolvedCallable, owner, arg, v.Ref())
	}
	return v, nil
}

func optionalFloat(f *float64) specs.Value {
	if f == nil {
		return specs.Null()
	}
	return specs.Float(*f)
}

func floatList(values []float64) specs.Value {
	v, _ := specs.ValueOf(values)
	return v
}

func requireBox(owner string, s spaces.Space, what string) (*spaces.Box, error) {
	box, ok := s.(*spaces.Box)
	if !ok {
		return nil, gymerr.Argument(owner, "", "expected a Box %s space, actual space: %s", what, s)
	}
	return box, nil
}

// broadcast expands a single bound to n elements
func broadcast(owner, arg string, values []float64, n int) ([]float64, error) {
	switch len(values) {
	case n:
		return append([]float64{}, values...), nil
	case 1:
		out := make([]float64, n)
		for i := range out {
			out[i] = values[0]
		}
		return out, nil
	}
	return nil, gymerr.Argument(owner, arg, "expected 1 or %d values, actual length: %d", n, len(values))
}
