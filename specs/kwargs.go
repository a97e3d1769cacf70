package specs

import (
	"fmt"

	"github.com/zeu5/gymkit/gymerr"
)

// Kwargs are named constructor arguments
type Kwargs map[string]Value

// NewKwargs converts plain Go values, including functions, into Kwargs
func NewKwargs(values map[string]any) (Kwargs, error) {
	out := make(Kwargs, len(values))
	for k, v := range values {
		c, err := ValueOf(v)
		if err != nil {
			return nil, fmt.Errorf("%w: argument %q: %s", gymerr.ErrConstruction, k, err)
		}
		out[k] = c
	}
	return out, nil
}

// MustKwargs is NewKwargs that panics on error
func MustKwargs(values map[string]any) Kwargs {
	k, err := NewKwargs(values)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Kwargs) Clone() Kwargs {
	out := make(Kwargs, len(k))
	for name, v := range k {
		out[name] = v
	}
	return out
}

// Merge returns a copy of k overridden by o
func (k Kwargs) Merge(o Kwargs) Kwargs {
	out := k.Clone()
	for name, v := range o {
		out[name] = v
	}
	return out
}

func (k Kwargs) Keys() []string {
	return sortedKeys(k)
}

func (k Kwargs) Has(name string) bool {
	_, ok := k[name]
	return ok
}

func (k Kwargs) Equal(o Kwargs) bool {
	if len(k) != len(o) {
		return false
	}
	for name, v := range k {
		ov, ok := o[name]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

func (k Kwargs) HasCallable() bool {
	for _, v := range k {
		if v.HasCallable() {
			return true
		}
	}
	return false
}

func kindError(name string, want string, v Value) error {
	return fmt.Errorf("%w: argument %q expected %s, actual type: %s", gymerr.ErrConstruction, name, want, v.Kind())
}

// Int returns the named integer argument or def when it is absent
func (k Kwargs) Int(name string, def int) (int, error) {
	v, ok := k[name]
	if !ok || v.IsNull() {
		return def, nil
	}
	i, ok := v.AsInt()
	if !ok {
		return 0, kindError(name, "int", v)
	}
	return int(i), nil
}

// OptionalInt returns nil when the argument is absent or null
func (k Kwargs) OptionalInt(name string) (*int, error) {
	v, ok := k[name]
	if !ok || v.IsNull() {
		return nil, nil
	}
	i, ok := v.AsInt()
	if !ok {
		return nil, kindError(name, "int", v)
	}
	out := int(i)
	return &out, nil
}

func (k Kwargs) Float(name string, def float64) (float64, error) {
	v, ok := k[name]
	if !ok || v.IsNull() {
		return def, nil
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, kindError(name, "float", v)
	}
	return f, nil
}

func (k Kwargs) OptionalFloat(name string) (*float64, error) {
	v, ok := k[name]
	if !ok || v.IsNull() {
		return nil, nil
	}
	f, ok := v.AsFloat()
	if !ok {
		return nil, kindError(name, "float", v)
	}
	return &f, nil
}

func (k Kwargs) String(name string, def string) (string, error) {
	v, ok := k[name]
	if !ok || v.IsNull() {
		return def, nil
	}
	s, ok := v.AsString()
	if !ok {
		return "", kindError(name, "string", v)
	}
	return s, nil
}

func (k Kwargs) Bool(name string, def bool) (bool, error) {
	v, ok := k[name]
	if !ok || v.IsNull() {
		return def, nil
	}
	b, ok := v.AsBool()
	if !ok {
		return false, kindError(name, "bool", v)
	}
	return b, nil
}

// Floats accepts a number or a list of numbers. Returns nil when absent.
func (k Kwargs) Floats(name string) ([]float64, error) {
	v, ok := k[name]
	if !ok || v.IsNull() {
		return nil, nil
	}
	if f, ok := v.AsFloat(); ok {
		return []float64{f}, nil
	}
	list, ok := v.AsList()
	if !ok {
		return nil, kindError(name, "number or list of numbers", v)
	}
	out := make([]float64, len(list))
	for i, e := range list {
		f, ok := e.AsFloat()
		if !ok {
			return nil, kindError(fmt.Sprintf("%s[%d]", name, i), "number", e)
		}
		out[i] = f
	}
	return out, nil
}

func (k Kwargs) Strings(name string) ([]string, error) {
	v, ok := k[name]
	if !ok || v.IsNull() {
		return nil, nil
	}
	list, ok := v.AsList()
	if !ok {
		return nil, kindError(name, "list of strings", v)
	}
	out := make([]string, len(list))
	for i, e := range list {
		s, ok := e.AsString()
		if !ok {
			return nil, kindError(fmt.Sprintf("%s[%d]", name, i), "string", e)
		}
		out[i] = s
	}
	return out, nil
}

// Callable returns the named callable argument, it is required
func (k Kwargs) Callable(name string) (Value, error) {
	v, ok := k[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: missing callable argument %q", gymerr.ErrConstruction, name)
	}
	if v.Kind() != KindCallable {
		return Value{}, kindError(name, "callable", v)
	}
	return v, nil
}
