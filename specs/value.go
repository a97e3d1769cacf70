// Package specs holds the serializable descriptions of environments and
// wrapper layers.
package specs

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindCallable
)

var kindNames = []string{"null", "bool", "int", "float", "string", "list", "map", "callable"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a constructor argument: a scalar, a list, a string keyed map, or
// a reference to a callable. Values are immutable once built.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []Value
	m    map[string]Value
	fn   any
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(b bool) Value          { return Value{kind: KindBool, b: b} }
func Int(i int64) Value          { return Value{kind: KindInt, i: i} }
func Float(f float64) Value      { return Value{kind: KindFloat, f: f} }
func String(s string) Value      { return Value{kind: KindString, s: s} }
func List(values ...Value) Value { return Value{kind: KindList, list: append([]Value{}, values...)} }

func Map(values map[string]Value) Value {
	m := make(map[string]Value, len(values))
	for k, v := range values {
		m[k] = v
	}
	return Value{kind: KindMap, m: m}
}

// Callable references fn under the given name. A nil fn creates an
// opaque reference that has to be resolved before use.
func Callable(ref string, fn any) Value {
	return Value{kind: KindCallable, s: ref, fn: fn}
}

// Func attaches an explicit name to a function passed as an argument
type Func struct {
	Name string
	Fn   any
}

// FuncName is the runtime name of a function value
func FuncName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return ""
}

// ValueOf converts a Go value into a Value
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case Func:
		return Callable(v.Name, v.Fn), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint8:
		return Int(int64(v)), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case string:
		return String(v), nil
	case json.Number:
		return numberValue(v)
	case []float64:
		out := make([]Value, len(v))
		for i, e := range v {
			out[i] = Float(e)
		}
		return Value{kind: KindList, list: out}, nil
	case []int:
		out := make([]Value, len(v))
		for i, e := range v {
			out[i] = Int(int64(e))
		}
		return Value{kind: KindList, list: out}, nil
	case []string:
		out := make([]Value, len(v))
		for i, e := range v {
			out[i] = String(e)
		}
		return Value{kind: KindList, list: out}, nil
	case []any:
		out := make([]Value, len(v))
		for i, e := range v {
			c, err := ValueOf(e)
			if err != nil {
				return Value{}, err
			}
			out[i] = c
		}
		return Value{kind: KindList, list: out}, nil
	case map[string]any:
		out := make(map[string]Value, len(v))
		for k, e := range v {
			c, err := ValueOf(e)
			if err != nil {
				return Value{}, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = c
		}
		return Value{kind: KindMap, m: out}, nil
	}
	if reflect.ValueOf(x).Kind() == reflect.Func {
		return Callable(FuncName(x), x), nil
	}
	return Value{}, fmt.Errorf("cannot convert %T to an argument value", x)
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat also accepts integers
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return append([]Value{}, v.list...), true
}

func (v Value) AsMap() (map[string]Value, bool) {
	if v.kind != KindMap {
		return nil, false
	}
	out := make(map[string]Value, len(v.m))
	for k, e := range v.m {
		out[k] = e
	}
	return out, true
}

// Ref is the reference name of a callable
func (v Value) Ref() string {
	if v.kind != KindCallable {
		return ""
	}
	return v.s
}

// Func is the function behind a callable, nil for opaque references
func (v Value) Func() any {
	return v.fn
}

// WithFunc returns the callable with fn attached
func (v Value) WithFunc(fn any) Value {
	return Callable(v.s, fn)
}

// HasCallable reports whether v is or contains a callable
func (v Value) HasCallable() bool {
	switch v.kind {
	case KindCallable:
		return true
	case KindList:
		for _, e := range v.list {
			if e.HasCallable() {
				return true
			}
		}
	case KindMap:
		for _, e := range v.m {
			if e.HasCallable() {
				return true
			}
		}
	}
	return false
}

// Equal compares structurally, callables compare by reference
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString, KindCallable:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for k, e := range v.m {
			oe, ok := o.m[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts back to plain Go values
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, e := range v.m {
			out[k] = e.Interface()
		}
		return out
	case KindCallable:
		return v.fn
	}
	return nil
}

// String renders the value the way it appears in pretty printed stacks
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return strconv.Quote(v.s)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := sortedKeys(v.m)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + v.m[k].String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindCallable:
		return "<callable " + v.s + ">"
	}
	return "?"
}

// formatFloat always keeps a decimal point or exponent so that floats are
// never confused with integers
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
