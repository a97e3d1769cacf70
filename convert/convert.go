// Package convert converts observation and action values between array
// representations. Values are classified by shape and each converter holds
// one rule per shape.
package convert

import (
	"errors"
	"fmt"

	"github.com/zeu5/gymkit/spaces"
	"gonum.org/v1/gonum/mat"
)

var ErrUnsupported = errors.New("unsupported value")

// Kind is the shape of a value as seen by a converter
type Kind int

const (
	Opaque Kind = iota
	Numeric
	Array
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Array:
		return "array"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	}
	return "opaque"
}

// Classify maps a value to its kind
func Classify(x any) Kind {
	switch x.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, bool:
		return Numeric
	case *mat.VecDense, []float64, []float32, []int8:
		return Array
	case map[string]any:
		return Mapping
	case []any, spaces.OneOfValue:
		return Sequence
	}
	return Opaque
}

// Rule converts a single value. It receives the converter to recurse with.
type Rule func(c *Converter, x any) (any, error)

type Converter struct {
	Name   string
	rules  map[Kind]Rule
	strict bool
}

func New(name string) *Converter {
	return &Converter{Name: name, rules: make(map[Kind]Rule)}
}

// Register sets the rule for a kind, replacing the default behaviour
func (c *Converter) Register(kind Kind, rule Rule) *Converter {
	c.rules[kind] = rule
	return c
}

// Strict makes the converter fail on opaque values instead of passing them through
func (c *Converter) Strict() *Converter {
	c.strict = true
	return c
}

func (c *Converter) Convert(x any) (any, error) {
	kind := Classify(x)
	if rule, ok := c.rules[kind]; ok {
		return rule(c, x)
	}
	switch kind {
	case Mapping:
		m := x.(map[string]any)
		out := make(map[string]any, len(m))
		for k, v := range m {
			conv, err := c.Convert(v)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			out[k] = conv
		}
		return out, nil
	case Sequence:
		if o, ok := x.(spaces.OneOfValue); ok {
			conv, err := c.Convert(o.Value)
			if err != nil {
				return nil, err
			}
			return spaces.OneOfValue{Index: o.Index, Value: conv}, nil
		}
		seq := x.([]any)
		out := make([]any, len(seq))
		for i, v := range seq {
			conv, err := c.Convert(v)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			out[i] = conv
		}
		return out, nil
	case Opaque:
		if c.strict {
			return nil, fmt.Errorf("%s: %w %T", c.Name, ErrUnsupported, x)
		}
	}
	return x, nil
}

// VecToSlice turns gonum vectors into plain slices
func VecToSlice() *Converter {
	return New("VecToSlice").Register(Array, func(_ *Converter, x any) (any, error) {
		data, ok := spaces.Floats(x)
		if !ok {
			return x, nil
		}
		return append([]float64{}, data...), nil
	})
}

// SliceToVec turns plain slices into gonum vectors
func SliceToVec() *Converter {
	return New("SliceToVec").Register(Array, func(_ *Converter, x any) (any, error) {
		if _, ok := x.([]int8); ok {
			return x, nil
		}
		data, ok := spaces.Floats(x)
		if !ok || len(data) == 0 {
			return nil, fmt.Errorf("SliceToVec: %w empty array", ErrUnsupported)
		}
		return mat.NewVecDense(len(data), append([]float64{}, data...)), nil
	})
}
