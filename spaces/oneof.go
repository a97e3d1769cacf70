package spaces

import (
	"fmt"
)

// OneOfValue is an element of a OneOf space: the index of the chosen
// sub-space and a value of that sub-space
type OneOfValue struct {
	Index int
	Value any
}

// OneOf is the disjoint union of its spaces
type OneOf struct {
	Spaces []Space

	rng *rng
}

var _ Space = &OneOf{}

func NewOneOf(spaces ...Space) (*OneOf, error) {
	return NewOneOfOf(spacesToAny(spaces)...)
}

// NewOneOfOf is like NewOneOf but checks the dynamic type of each element
func NewOneOfOf(elems ...any) (*OneOf, error) {
	spaces, err := checkElements("OneOf", elems)
	if err != nil {
		return nil, err
	}
	return &OneOf{Spaces: spaces, rng: newRNG()}, nil
}

func (o *OneOf) Sample() any {
	i := o.rng.rand.Intn(len(o.Spaces))
	return OneOfValue{Index: i, Value: o.Spaces[i].Sample()}
}

// Contains accepts a OneOfValue or a two element []any whose index is a
// Go int or int64
func (o *OneOf) Contains(x any) bool {
	var index int64
	var value any
	switch v := x.(type) {
	case OneOfValue:
		index, value = int64(v.Index), v.Value
	case *OneOfValue:
		if v == nil {
			return false
		}
		index, value = int64(v.Index), v.Value
	case []any:
		if len(v) != 2 {
			return false
		}
		switch i := v[0].(type) {
		case int:
			index = int64(i)
		case int64:
			index = i
		default:
			return false
		}
		value = v[1]
	default:
		return false
	}
	if index < 0 || index >= int64(len(o.Spaces)) {
		return false
	}
	return o.Spaces[index].Contains(value)
}

// Seed accepts nil, an int, or a list holding one seed for the index
// selector followed by one seed per sub-space
func (o *OneOf) Seed(seed any) ([]int64, error) {
	return seedChildren("OneOf", o.rng, true, o.Spaces, seed)
}

func (o *OneOf) String() string {
	return fmt.Sprintf("OneOf(%s)", joinSpaces(o.Spaces))
}

func (o *OneOf) Equal(other Space) bool {
	p, ok := other.(*OneOf)
	return ok && equalSpaces(o.Spaces, p.Spaces)
}
