package spaces

import (
	"fmt"
)

// Tuple is the cartesian product of its spaces, values are []any
type Tuple struct {
	Spaces []Space

	rng *rng
}

var _ Space = &Tuple{}

func NewTuple(spaces ...Space) (*Tuple, error) {
	return NewTupleOf(spacesToAny(spaces)...)
}

// NewTupleOf is like NewTuple but checks the dynamic type of each element
func NewTupleOf(elems ...any) (*Tuple, error) {
	spaces, err := checkElements("Tuple", elems)
	if err != nil {
		return nil, err
	}
	return &Tuple{Spaces: spaces, rng: newRNG()}, nil
}

func (t *Tuple) Sample() any {
	out := make([]any, len(t.Spaces))
	for i, s := range t.Spaces {
		out[i] = s.Sample()
	}
	return out
}

func (t *Tuple) Contains(x any) bool {
	values, ok := x.([]any)
	if !ok || len(values) != len(t.Spaces) {
		return false
	}
	for i, s := range t.Spaces {
		if !s.Contains(values[i]) {
			return false
		}
	}
	return true
}

func (t *Tuple) Seed(seed any) ([]int64, error) {
	return seedChildren("Tuple", t.rng, false, t.Spaces, seed)
}

func (t *Tuple) String() string {
	return fmt.Sprintf("Tuple(%s)", joinSpaces(t.Spaces))
}

func (t *Tuple) Equal(other Space) bool {
	o, ok := other.(*Tuple)
	return ok && equalSpaces(t.Spaces, o.Spaces)
}
