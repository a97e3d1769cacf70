// Package spaces describes the domains of observations and actions.
//
// Every space owns its own random source so that sampling is reproducible
// once the space has been seeded.
package spaces

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/zeu5/gymkit/gymerr"
	"golang.org/x/exp/rand"
)

// Space is a set of admissible values that can be sampled from
type Space interface {
	// Sample returns a random element of the space
	Sample() any
	// Contains checks membership of x
	Contains(x any) bool
	// Seed reseeds the random source(s) of the space and returns the seeds used
	Seed(seed any) ([]int64, error)
	String() string
	Equal(Space) bool
}

type rng struct {
	src  rand.Source
	rand *rand.Rand
}

func newRNG() *rng {
	r := &rng{}
	r.reseed(Entropy())
	return r
}

func (r *rng) reseed(seed int64) {
	r.src = rand.NewSource(uint64(seed))
	r.rand = rand.New(r.src)
}

// derive draws n seeds for sub-spaces
func (r *rng) derive(n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = r.rand.Int63()
	}
	return out
}

// Entropy returns a fresh non-negative seed from the operating system
func Entropy() int64 {
	var b [8]byte
	if _, err := cryptorand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(b[:]) >> 1)
}

type seedKind int

const (
	seedNone seedKind = iota
	seedInt
	seedList
)

type parsedSeed struct {
	kind  seedKind
	value int64
	list  []int64
}

func parseSeed(seed any) (parsedSeed, error) {
	if seed == nil {
		return parsedSeed{kind: seedNone}, nil
	}
	if v, ok := asInt(seed); ok {
		return parsedSeed{kind: seedInt, value: v}, nil
	}
	switch s := seed.(type) {
	case []int:
		list := make([]int64, len(s))
		for i, v := range s {
			list[i] = int64(v)
		}
		return parsedSeed{kind: seedList, list: list}, nil
	case []int64:
		list := make([]int64, len(s))
		copy(list, s)
		return parsedSeed{kind: seedList, list: list}, nil
	case []any:
		list := make([]int64, len(s))
		for i, e := range s {
			v, ok := asInt(e)
			if !ok {
				return parsedSeed{}, &gymerr.SeedTypeError{Actual: fmt.Sprintf("%T", e)}
			}
			list[i] = v
		}
		return parsedSeed{kind: seedList, list: list}, nil
	}
	return parsedSeed{}, &gymerr.SeedTypeError{Actual: fmt.Sprintf("%T", seed)}
}

// seedAtomic seeds a single random source, lists are not accepted
func seedAtomic(r *rng, seed any) ([]int64, error) {
	p, err := parseSeed(seed)
	if err != nil {
		return nil, err
	}
	switch p.kind {
	case seedNone:
		p.value = Entropy()
	case seedList:
		return nil, &gymerr.SeedTypeError{Actual: fmt.Sprintf("%T", seed)}
	}
	r.reseed(p.value)
	return []int64{p.value}, nil
}

// seedChildren seeds each child space. When own is set the composite uses
// its random source for itself and the first entry of a seed list is its own.
func seedChildren(owner string, r *rng, own bool, children []Space, seed any) ([]int64, error) {
	p, err := parseSeed(seed)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, len(children)+1)
	childSeeds := make([]any, len(children))
	switch p.kind {
	case seedNone:
		s := Entropy()
		r.reseed(s)
		if own {
			out = append(out, s)
		}
	case seedInt:
		r.reseed(p.value)
		if own {
			out = append(out, p.value)
		}
		for i, s := range r.derive(len(children)) {
			childSeeds[i] = s
		}
	case seedList:
		expected := len(children)
		if own {
			expected++
		}
		if len(p.list) != expected {
			return nil, gymerr.Argument(owner, "seed", "expects %d seeds, actual length: %d", expected, len(p.list))
		}
		list := p.list
		if own {
			r.reseed(list[0])
			out = append(out, list[0])
			list = list[1:]
		}
		for i, s := range list {
			childSeeds[i] = s
		}
	}
	for i, c := range children {
		used, err := c.Seed(childSeeds[i])
		if err != nil {
			return nil, err
		}
		out = append(out, used...)
	}
	return out, nil
}

func asInt(x any) (int64, bool) {
	switch v := x.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	}
	return 0, false
}

func joinSpaces(spaces []Space) string {
	parts := make([]string, len(spaces))
	for i, s := range spaces {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func equalSpaces(a, b []Space) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// checkElements converts a list of arbitrary values to spaces
func checkElements(owner string, elems []any) ([]Space, error) {
	if len(elems) == 0 {
		return nil, gymerr.Argument(owner, "spaces", "at least one sub-space is required")
	}
	out := make([]Space, len(elems))
	for i, e := range elems {
		s, ok := e.(Space)
		if !ok || s == nil || isNilPointer(e) {
			return nil, gymerr.Argument(owner, "spaces", "element %d is not a space, actual type: %T", i, e)
		}
		out[i] = s
	}
	return out, nil
}

func isNilPointer(x any) bool {
	v := reflect.ValueOf(x)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

func spacesToAny(spaces []Space) []any {
	out := make([]any, len(spaces))
	for i, s := range spaces {
		out[i] = s
	}
	return out
}

// Copy returns a structurally equal space with its own random source.
// Composites copy their components.
func Copy(s Space) Space {
	switch v := s.(type) {
	case *Discrete:
		return &Discrete{N: v.N, Start: v.Start, rng: newRNG()}
	case *Box:
		return &Box{
			Low:   append([]float64(nil), v.Low...),
			High:  append([]float64(nil), v.High...),
			Shape: append([]int(nil), v.Shape...),
			Dtype: v.Dtype,
			rng:   newRNG(),
		}
	case *MultiBinary:
		return &MultiBinary{N: v.N, rng: newRNG()}
	case *Tuple:
		return &Tuple{Spaces: copyAll(v.Spaces), rng: newRNG()}
	case *OneOf:
		return &OneOf{Spaces: copyAll(v.Spaces), rng: newRNG()}
	case *Dict:
		children := make(map[string]Space, len(v.Spaces))
		for k, c := range v.Spaces {
			children[k] = Copy(c)
		}
		return &Dict{Keys: append([]string(nil), v.Keys...), Spaces: children, rng: newRNG()}
	}
	return s
}

func copyAll(in []Space) []Space {
	out := make([]Space, len(in))
	for i, s := range in {
		out[i] = Copy(s)
	}
	return out
}
