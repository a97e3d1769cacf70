package spaces

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeu5/gymkit/gymerr"
)

// Dict is a keyed product of spaces, values are map[string]any.
// Keys are kept sorted.
type Dict struct {
	Keys   []string
	Spaces map[string]Space

	rng *rng
}

var _ Space = &Dict{}

func NewDict(spaces map[string]Space) (*Dict, error) {
	if len(spaces) == 0 {
		return nil, gymerr.Argument("Dict", "spaces", "at least one sub-space is required")
	}
	keys := make([]string, 0, len(spaces))
	copied := make(map[string]Space, len(spaces))
	for k, s := range spaces {
		if s == nil || isNilPointer(s) {
			return nil, gymerr.Argument("Dict", "spaces", "key %q is not a space", k)
		}
		keys = append(keys, k)
		copied[k] = s
	}
	sort.Strings(keys)
	return &Dict{Keys: keys, Spaces: copied, rng: newRNG()}, nil
}

func (d *Dict) ordered() []Space {
	out := make([]Space, len(d.Keys))
	for i, k := range d.Keys {
		out[i] = d.Spaces[k]
	}
	return out
}

func (d *Dict) Sample() any {
	out := make(map[string]any, len(d.Keys))
	for _, k := range d.Keys {
		out[k] = d.Spaces[k].Sample()
	}
	return out
}

func (d *Dict) Contains(x any) bool {
	values, ok := x.(map[string]any)
	if !ok || len(values) != len(d.Keys) {
		return false
	}
	for _, k := range d.Keys {
		v, ok := values[k]
		if !ok || !d.Spaces[k].Contains(v) {
			return false
		}
	}
	return true
}

func (d *Dict) Seed(seed any) ([]int64, error) {
	return seedChildren("Dict", d.rng, false, d.ordered(), seed)
}

func (d *Dict) String() string {
	parts := make([]string, len(d.Keys))
	for i, k := range d.Keys {
		parts[i] = fmt.Sprintf("'%s': %s", k, d.Spaces[k])
	}
	return fmt.Sprintf("Dict(%s)", strings.Join(parts, ", "))
}

func (d *Dict) Equal(other Space) bool {
	o, ok := other.(*Dict)
	if !ok || len(o.Keys) != len(d.Keys) {
		return false
	}
	for i, k := range d.Keys {
		if o.Keys[i] != k {
			return false
		}
	}
	return equalSpaces(d.ordered(), o.ordered())
}
