package spaces

import (
	"math"

	"github.com/zeu5/gymkit/gymerr"
)

// Dtype is the element type of a Box
type Dtype int

const (
	Float64 Dtype = iota
	Float32
	Int64
	Uint8
)

var dtypeNames = map[Dtype]string{
	Float64: "float64",
	Float32: "float32",
	Int64:   "int64",
	Uint8:   "uint8",
}

func (d Dtype) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return "unknown"
}

func ParseDtype(name string) (Dtype, error) {
	for d, n := range dtypeNames {
		if n == name {
			return d, nil
		}
	}
	return 0, gymerr.Argument("Dtype", "", "unknown dtype %q", name)
}

func (d Dtype) IsInteger() bool {
	return d == Int64 || d == Uint8
}

// Cast rounds x into the set of values representable by the dtype
func (d Dtype) Cast(x float64) float64 {
	switch d {
	case Float32:
		return float64(float32(x))
	case Int64:
		if math.IsNaN(x) {
			return 0
		}
		return math.Trunc(x)
	case Uint8:
		if math.IsNaN(x) {
			return 0
		}
		return math.Max(0, math.Min(255, math.Trunc(x)))
	}
	return x
}

// rank orders dtypes by how much they can represent
func (d Dtype) rank() int {
	switch d {
	case Uint8:
		return 0
	case Int64:
		return 1
	case Float32:
		return 2
	}
	return 3
}

func promote(a, b Dtype) Dtype {
	if a.rank() >= b.rank() {
		return a
	}
	return b
}
