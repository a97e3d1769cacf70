package spaces

import (
	"fmt"

	"github.com/zeu5/gymkit/gymerr"
)

// MultiBinary is the set of binary vectors of length N
type MultiBinary struct {
	N int

	rng *rng
}

var _ Space = &MultiBinary{}

func NewMultiBinary(n int) (*MultiBinary, error) {
	if n <= 0 {
		return nil, gymerr.Argument("MultiBinary", "n", "n must be positive, actual value: %d", n)
	}
	return &MultiBinary{N: n, rng: newRNG()}, nil
}

func (m *MultiBinary) Sample() any {
	out := make([]int8, m.N)
	for i := range out {
		out[i] = int8(m.rng.rand.Intn(2))
	}
	return out
}

func (m *MultiBinary) Contains(x any) bool {
	var bits []int
	switch v := x.(type) {
	case []int8:
		bits = make([]int, len(v))
		for i, b := range v {
			bits[i] = int(b)
		}
	case []int:
		bits = v
	default:
		return false
	}
	if len(bits) != m.N {
		return false
	}
	for _, b := range bits {
		if b != 0 && b != 1 {
			return false
		}
	}
	return true
}

func (m *MultiBinary) Seed(seed any) ([]int64, error) {
	return seedAtomic(m.rng, seed)
}

func (m *MultiBinary) String() string {
	return fmt.Sprintf("MultiBinary(%d)", m.N)
}

func (m *MultiBinary) Equal(other Space) bool {
	o, ok := other.(*MultiBinary)
	return ok && o.N == m.N
}
