package spaces

import (
	"fmt"

	"github.com/zeu5/gymkit/gymerr"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Discrete is the set {Start, Start+1, ..., Start+N-1}
type Discrete struct {
	N     int
	Start int

	rng *rng
}

var _ Space = &Discrete{}

func NewDiscrete(n int) (*Discrete, error) {
	return NewDiscreteStart(n, 0)
}

func NewDiscreteStart(n, start int) (*Discrete, error) {
	if n <= 0 {
		return nil, gymerr.Argument("Discrete", "n", "n must be positive, actual value: %d", n)
	}
	return &Discrete{N: n, Start: start, rng: newRNG()}, nil
}

func (d *Discrete) Sample() any {
	return d.Start + d.rng.rand.Intn(d.N)
}

// SampleMask samples uniformly among the entries of mask set to 1
func (d *Discrete) SampleMask(mask []int8) (int, error) {
	if len(mask) != d.N {
		return 0, fmt.Errorf("%w: expected length %d, actual length %d", gymerr.ErrInvalidMask, d.N, len(mask))
	}
	weights := make([]float64, d.N)
	legal := false
	for i, m := range mask {
		switch m {
		case 0:
		case 1:
			weights[i] = 1
			legal = true
		default:
			return 0, fmt.Errorf("%w: entries must be 0 or 1, actual value %d", gymerr.ErrInvalidMask, m)
		}
	}
	if !legal {
		return 0, fmt.Errorf("%w: no legal action", gymerr.ErrInvalidMask)
	}
	i, ok := sampleuv.NewWeighted(weights, d.rng.src).Take()
	if !ok {
		return 0, fmt.Errorf("%w: no legal action", gymerr.ErrInvalidMask)
	}
	return d.Start + i, nil
}

func (d *Discrete) Contains(x any) bool {
	v, ok := asInt(x)
	if !ok {
		return false
	}
	return v >= int64(d.Start) && v < int64(d.Start+d.N)
}

func (d *Discrete) Seed(seed any) ([]int64, error) {
	return seedAtomic(d.rng, seed)
}

func (d *Discrete) String() string {
	if d.Start != 0 {
		return fmt.Sprintf("Discrete(%d, start=%d)", d.N, d.Start)
	}
	return fmt.Sprintf("Discrete(%d)", d.N)
}

func (d *Discrete) Equal(other Space) bool {
	o, ok := other.(*Discrete)
	return ok && o.N == d.N && o.Start == d.Start
}

// Index converts a value contained in a Discrete space to an int
func Index(x any) (int, bool) {
	v, ok := asInt(x)
	return int(v), ok
}
