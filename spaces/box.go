package spaces

import (
	"fmt"
	"math"
	"strings"

	"github.com/zeu5/gymkit/gymerr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Box is a (possibly unbounded) box in R^n. Values are stored flattened in
// row-major order, either as *mat.VecDense or []float64.
type Box struct {
	Low   []float64
	High  []float64
	Shape []int
	Dtype Dtype

	rng *rng
}

var _ Space = &Box{}

// NewBox creates a box with per-element bounds. A nil shape means a flat
// vector with len(low) elements.
func NewBox(low, high []float64, shape []int, dtype Dtype) (*Box, error) {
	if len(low) != len(high) {
		return nil, gymerr.Argument("Box", "high", "low and high have different lengths: %d != %d", len(low), len(high))
	}
	if shape == nil {
		shape = []int{len(low)}
	}
	size := 1
	for _, s := range shape {
		if s <= 0 {
			return nil, gymerr.Argument("Box", "shape", "dimensions must be positive, actual shape: %v", shape)
		}
		size *= s
	}
	if size != len(low) {
		return nil, gymerr.Argument("Box", "shape", "shape %v does not match %d bounds", shape, len(low))
	}
	for i := range low {
		if math.IsNaN(low[i]) || math.IsNaN(high[i]) {
			return nil, gymerr.Argument("Box", "low", "bounds cannot be NaN")
		}
		if low[i] > high[i] {
			return nil, gymerr.Argument("Box", "low", "low[%d]=%v is greater than high[%d]=%v", i, low[i], i, high[i])
		}
	}
	b := &Box{
		Low:   append([]float64{}, low...),
		High:  append([]float64{}, high...),
		Shape: append([]int{}, shape...),
		Dtype: dtype,
		rng:   newRNG(),
	}
	return b, nil
}

// NewBoxScalar broadcasts scalar bounds to the given shape
func NewBoxScalar(low, high float64, shape []int, dtype Dtype) (*Box, error) {
	size := 1
	for _, s := range shape {
		size *= s
	}
	if size <= 0 || len(shape) == 0 {
		return nil, gymerr.Argument("Box", "shape", "dimensions must be positive, actual shape: %v", shape)
	}
	lows := make([]float64, size)
	highs := make([]float64, size)
	for i := 0; i < size; i++ {
		lows[i] = low
		highs[i] = high
	}
	return NewBox(lows, highs, shape, dtype)
}

// Dim returns the number of elements
func (b *Box) Dim() int {
	return len(b.Low)
}

func (b *Box) BoundedBelow(i int) bool { return !math.IsInf(b.Low[i], -1) }

func (b *Box) BoundedAbove(i int) bool { return !math.IsInf(b.High[i], 1) }

// IsBounded reports whether every element is bounded on both sides
func (b *Box) IsBounded() bool {
	for i := range b.Low {
		if !b.BoundedBelow(i) || !b.BoundedAbove(i) {
			return false
		}
	}
	return true
}

func (b *Box) Sample() any {
	r := b.rng.rand
	data := make([]float64, len(b.Low))
	for i := range data {
		low, high := b.Low[i], b.High[i]
		below, above := b.BoundedBelow(i), b.BoundedAbove(i)
		var x float64
		switch {
		case below && above:
			if b.Dtype.IsInteger() {
				x = math.Floor(low + r.Float64()*(high-low+1))
			} else {
				x = low + r.Float64()*(high-low)
			}
		case below:
			x = low + r.ExpFloat64()
		case above:
			x = high - r.ExpFloat64()
		default:
			x = r.NormFloat64()
		}
		x = b.Dtype.Cast(x)
		data[i] = math.Max(low, math.Min(high, x))
	}
	return mat.NewVecDense(len(data), data)
}

func (b *Box) Contains(x any) bool {
	data, ok := Floats(x)
	if !ok || len(data) != len(b.Low) {
		return false
	}
	for i, v := range data {
		if math.IsNaN(v) || v < b.Low[i] || v > b.High[i] {
			return false
		}
		if b.Dtype.IsInteger() && v != math.Trunc(v) {
			return false
		}
	}
	return true
}

func (b *Box) Seed(seed any) ([]int64, error) {
	return seedAtomic(b.rng, seed)
}

func (b *Box) String() string {
	return fmt.Sprintf("Box(%s, %s, %s, %s)", boundString(b.Low), boundString(b.High), shapeString(b.Shape), b.Dtype)
}

func (b *Box) Equal(other Space) bool {
	o, ok := other.(*Box)
	if !ok || o.Dtype != b.Dtype || len(o.Shape) != len(b.Shape) {
		return false
	}
	for i := range b.Shape {
		if b.Shape[i] != o.Shape[i] {
			return false
		}
	}
	return floats.Equal(b.Low, o.Low) && floats.Equal(b.High, o.High)
}

// Floats extracts the flattened elements of a box value
func Floats(x any) ([]float64, bool) {
	switch v := x.(type) {
	case *mat.VecDense:
		if v == nil || v.Len() == 0 {
			return nil, false
		}
		return mat.Col(nil, 0, v), true
	case []float64:
		return v, true
	case []float32:
		out := make([]float64, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, true
	case []int:
		out := make([]float64, len(v))
		for i, e := range v {
			out[i] = float64(e)
		}
		return out, true
	}
	return nil, false
}

func boundString(bounds []float64) string {
	uniform := true
	for _, v := range bounds {
		if v != bounds[0] {
			uniform = false
			break
		}
	}
	if uniform {
		return formatFloat(bounds[0])
	}
	parts := make([]string, len(bounds))
	for i, v := range bounds {
		parts[i] = formatFloat(v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	s := fmt.Sprintf("%g", v)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func shapeString(shape []int) string {
	parts := make([]string, len(shape))
	for i, s := range shape {
		parts[i] = fmt.Sprint(s)
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
