package spaces

import (
	"fmt"

	"github.com/zeu5/gymkit/gymerr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func unsupported(op string, s Space) error {
	return gymerr.Argument(op, "space", "unsupported space %s", s)
}

// FlatDim is the number of elements of a flattened value of s
func FlatDim(s Space) (int, error) {
	switch sp := s.(type) {
	case *Box:
		return sp.Dim(), nil
	case *Discrete:
		return sp.N, nil
	case *MultiBinary:
		return sp.N, nil
	case *Tuple:
		return sumDims(sp.Spaces)
	case *Dict:
		return sumDims(sp.ordered())
	}
	return 0, unsupported("FlatDim", s)
}

func sumDims(spaces []Space) (int, error) {
	total := 0
	for _, c := range spaces {
		d, err := FlatDim(c)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// Flatten converts a value of s into a flat vector. Discrete values are
// one-hot encoded.
func Flatten(s Space, x any) ([]float64, error) {
	switch sp := s.(type) {
	case *Box:
		data, ok := Floats(x)
		if !ok || len(data) != sp.Dim() {
			return nil, fmt.Errorf("flatten: %v is not a value of %s", x, sp)
		}
		return append([]float64{}, data...), nil
	case *Discrete:
		v, ok := asInt(x)
		if !ok || !sp.Contains(x) {
			return nil, fmt.Errorf("flatten: %v is not a value of %s", x, sp)
		}
		out := make([]float64, sp.N)
		out[int(v)-sp.Start] = 1
		return out, nil
	case *MultiBinary:
		if !sp.Contains(x) {
			return nil, fmt.Errorf("flatten: %v is not a value of %s", x, sp)
		}
		out := make([]float64, sp.N)
		switch bits := x.(type) {
		case []int8:
			for i, b := range bits {
				out[i] = float64(b)
			}
		case []int:
			for i, b := range bits {
				out[i] = float64(b)
			}
		}
		return out, nil
	case *Tuple:
		values, ok := x.([]any)
		if !ok || len(values) != len(sp.Spaces) {
			return nil, fmt.Errorf("flatten: %v is not a value of %s", x, sp)
		}
		return flattenAll(sp.Spaces, values)
	case *Dict:
		values, ok := x.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("flatten: %v is not a value of %s", x, sp)
		}
		ordered := make([]any, len(sp.Keys))
		for i, k := range sp.Keys {
			ordered[i] = values[k]
		}
		return flattenAll(sp.ordered(), ordered)
	}
	return nil, unsupported("Flatten", s)
}

func flattenAll(spaces []Space, values []any) ([]float64, error) {
	out := make([]float64, 0)
	for i, c := range spaces {
		part, err := Flatten(c, values[i])
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

// Unflatten is the inverse of Flatten
func Unflatten(s Space, data []float64) (any, error) {
	dim, err := FlatDim(s)
	if err != nil {
		return nil, err
	}
	if len(data) != dim {
		return nil, fmt.Errorf("unflatten: expected %d elements for %s, got %d", dim, s, len(data))
	}
	switch sp := s.(type) {
	case *Box:
		return mat.NewVecDense(len(data), append([]float64{}, data...)), nil
	case *Discrete:
		return sp.Start + floats.MaxIdx(data), nil
	case *MultiBinary:
		out := make([]int8, len(data))
		for i, v := range data {
			if v != 0 {
				out[i] = 1
			}
		}
		return out, nil
	case *Tuple:
		return unflattenAll(sp.Spaces, data)
	case *Dict:
		values, err := unflattenAll(sp.ordered(), data)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(sp.Keys))
		for i, k := range sp.Keys {
			out[k] = values[i]
		}
		return out, nil
	}
	return nil, unsupported("Unflatten", s)
}

func unflattenAll(spaces []Space, data []float64) ([]any, error) {
	out := make([]any, len(spaces))
	offset := 0
	for i, c := range spaces {
		d, _ := FlatDim(c)
		v, err := Unflatten(c, data[offset:offset+d])
		if err != nil {
			return nil, err
		}
		out[i] = v
		offset += d
	}
	return out, nil
}

// FlattenSpace returns the Box holding the flattened values of s
func FlattenSpace(s Space) (*Box, error) {
	low, high, dtype, err := flatBounds(s)
	if err != nil {
		return nil, err
	}
	return NewBox(low, high, nil, dtype)
}

func flatBounds(s Space) ([]float64, []float64, Dtype, error) {
	switch sp := s.(type) {
	case *Box:
		return append([]float64{}, sp.Low...), append([]float64{}, sp.High...), sp.Dtype, nil
	case *Discrete:
		return make([]float64, sp.N), ones(sp.N), Uint8, nil
	case *MultiBinary:
		return make([]float64, sp.N), ones(sp.N), Uint8, nil
	case *Tuple:
		return flatBoundsAll(sp.Spaces)
	case *Dict:
		return flatBoundsAll(sp.ordered())
	}
	return nil, nil, 0, unsupported("FlattenSpace", s)
}

func flatBoundsAll(spaces []Space) ([]float64, []float64, Dtype, error) {
	var low, high []float64
	dtype := Uint8
	for _, c := range spaces {
		l, h, d, err := flatBounds(c)
		if err != nil {
			return nil, nil, 0, err
		}
		low = append(low, l...)
		high = append(high, h...)
		dtype = promote(dtype, d)
	}
	return low, high, dtype, nil
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

// EmptyValue is the zero value of s, used to pad delayed or stacked observations
func EmptyValue(s Space) any {
	switch sp := s.(type) {
	case *Box:
		return mat.NewVecDense(sp.Dim(), nil)
	case *Discrete:
		return sp.Start
	case *MultiBinary:
		return make([]int8, sp.N)
	case *Tuple:
		out := make([]any, len(sp.Spaces))
		for i, c := range sp.Spaces {
			out[i] = EmptyValue(c)
		}
		return out
	case *Dict:
		out := make(map[string]any, len(sp.Keys))
		for _, k := range sp.Keys {
			out[k] = EmptyValue(sp.Spaces[k])
		}
		return out
	case *OneOf:
		return OneOfValue{Index: 0, Value: EmptyValue(sp.Spaces[0])}
	}
	return nil
}

// Clone deep copies a space value
func Clone(x any) any {
	switch v := x.(type) {
	case *mat.VecDense:
		if v == nil {
			return v
		}
		c := mat.NewVecDense(v.Len(), nil)
		c.CopyVec(v)
		return c
	case []float64:
		return append([]float64{}, v...)
	case []int8:
		return append([]int8{}, v...)
	case []int:
		return append([]int{}, v...)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = Clone(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = Clone(e)
		}
		return out
	case OneOfValue:
		return OneOfValue{Index: v.Index, Value: Clone(v.Value)}
	}
	return x
}
