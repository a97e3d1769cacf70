package server

import (
	"encoding/json"
	"math"

	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/spaces"
	"gonum.org/v1/gonum/mat"
)

// decodeAction converts a json decoded action into the representation of space
func decodeAction(space spaces.Space, raw any) (any, error) {
	switch s := space.(type) {
	case *spaces.Discrete:
		f, ok := number(raw)
		if !ok || f != math.Trunc(f) {
			return nil, gymerr.Argument("step", "action", "expected an integer for %s, actual: %v", s, raw)
		}
		return int(f), nil
	case *spaces.Box:
		data, ok := numbers(raw)
		if !ok {
			return nil, gymerr.Argument("step", "action", "expected numbers for %s, actual: %v", s, raw)
		}
		return mat.NewVecDense(len(data), data), nil
	case *spaces.MultiBinary:
		data, ok := numbers(raw)
		if !ok {
			return nil, gymerr.Argument("step", "action", "expected a list of 0 and 1 for %s, actual: %v", s, raw)
		}
		out := make([]int8, len(data))
		for i, v := range data {
			out[i] = int8(v)
		}
		return out, nil
	case *spaces.Tuple:
		list, ok := raw.([]any)
		if !ok || len(list) != len(s.Spaces) {
			return nil, gymerr.Argument("step", "action", "expected a list of %d elements for %s", len(s.Spaces), s)
		}
		out := make([]any, len(list))
		for i, e := range list {
			v, err := decodeAction(s.Spaces[i], e)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *spaces.Dict:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, gymerr.Argument("step", "action", "expected an object for %s", s)
		}
		out := make(map[string]any, len(m))
		for k, e := range m {
			sub, ok := s.Spaces[k]
			if !ok {
				return nil, gymerr.Argument("step", "action", "unknown key %q for %s", k, s)
			}
			v, err := decodeAction(sub, e)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	}
	return raw, nil
}

func number(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func numbers(raw any) ([]float64, bool) {
	if f, ok := number(raw); ok {
		return []float64{f}, true
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	out := make([]float64, len(list))
	for i, e := range list {
		f, ok := number(e)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
