package convert

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zeu5/gymkit/spaces"
	"gonum.org/v1/gonum/mat"
)

func TestClassify(t *testing.T) {
	cases := map[Kind][]any{
		Numeric:  {1, 2.5, int64(3), true},
		Array:    {mat.NewVecDense(2, nil), []float64{1}},
		Mapping:  {map[string]any{}},
		Sequence: {[]any{1}, spaces.OneOfValue{}},
		Opaque:   {"text", struct{}{}},
	}
	for kind, values := range cases {
		for _, v := range values {
			if got := Classify(v); got != kind {
				t.Errorf("Classify(%T) = %s, want %s", v, got, kind)
			}
		}
	}
}

func TestNested(t *testing.T) {
	in := map[string]any{
		"pos":   mat.NewVecDense(2, []float64{1, 2}),
		"parts": []any{mat.NewVecDense(1, []float64{3}), 4},
		"pick":  spaces.OneOfValue{Index: 1, Value: mat.NewVecDense(1, []float64{5})},
	}
	out, err := VecToSlice().Convert(in)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"pos":   []float64{1, 2},
		"parts": []any{[]float64{3}, 4},
		"pick":  spaces.OneOfValue{Index: 1, Value: []float64{5}},
	}
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("unexpected conversion (-want +got):\n%s", diff)
	}

	back, err := SliceToVec().Convert(out)
	if err != nil {
		t.Fatal(err)
	}
	pos := back.(map[string]any)["pos"].(*mat.VecDense)
	if !mat.Equal(pos, in["pos"].(*mat.VecDense)) {
		t.Errorf("round trip changed the vector")
	}
}

func TestStrict(t *testing.T) {
	c := New("strict").Strict()
	if _, err := c.Convert("text"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
	if v, err := New("lenient").Convert("text"); err != nil || v != "text" {
		t.Errorf("opaque values should pass through")
	}
}
