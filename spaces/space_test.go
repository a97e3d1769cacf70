package spaces

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zeu5/gymkit/gymerr"
	"gonum.org/v1/gonum/mat"
)

func mustDiscrete(t *testing.T, n int) *Discrete {
	t.Helper()
	d, err := NewDiscrete(n)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return d
}

func mustBox(t *testing.T, low, high float64, shape ...int) *Box {
	t.Helper()
	b, err := NewBoxScalar(low, high, shape, Float64)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return b
}

func TestSampleContained(t *testing.T) {
	multi, _ := NewMultiBinary(5)
	tuple, _ := NewTuple(mustDiscrete(t, 3), mustBox(t, -1, 1, 2))
	dict, _ := NewDict(map[string]Space{"pos": mustBox(t, 0, 10, 3), "door": mustDiscrete(t, 2)})
	oneOf, _ := NewOneOf(mustDiscrete(t, 2), mustBox(t, math.Inf(-1), math.Inf(1), 2))
	intBox, _ := NewBoxScalar(0, 255, []int{2, 2}, Uint8)
	halfBox, _ := NewBox([]float64{0, math.Inf(-1)}, []float64{math.Inf(1), 0}, nil, Float32)

	spaces := []Space{mustDiscrete(t, 4), mustBox(t, -2, 2, 3), intBox, halfBox, multi, tuple, dict, oneOf}
	for _, s := range spaces {
		t.Run(s.String(), func(t *testing.T) {
			if _, err := s.Seed(3); err != nil {
				t.Fatalf("seed failed: %s", err)
			}
			for i := 0; i < 50; i++ {
				x := s.Sample()
				if !s.Contains(x) {
					t.Fatalf("sample %v not contained in %s", x, s)
				}
			}
		})
	}
}

func TestSeedReproducible(t *testing.T) {
	a, _ := NewTuple(mustDiscrete(t, 10), mustBox(t, -1, 1, 4))
	b, _ := NewTuple(mustDiscrete(t, 10), mustBox(t, -1, 1, 4))
	seedsA, err := a.Seed(42)
	if err != nil {
		t.Fatal(err)
	}
	seedsB, _ := b.Seed(42)
	if !cmp.Equal(seedsA, seedsB) {
		t.Errorf("seeds differ: %v != %v", seedsA, seedsB)
	}
	for i := 0; i < 10; i++ {
		x := a.Sample().([]any)
		y := b.Sample().([]any)
		if x[0] != y[0] || !mat.Equal(x[1].(*mat.VecDense), y[1].(*mat.VecDense)) {
			t.Fatalf("samples differ at step %d", i)
		}
	}
}

func TestCopy(t *testing.T) {
	inner := mustDiscrete(t, 4)
	multi, _ := NewMultiBinary(3)
	tuple, _ := NewTuple(inner, inner)
	dict, _ := NewDict(map[string]Space{"a": inner, "b": mustBox(t, -1, 1, 2)})
	oneOf, _ := NewOneOf(inner, multi)
	for _, s := range []Space{inner, mustBox(t, 0, 1, 3), multi, tuple, dict, oneOf} {
		c := Copy(s)
		if c == s || !c.Equal(s) {
			t.Errorf("copy of %s is not a distinct equal space", s)
		}
	}
	c := Copy(tuple).(*Tuple)
	if c.Spaces[0] == c.Spaces[1] || c.Spaces[0] == Space(inner) {
		t.Errorf("copied tuple components are shared")
	}

	a := mustDiscrete(t, 1000)
	b := Copy(a)
	a.Seed(1)
	b.Seed(1)
	for i := 0; i < 5; i++ {
		if a.Sample() != b.Sample() {
			t.Fatalf("copy does not sample like the original")
		}
	}
}

func TestUnseededComponentsDiffer(t *testing.T) {
	tuple, _ := NewTuple(mustDiscrete(t, 2), mustDiscrete(t, 2))
	seeds, err := tuple.Seed(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(seeds) != 2 || seeds[0] == seeds[1] {
		t.Errorf("expected two distinct seeds, got %v", seeds)
	}
	if Entropy() < 0 {
		t.Errorf("entropy should be non-negative")
	}
}

func TestOneOfSeeding(t *testing.T) {
	o, err := NewOneOf(mustDiscrete(t, 2), mustBox(t, -1, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	t.Run("none", func(t *testing.T) {
		seeds, err := o.Seed(nil)
		if err != nil || len(seeds) != 3 {
			t.Errorf("expected 3 seeds, got %v (%v)", seeds, err)
		}
	})
	t.Run("int", func(t *testing.T) {
		seeds, err := o.Seed(7)
		if err != nil || len(seeds) != 3 || seeds[0] != 7 {
			t.Errorf("unexpected seeds %v (%v)", seeds, err)
		}
	})
	t.Run("list", func(t *testing.T) {
		seeds, err := o.Seed([]int{1, 2, 3})
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.Equal(seeds, []int64{1, 2, 3}) {
			t.Errorf("unexpected seeds %v", seeds)
		}
	})
	t.Run("wrong length", func(t *testing.T) {
		if _, err := o.Seed([]int{1, 2}); !errors.Is(err, gymerr.ErrConstruction) {
			t.Errorf("expected construction error, got %v", err)
		}
	})
	t.Run("bad type", func(t *testing.T) {
		_, err := o.Seed(0.5)
		var seedErr *gymerr.SeedTypeError
		if !errors.As(err, &seedErr) {
			t.Fatalf("expected seed type error, got %v", err)
		}
		want := "Expected seed type: list, tuple, int or None, actual type: float64"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})
}

func TestOneOfContains(t *testing.T) {
	o, _ := NewOneOf(mustDiscrete(t, 3), mustBox(t, -1, 1, 2))
	if !o.Contains([]any{int64(0), 2}) {
		t.Errorf("expected int64 index to be accepted")
	}
	if !o.Contains([]any{0, 1}) {
		t.Errorf("expected int index to be accepted")
	}
	if o.Contains([]any{int32(0), 2}) {
		t.Errorf("expected int32 index to be rejected")
	}
	if o.Contains(OneOfValue{Index: 2, Value: 0}) {
		t.Errorf("index out of range accepted")
	}
	if !o.Contains(OneOfValue{Index: 1, Value: []float64{0.5, -0.5}}) {
		t.Errorf("box value rejected")
	}
}

func TestCompositeConstruction(t *testing.T) {
	if _, err := NewOneOfOf(mustDiscrete(t, 2), "not a space"); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error, got %v", err)
	}
	var nilDiscrete *Discrete
	if _, err := NewTupleOf(nilDiscrete); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error for nil space, got %v", err)
	}
	if _, err := NewTuple(); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected construction error for empty tuple")
	}
	if _, err := NewBox([]float64{1}, []float64{0}, nil, Float64); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected low > high to be rejected")
	}
}

func TestSampleMask(t *testing.T) {
	d := mustDiscrete(t, 4)
	d.Seed(1)
	for i := 0; i < 20; i++ {
		a, err := d.SampleMask([]int8{0, 1, 0, 1})
		if err != nil {
			t.Fatal(err)
		}
		if a != 1 && a != 3 {
			t.Fatalf("masked action %d sampled", a)
		}
	}
	for _, mask := range [][]int8{{0, 0, 0, 0}, {1, 1}, {2, 0, 0, 0}} {
		if _, err := d.SampleMask(mask); !errors.Is(err, gymerr.ErrInvalidMask) {
			t.Errorf("mask %v: expected ErrInvalidMask, got %v", mask, err)
		}
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	dict, _ := NewDict(map[string]Space{"a": mustDiscrete(t, 3), "b": mustBox(t, -1, 1, 2)})
	dict.Seed(5)
	x := dict.Sample()
	flat, err := Flatten(dict, x)
	if err != nil {
		t.Fatal(err)
	}
	if len(flat) != 5 {
		t.Fatalf("expected 5 elements, got %d", len(flat))
	}
	back, err := Unflatten(dict, flat)
	if err != nil {
		t.Fatal(err)
	}
	if !dict.Contains(back) {
		t.Errorf("unflattened value %v not in space", back)
	}
	if back.(map[string]any)["a"] != x.(map[string]any)["a"] {
		t.Errorf("discrete component changed")
	}
	flatSpace, err := FlattenSpace(dict)
	if err != nil {
		t.Fatal(err)
	}
	if !flatSpace.Contains(flat) || flatSpace.Dtype != Float64 {
		t.Errorf("flattened value not in %s", flatSpace)
	}
}

func TestStrings(t *testing.T) {
	o, _ := NewOneOf(mustDiscrete(t, 2), mustBox(t, -1, 1, 2))
	want := "OneOf(Discrete(2), Box(-1.0, 1.0, (2,), float64))"
	if o.String() != want {
		t.Errorf("got %q, want %q", o.String(), want)
	}
}
