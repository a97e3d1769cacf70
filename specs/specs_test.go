package specs

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/zeu5/gymkit/gymerr"
)

func double(x float64) float64 { return 2 * x }

func testStack() Stack {
	return Stack{
		Wrappers: []WrapperSpec{
			{Name: "ClipReward", Version: 0, Kwargs: Kwargs{"min_reward": Float(0), "max_reward": Float(1)}},
			{Name: "NormalizeReward", Version: 1, Kwargs: Kwargs{"gamma": Float(0.99), "epsilon": Float(1e-8)}},
			{Name: "TimeLimit", Version: 0, Kwargs: Kwargs{"max_episode_steps": Int(500)}},
			{Name: "OrderEnforcing", Version: 0, Kwargs: Kwargs{}},
		},
		Env: EnvSpec{
			ID:              "CartPole-v1",
			EntryPoint:      "envs:CartPole",
			Kwargs:          Kwargs{"sutton_barto_reward": Bool(false), "tags": List(String("a"), Int(3))},
			MaxEpisodeSteps: IntPtr(500),
			RewardThreshold: FloatPtr(475),
			OrderEnforce:    true,
		},
	}
}

func TestRoundTrip(t *testing.T) {
	stack := testStack()
	text, err := Serialize(stack)
	if err != nil {
		t.Fatalf("serialize failed: %s", err)
	}
	back, err := Deserialize(text)
	if err != nil {
		t.Fatalf("deserialize failed: %s", err)
	}
	if !back.Equal(stack) {
		t.Errorf("round trip changed the stack:\n%s\n%s", Pprint(stack), Pprint(back))
	}
	if got := back.Names(); !cmp.Equal(got, []string{"ClipRewardV0", "NormalizeRewardV1", "TimeLimitV0", "OrderEnforcingV0"}) {
		t.Errorf("unexpected layer order %v", got)
	}
}

func TestFloatsStayFloats(t *testing.T) {
	stack := Stack{
		Wrappers: []WrapperSpec{{Name: "ClipReward", Version: 0, Kwargs: Kwargs{"min_reward": Float(0), "max_reward": Int(1)}}},
		Env:      EnvSpec{ID: "X-v0", Kwargs: Kwargs{}},
	}
	text, err := Serialize(stack)
	if err != nil {
		t.Fatal(err)
	}
	back, _ := Deserialize(text)
	if back.Wrappers[0].Kwargs["min_reward"].Kind() != KindFloat {
		t.Errorf("float argument became %s", back.Wrappers[0].Kwargs["min_reward"].Kind())
	}
	if back.Wrappers[0].Kwargs["max_reward"].Kind() != KindInt {
		t.Errorf("int argument became %s", back.Wrappers[0].Kwargs["max_reward"].Kind())
	}
}

func TestCallables(t *testing.T) {
	f, err := ValueOf(double)
	if err != nil {
		t.Fatal(err)
	}
	if f.Kind() != KindCallable || !strings.HasSuffix(f.Ref(), "specs.double") {
		t.Fatalf("unexpected callable reference %q", f.Ref())
	}
	stack := Stack{
		Wrappers: []WrapperSpec{{Name: "LambdaReward", Version: 0, Kwargs: Kwargs{"func": f}}},
		Env:      EnvSpec{ID: "X-v0", Kwargs: Kwargs{}},
	}
	text, err := Serialize(stack)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("refused by default", func(t *testing.T) {
		_, err := Deserialize(text)
		if !errors.Is(err, gymerr.ErrUnsafeDeserialization) {
			t.Errorf("expected ErrUnsafeDeserialization, got %v", err)
		}
	})
	t.Run("opaque when allowed", func(t *testing.T) {
		back, err := Deserialize(text, AllowUnsafe())
		if err != nil {
			t.Fatal(err)
		}
		v := back.Wrappers[0].Kwargs["func"]
		if v.Ref() != f.Ref() || v.Func() != nil {
			t.Errorf("expected an opaque reference to %s", f.Ref())
		}
		if !back.Equal(stack) {
			t.Errorf("callables should compare by reference")
		}
	})
	t.Run("named", func(t *testing.T) {
		v, _ := ValueOf(Func{Name: "reward.double", Fn: double})
		if v.Ref() != "reward.double" {
			t.Errorf("unexpected reference %q", v.Ref())
		}
	})
}

func TestReservedKeysRoundTrip(t *testing.T) {
	stack := Stack{
		Wrappers: []WrapperSpec{{Name: "LambdaObservation", Version: 0, Kwargs: Kwargs{
			"meta":   Map(map[string]Value{callableKey: String("hello")}),
			"nested": Map(map[string]Value{mapKey: Map(map[string]Value{"x": Int(1)})}),
		}}},
		Env: EnvSpec{ID: "X-v0", Kwargs: Kwargs{"both": Map(map[string]Value{callableKey: Int(1), mapKey: Bool(true)})}},
	}
	if stack.HasCallable() {
		t.Fatal("stack should not hold callables")
	}
	text, err := Serialize(stack)
	if err != nil {
		t.Fatal(err)
	}
	back, err := Deserialize(text)
	if err != nil {
		t.Fatalf("deserialize failed: %s", err)
	}
	if !back.Equal(stack) {
		t.Errorf("round trip changed the stack:\n%s\n%s", Pprint(stack), Pprint(back))
	}
	if kind := back.Wrappers[0].Kwargs["meta"].Kind(); kind != KindMap {
		t.Errorf("map argument became %s", kind)
	}
	fromText, err := PprintText(text)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Pprint(stack), fromText); diff != "" {
		t.Errorf("pprint differs (-stack +text):\n%s", diff)
	}
}

func TestSerializeRejectsNaN(t *testing.T) {
	stack := Stack{Env: EnvSpec{ID: "X-v0", Kwargs: Kwargs{"x": Float(math.NaN())}}}
	if _, err := Serialize(stack); !errors.Is(err, gymerr.ErrNotSerializable) {
		t.Errorf("expected ErrNotSerializable, got %v", err)
	}
}

func TestDeserializeMalformed(t *testing.T) {
	for _, text := range []string{"", "[]", "{}", `[{"name":"ClipReward"}]`, `[{"name":"ClipReward","version":-1,"kwargs":{}},{"id":"X-v0"}]`,
		`[{"id":"X-v0"}]xyz`, `[{"id":"X-v0"}] [{"id":"X-v0"}]`} {
		if _, err := Deserialize(text); !errors.Is(err, gymerr.ErrMalformedStack) {
			t.Errorf("%q: expected ErrMalformedStack, got %v", text, err)
		}
	}
}

func TestPprint(t *testing.T) {
	stack := testStack()
	text, _ := Serialize(stack)
	fromText, err := PprintText(text)
	if err != nil {
		t.Fatal(err)
	}
	direct := Pprint(stack)
	if diff := cmp.Diff(direct, fromText); diff != "" {
		t.Errorf("pprint mismatch (-stack +text):\n%s", diff)
	}
	lines := strings.Split(direct, "\n")
	if lines[0] != "ClipRewardV0" || lines[1] != "  max_reward: 1.0" || lines[3] != "  NormalizeRewardV1" {
		t.Errorf("unexpected layout:\n%s", direct)
	}
	if !strings.Contains(direct, "        env CartPole-v1\n") {
		t.Errorf("terminal env not indented under the last layer:\n%s", direct)
	}
}

func TestParseNames(t *testing.T) {
	family, version, err := ParseWrapperName("NormalizeRewardV1")
	if err != nil || family != "NormalizeReward" || version != 1 {
		t.Errorf("got %s %d %v", family, version, err)
	}
	if _, _, err := ParseWrapperName("NormalizeReward"); !errors.Is(err, gymerr.ErrInvalidWrapperName) {
		t.Errorf("expected ErrInvalidWrapperName, got %v", err)
	}
	ns, name, v, err := ParseEnvID("classic/CartPole-v1")
	if err != nil || ns != "classic" || name != "CartPole" || v != 1 {
		t.Errorf("got %s %s %d %v", ns, name, v, err)
	}
	if _, _, v, _ := ParseEnvID("GridWorld"); v != -1 {
		t.Errorf("expected no version, got %d", v)
	}
	if EnvID("classic", "CartPole", 1) != "classic/CartPole-v1" {
		t.Errorf("unexpected id %s", EnvID("classic", "CartPole", 1))
	}
}

func TestKwargsAccessors(t *testing.T) {
	k := MustKwargs(map[string]any{"delay": 3, "gamma": 0.9, "low": []float64{0, 1}, "keys": []string{"a"}, "scale": 2})
	if d, err := k.Int("delay", 0); err != nil || d != 3 {
		t.Errorf("Int: %d %v", d, err)
	}
	if _, err := k.Int("gamma", 0); !errors.Is(err, gymerr.ErrConstruction) {
		t.Errorf("expected kind error, got %v", err)
	}
	if s, err := k.Float("scale", 0); err != nil || s != 2 {
		t.Errorf("ints should be accepted as floats: %v %v", s, err)
	}
	if low, err := k.Floats("low"); err != nil || !cmp.Equal(low, []float64{0, 1}) {
		t.Errorf("Floats: %v %v", low, err)
	}
	if keys, err := k.Strings("keys"); err != nil || !cmp.Equal(keys, []string{"a"}) {
		t.Errorf("Strings: %v %v", keys, err)
	}
	if missing, err := k.OptionalInt("missing"); err != nil || missing != nil {
		t.Errorf("OptionalInt: %v %v", missing, err)
	}
}
