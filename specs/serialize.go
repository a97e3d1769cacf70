package specs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/zeu5/gymkit/gymerr"
)

const (
	// callableKey marks an encoded callable reference
	callableKey = "__callable__"
	// mapKey wraps argument maps that use one of the reserved keys
	mapKey = "__map__"
)

// Serialize renders the stack as a JSON array of layer records followed by
// the base environment record
func Serialize(stack Stack) (string, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte('[')
	for _, w := range stack.Wrappers {
		buf.WriteString(`{"name":`)
		writeString(buf, w.Name)
		fmt.Fprintf(buf, `,"version":%d,"kwargs":`, w.Version)
		if err := writeKwargs(buf, w.Kwargs); err != nil {
			return "", fmt.Errorf("layer %s: %w", w.FullName(), err)
		}
		buf.WriteString("},")
	}
	if err := writeEnv(buf, stack.Env); err != nil {
		return "", fmt.Errorf("env %s: %w", stack.Env.ID, err)
	}
	buf.WriteByte(']')

	out := new(bytes.Buffer)
	if err := json.Indent(out, buf.Bytes(), "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}

func writeEnv(buf *bytes.Buffer, e EnvSpec) error {
	buf.WriteString(`{"id":`)
	writeString(buf, e.ID)
	buf.WriteString(`,"entry_point":`)
	writeString(buf, e.EntryPoint)
	buf.WriteString(`,"kwargs":`)
	if err := writeKwargs(buf, e.Kwargs); err != nil {
		return err
	}
	buf.WriteString(`,"max_episode_steps":`)
	if e.MaxEpisodeSteps != nil {
		buf.WriteString(strconv.Itoa(*e.MaxEpisodeSteps))
	} else {
		buf.WriteString("null")
	}
	buf.WriteString(`,"reward_threshold":`)
	if e.RewardThreshold != nil {
		if err := writeValue(buf, Float(*e.RewardThreshold)); err != nil {
			return err
		}
	} else {
		buf.WriteString("null")
	}
	fmt.Fprintf(buf, `,"nondeterministic":%t,"order_enforce":%t,"autoreset":%t}`,
		e.Nondeterministic, e.OrderEnforce, e.Autoreset)
	return nil
}

func writeKwargs(buf *bytes.Buffer, k Kwargs) error {
	buf.WriteByte('{')
	for i, name := range k.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, name)
		buf.WriteByte(':')
		if err := writeValue(buf, k[name]); err != nil {
			return fmt.Errorf("argument %q: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("%w: %v", gymerr.ErrNotSerializable, v.f)
		}
		buf.WriteString(formatFloat(v.f))
	case KindString:
		writeString(buf, v.s)
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		_, c := v.m[callableKey]
		_, m := v.m[mapKey]
		if !c && !m {
			return writeKwargs(buf, Kwargs(v.m))
		}
		buf.WriteString(`{"` + mapKey + `":`)
		if err := writeKwargs(buf, Kwargs(v.m)); err != nil {
			return err
		}
		buf.WriteByte('}')
	case KindCallable:
		if v.s == "" {
			return fmt.Errorf("%w: anonymous callable", gymerr.ErrNotSerializable)
		}
		buf.WriteString(`{"` + callableKey + `":`)
		writeString(buf, v.s)
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: kind %s", gymerr.ErrNotSerializable, v.kind)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

type deserializeOptions struct {
	allowUnsafe bool
}

type DeserializeOption func(*deserializeOptions)

// AllowUnsafe lets Deserialize accept callable references. They come back
// as opaque references that still have to be resolved by the caller.
func AllowUnsafe() DeserializeOption {
	return func(o *deserializeOptions) {
		o.allowUnsafe = true
	}
}

// Deserialize parses text produced by Serialize
func Deserialize(text string, opts ...DeserializeOption) (Stack, error) {
	o := &deserializeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return Stack{}, fmt.Errorf("%w: %s", gymerr.ErrMalformedStack, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Stack{}, fmt.Errorf("%w: trailing data after the stack", gymerr.ErrMalformedStack)
	}
	if len(raw) == 0 {
		return Stack{}, fmt.Errorf("%w: empty stack", gymerr.ErrMalformedStack)
	}

	stack := Stack{Wrappers: make([]WrapperSpec, 0, len(raw)-1)}
	for i, layer := range raw[:len(raw)-1] {
		w, err := decodeLayer(layer)
		if err != nil {
			return Stack{}, fmt.Errorf("layer %d: %w", i, err)
		}
		stack.Wrappers = append(stack.Wrappers, w)
	}
	env, err := decodeEnv(raw[len(raw)-1])
	if err != nil {
		return Stack{}, fmt.Errorf("env: %w", err)
	}
	stack.Env = env

	if !o.allowUnsafe && stack.HasCallable() {
		return Stack{}, gymerr.ErrUnsafeDeserialization
	}
	return stack, nil
}

func decodeLayer(raw any) (WrapperSpec, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return WrapperSpec{}, fmt.Errorf("%w: layer is not an object", gymerr.ErrMalformedStack)
	}
	name, ok := m["name"].(string)
	if !ok || name == "" {
		return WrapperSpec{}, fmt.Errorf("%w: layer has no name", gymerr.ErrMalformedStack)
	}
	num, ok := m["version"].(json.Number)
	if !ok {
		return WrapperSpec{}, fmt.Errorf("%w: layer %s has no version", gymerr.ErrMalformedStack, name)
	}
	version, err := num.Int64()
	if err != nil || version < 0 {
		return WrapperSpec{}, fmt.Errorf("%w: layer %s has invalid version %s", gymerr.ErrMalformedStack, name, num)
	}
	kwargs, err := decodeKwargs(m["kwargs"])
	if err != nil {
		return WrapperSpec{}, err
	}
	return WrapperSpec{Name: name, Version: int(version), Kwargs: kwargs}, nil
}

func decodeEnv(raw any) (EnvSpec, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return EnvSpec{}, fmt.Errorf("%w: terminal record is not an object", gymerr.ErrMalformedStack)
	}
	id, ok := m["id"].(string)
	if !ok || id == "" {
		return EnvSpec{}, fmt.Errorf("%w: terminal record has no id", gymerr.ErrMalformedStack)
	}
	spec := EnvSpec{ID: id}
	spec.EntryPoint, _ = m["entry_point"].(string)
	kwargs, err := decodeKwargs(m["kwargs"])
	if err != nil {
		return EnvSpec{}, err
	}
	spec.Kwargs = kwargs
	if num, ok := m["max_episode_steps"].(json.Number); ok {
		steps, err := num.Int64()
		if err != nil {
			return EnvSpec{}, fmt.Errorf("%w: invalid max_episode_steps %s", gymerr.ErrMalformedStack, num)
		}
		spec.MaxEpisodeSteps = IntPtr(int(steps))
	}
	if num, ok := m["reward_threshold"].(json.Number); ok {
		threshold, err := num.Float64()
		if err != nil {
			return EnvSpec{}, fmt.Errorf("%w: invalid reward_threshold %s", gymerr.ErrMalformedStack, num)
		}
		spec.RewardThreshold = FloatPtr(threshold)
	}
	spec.Nondeterministic, _ = m["nondeterministic"].(bool)
	spec.OrderEnforce, _ = m["order_enforce"].(bool)
	spec.Autoreset, _ = m["autoreset"].(bool)
	return spec, nil
}

func decodeKwargs(raw any) (Kwargs, error) {
	if raw == nil {
		return Kwargs{}, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: kwargs is not an object", gymerr.ErrMalformedStack)
	}
	out := make(Kwargs, len(m))
	for k, e := range m {
		v, err := decodeValue(e)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func decodeValue(raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case json.Number:
		return numberValue(v)
	case []any:
		out := make([]Value, len(v))
		for i, e := range v {
			c, err := decodeValue(e)
			if err != nil {
				return Value{}, err
			}
			out[i] = c
		}
		return Value{kind: KindList, list: out}, nil
	case map[string]any:
		if ref, ok := v[callableKey].(string); ok && len(v) == 1 {
			return Callable(ref, nil), nil
		}
		if inner, ok := v[mapKey].(map[string]any); ok && len(v) == 1 {
			v = inner
		}
		kwargs, err := decodeKwargs(v)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindMap, m: kwargs}, nil
	}
	return Value{}, fmt.Errorf("%w: unexpected %T", gymerr.ErrMalformedStack, raw)
}

// numberValue keeps literals with a fraction or exponent as floats
func numberValue(n json.Number) (Value, error) {
	if strings.ContainsAny(n.String(), ".eE") {
		f, err := n.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %s", gymerr.ErrMalformedStack, err)
		}
		return Float(f), nil
	}
	i, err := n.Int64()
	if err != nil {
		return Value{}, fmt.Errorf("%w: %s", gymerr.ErrMalformedStack, err)
	}
	return Int(i), nil
}
