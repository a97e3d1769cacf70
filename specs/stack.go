package specs

// Stack is the ordered description of a wrapper chain: wrapper layers
// from the outermost inwards, terminated by the base environment spec
type Stack struct {
	Wrappers []WrapperSpec
	Env      EnvSpec
}

// Len counts the layers including the base environment
func (s Stack) Len() int {
	return len(s.Wrappers) + 1
}

func (s Stack) Clone() Stack {
	wrappers := make([]WrapperSpec, len(s.Wrappers))
	for i, w := range s.Wrappers {
		wrappers[i] = w.Clone()
	}
	return Stack{Wrappers: wrappers, Env: s.Env.Clone()}
}

func (s Stack) Equal(o Stack) bool {
	if len(s.Wrappers) != len(o.Wrappers) {
		return false
	}
	for i := range s.Wrappers {
		if !s.Wrappers[i].Equal(o.Wrappers[i]) {
			return false
		}
	}
	return s.Env.Equal(o.Env)
}

// HasCallable reports whether any layer takes a callable argument
func (s Stack) HasCallable() bool {
	for _, w := range s.Wrappers {
		if w.Kwargs.HasCallable() {
			return true
		}
	}
	return s.Env.Kwargs.HasCallable()
}

// Names lists the versioned wrapper names, outermost first
func (s Stack) Names() []string {
	out := make([]string, len(s.Wrappers))
	for i, w := range s.Wrappers {
		out[i] = w.FullName()
	}
	return out
}
