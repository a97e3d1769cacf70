package core

import (
	"github.com/zeu5/gymkit/spaces"
	"github.com/zeu5/gymkit/specs"
	"golang.org/x/exp/rand"
)

// Base holds the state shared by all base environments. Environments embed
// it and implement Reset, Step and Unwrapped.
type Base struct {
	observationSpace spaces.Space
	actionSpace      spaces.Space
	spec             *specs.EnvSpec
	rand             *rand.Rand
}

func NewBase(observationSpace, actionSpace spaces.Space) *Base {
	return &Base{
		observationSpace: observationSpace,
		actionSpace:      actionSpace,
		rand:             rand.New(rand.NewSource(uint64(spaces.Entropy()))),
	}
}

func (b *Base) ObservationSpace() spaces.Space {
	return b.observationSpace
}

func (b *Base) ActionSpace() spaces.Space {
	return b.actionSpace
}

func (b *Base) Spec() *specs.EnvSpec {
	if b.spec == nil {
		return nil
	}
	spec := b.spec.Clone()
	return &spec
}

// SetSpec is called by the registry once the environment is built
func (b *Base) SetSpec(spec specs.EnvSpec) {
	s := spec.Clone()
	b.spec = &s
}

func (b *Base) Close() error {
	return nil
}

// Rand is the random source of the environment
func (b *Base) Rand() *rand.Rand {
	return b.rand
}

// ResetSeed reseeds the random source when a seed is given
func (b *Base) ResetSeed(opts ResetOptions) {
	if opts.Seed != nil {
		b.rand.Seed(uint64(*opts.Seed))
	}
}

// SpecSetter is implemented by environments that accept a spec from the registry
type SpecSetter interface {
	SetSpec(specs.EnvSpec)
}

var _ SpecSetter = &Base{}
