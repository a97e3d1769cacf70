package envs

import (
	"github.com/zeu5/gymkit/registry"
	"github.com/zeu5/gymkit/specs"
)

const (
	CartPoleEntryPoint  = "envs:CartPole"
	GridWorldEntryPoint = "envs:GridWorld"
	GenericEntryPoint   = "envs:Generic"
)

// Register adds the built in entry points and environments to r
func Register(r *registry.Registry) error {
	r.AddEntryPoint(CartPoleEntryPoint, newCartPoleFromKwargs)
	r.AddEntryPoint(GridWorldEntryPoint, newGridWorldFromKwargs)
	r.AddEntryPoint(GenericEntryPoint, newGenericFromKwargs)

	for _, spec := range []specs.EnvSpec{
		{
			ID:              "CartPole-v0",
			EntryPoint:      CartPoleEntryPoint,
			MaxEpisodeSteps: specs.IntPtr(200),
			RewardThreshold: specs.FloatPtr(195),
			OrderEnforce:    true,
		},
		{
			ID:              "CartPole-v1",
			EntryPoint:      CartPoleEntryPoint,
			MaxEpisodeSteps: specs.IntPtr(500),
			RewardThreshold: specs.FloatPtr(475),
			OrderEnforce:    true,
		},
		{
			ID:              "GridWorld-v0",
			EntryPoint:      GridWorldEntryPoint,
			Kwargs:          specs.Kwargs{"height": specs.Int(5), "width": specs.Int(5), "grids": specs.Int(2)},
			MaxEpisodeSteps: specs.IntPtr(100),
			RewardThreshold: specs.FloatPtr(1),
			OrderEnforce:    true,
		},
	} {
		if err := r.Register(spec); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry is a registry holding the built in environments
func NewRegistry(opts ...registry.Option) *registry.Registry {
	r := registry.New(opts...)
	if err := Register(r); err != nil {
		panic(err)
	}
	return r
}
