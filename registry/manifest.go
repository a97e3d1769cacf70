package registry

import (
	"fmt"
	"os"

	"github.com/zeu5/gymkit/specs"
	"gopkg.in/yaml.v3"
)

// ManifestEntry is a single registration in a YAML manifest
type ManifestEntry struct {
	ID               string         `yaml:"id"`
	EntryPoint       string         `yaml:"entry_point"`
	Kwargs           map[string]any `yaml:"kwargs"`
	MaxEpisodeSteps  *int           `yaml:"max_episode_steps"`
	RewardThreshold  *float64       `yaml:"reward_threshold"`
	Nondeterministic bool           `yaml:"nondeterministic"`
	OrderEnforce     *bool          `yaml:"order_enforce"`
	Autoreset        bool           `yaml:"autoreset"`
}

type Manifest struct {
	Envs []ManifestEntry `yaml:"envs"`
}

// ParseManifest decodes a manifest into env specs. order_enforce defaults to true.
func ParseManifest(data []byte) ([]specs.EnvSpec, error) {
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("error parsing manifest: %s", err)
	}
	out := make([]specs.EnvSpec, 0, len(m.Envs))
	for _, e := range m.Envs {
		kwargs, err := specs.NewKwargs(e.Kwargs)
		if err != nil {
			return nil, fmt.Errorf("manifest entry %s: %w", e.ID, err)
		}
		orderEnforce := true
		if e.OrderEnforce != nil {
			orderEnforce = *e.OrderEnforce
		}
		out = append(out, specs.EnvSpec{
			ID:               e.ID,
			EntryPoint:       e.EntryPoint,
			Kwargs:           kwargs,
			MaxEpisodeSteps:  e.MaxEpisodeSteps,
			RewardThreshold:  e.RewardThreshold,
			Nondeterministic: e.Nondeterministic,
			OrderEnforce:     orderEnforce,
			Autoreset:        e.Autoreset,
		})
	}
	return out, nil
}

// LoadManifest registers every entry of the manifest at path
func LoadManifest(r *Registry, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("error reading manifest: %s", err)
	}
	entries, err := ParseManifest(data)
	if err != nil {
		return 0, err
	}
	for _, spec := range entries {
		if err := r.Register(spec); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}
