// Package wrappers is the collection of versioned environment wrappers and
// the catalog used to rebuild them from their specs.
package wrappers

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/specs"
)

// Builder rebuilds a wrapper around env from recorded arguments
type Builder func(env core.Env, kw specs.Kwargs) (core.Env, error)

type family struct {
	latest int
	build  Builder
}

// Catalog maps wrapper families to the builder of their latest version
type Catalog struct {
	families map[string]family
}

func NewCatalog() *Catalog {
	return &Catalog{families: make(map[string]family)}
}

// DefaultCatalog holds every wrapper of this package
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	c.Add("TimeLimit", 0, buildTimeLimit)
	c.Add("OrderEnforcing", 0, buildOrderEnforcing)
	c.Add("Autoreset", 0, buildAutoreset)
	c.Add("RecordEpisodeStatistics", 0, buildRecordEpisodeStatistics)

	c.Add("LambdaReward", 0, buildLambdaReward)
	c.Add("ClipReward", 0, buildClipReward)
	c.Add("NormalizeReward", 1, buildNormalizeReward)

	c.Add("LambdaAction", 0, buildLambdaAction)
	c.Add("ClipAction", 0, buildClipAction)
	c.Add("RescaleAction", 0, buildRescaleAction)
	c.Add("StickyAction", 0, buildStickyAction)

	c.Add("LambdaObservation", 0, buildLambdaObservation)
	c.Add("FilterObservation", 0, buildFilterObservation)
	c.Add("FlattenObservation", 0, buildFlattenObservation)
	c.Add("DtypeObservation", 0, buildDtypeObservation)
	c.Add("RescaleObservation", 0, buildRescaleObservation)
	c.Add("NormalizeObservation", 0, buildNormalizeObservation)
	c.Add("TimeAwareObservation", 0, buildTimeAwareObservation)
	c.Add("DelayObservation", 0, buildDelayObservation)
	c.Add("FrameStackObservation", 0, buildFrameStackObservation)

	c.Add("VecToSlice", 0, buildVecToSlice)
	return c
}

// Add registers the latest version of a family, replacing any previous entry
func (c *Catalog) Add(name string, latest int, build Builder) {
	c.families[name] = family{latest: latest, build: build}
}

// Names lists the versioned names of the latest wrappers
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.families))
	for name, f := range c.families {
		out = append(out, fmt.Sprintf("%sV%d", name, f.latest))
	}
	sort.Strings(out)
	return out
}

var trailingVersionRe = regexp.MustCompile(`V?\d*$`)

// Lookup resolves a versioned name such as ClipRewardV0. Older versions
// are reported as deprecated, other versions as wrong.
func (c *Catalog) Lookup(fullName string) (Builder, error) {
	name, version, err := specs.ParseWrapperName(fullName)
	if err != nil {
		base := trailingVersionRe.ReplaceAllString(fullName, "")
		if f, ok := c.families[base]; ok {
			return nil, &gymerr.VersionError{Requested: fullName, Family: base, Latest: f.latest, Invalid: true}
		}
		return nil, fmt.Errorf("%w: %s", gymerr.ErrUnknownWrapper, fullName)
	}
	f, ok := c.families[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gymerr.ErrUnknownWrapper, fullName)
	}
	switch {
	case version < f.latest:
		return nil, &gymerr.VersionError{Requested: fullName, Family: name, Latest: f.latest, Deprecated: true}
	case version > f.latest:
		return nil, &gymerr.VersionError{Requested: fullName, Family: name, Latest: f.latest}
	}
	return f.build, nil
}

// Build wraps env with the layer described by spec
func (c *Catalog) Build(env core.Env, spec specs.WrapperSpec) (core.Env, error) {
	build, err := c.Lookup(spec.FullName())
	if err != nil {
		return nil, err
	}
	return build(env, spec.Kwargs.Clone())
}
