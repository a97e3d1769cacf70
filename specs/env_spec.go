package specs

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/zeu5/gymkit/gymerr"
)

// EnvSpec describes how to build a base environment
type EnvSpec struct {
	ID         string
	EntryPoint string
	Kwargs     Kwargs

	MaxEpisodeSteps  *int
	RewardThreshold  *float64
	Nondeterministic bool
	OrderEnforce     bool
	Autoreset        bool
}

var envIDRe = regexp.MustCompile(`^(?:([\w:.-]+)/)?([\w:.-]+?)(?:-v(\d+))?$`)

// ParseEnvID splits an id of the form [namespace/]name[-vN]. The version is
// -1 when absent.
func ParseEnvID(id string) (namespace, name string, version int, err error) {
	m := envIDRe.FindStringSubmatch(id)
	if m == nil {
		return "", "", 0, fmt.Errorf("%w: malformed environment id %q, expected [namespace/]name[-vN]", gymerr.ErrConstruction, id)
	}
	version = -1
	if m[3] != "" {
		version, _ = strconv.Atoi(m[3])
	}
	return m[1], m[2], version, nil
}

// EnvID is the inverse of ParseEnvID
func EnvID(namespace, name string, version int) string {
	id := name
	if namespace != "" {
		id = namespace + "/" + id
	}
	if version >= 0 {
		id = fmt.Sprintf("%s-v%d", id, version)
	}
	return id
}

func (e EnvSpec) Clone() EnvSpec {
	c := e
	c.Kwargs = e.Kwargs.Clone()
	if e.MaxEpisodeSteps != nil {
		steps := *e.MaxEpisodeSteps
		c.MaxEpisodeSteps = &steps
	}
	if e.RewardThreshold != nil {
		threshold := *e.RewardThreshold
		c.RewardThreshold = &threshold
	}
	return c
}

func (e EnvSpec) Equal(o EnvSpec) bool {
	return e.ID == o.ID &&
		e.EntryPoint == o.EntryPoint &&
		e.Kwargs.Equal(o.Kwargs) &&
		equalIntPtr(e.MaxEpisodeSteps, o.MaxEpisodeSteps) &&
		equalFloatPtr(e.RewardThreshold, o.RewardThreshold) &&
		e.Nondeterministic == o.Nondeterministic &&
		e.OrderEnforce == o.OrderEnforce &&
		e.Autoreset == o.Autoreset
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IntPtr and FloatPtr help filling optional fields
func IntPtr(i int) *int { return &i }

func FloatPtr(f float64) *float64 { return &f }
