// Package registry builds named environments and rebuilds wrapper chains
// from their spec stacks.
package registry

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/zeu5/gymkit/core"
	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/specs"
	"github.com/zeu5/gymkit/wrappers"
)

// Factory builds a base environment from its arguments
type Factory func(kwargs specs.Kwargs) (core.Env, error)

// Registry holds environment specs and the entry points that build them.
// Registration is expected during setup, Make is safe for concurrent use.
type Registry struct {
	lock        *sync.RWMutex
	specs       map[string]specs.EnvSpec
	entryPoints map[string]Factory
	catalog     *wrappers.Catalog
}

type Option func(*Registry)

// WithCatalog replaces the wrapper catalog used to rebuild spec stacks
func WithCatalog(c *wrappers.Catalog) Option {
	return func(r *Registry) {
		r.catalog = c
	}
}

func New(opts ...Option) *Registry {
	r := &Registry{
		lock:        new(sync.RWMutex),
		specs:       make(map[string]specs.EnvSpec),
		entryPoints: make(map[string]Factory),
		catalog:     wrappers.DefaultCatalog(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) Catalog() *wrappers.Catalog {
	return r.catalog
}

// AddEntryPoint makes a factory available under name
func (r *Registry) AddEntryPoint(name string, f Factory) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.entryPoints[name] = f
}

// Register adds spec. Registering an existing id replaces the previous spec.
func (r *Registry) Register(spec specs.EnvSpec) error {
	if _, _, _, err := specs.ParseEnvID(spec.ID); err != nil {
		return err
	}
	if spec.EntryPoint == "" {
		return gymerr.Argument("Register", "entry_point", "environment %s has no entry point", spec.ID)
	}
	if spec.Kwargs == nil {
		spec.Kwargs = specs.Kwargs{}
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.specs[spec.ID]; ok {
		log.Printf("registry: overriding environment %s already in registry", spec.ID)
	}
	r.specs[spec.ID] = spec.Clone()
	return nil
}

// Spec returns a copy of the registered spec of id
func (r *Registry) Spec(id string) (specs.EnvSpec, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.find(id)
}

// IDs lists the registered ids in sorted order
func (r *Registry) IDs() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Pprint lists the registered ids grouped by namespace
func (r *Registry) Pprint() string {
	groups := make(map[string][]string)
	for _, id := range r.IDs() {
		ns, _, _, _ := specs.ParseEnvID(id)
		groups[ns] = append(groups[ns], id)
	}
	namespaces := make([]string, 0, len(groups))
	for ns := range groups {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)
	b := new(strings.Builder)
	for _, ns := range namespaces {
		title := ns
		if title == "" {
			title = "default"
		}
		fmt.Fprintf(b, "===== %s =====\n", title)
		fmt.Fprintln(b, strings.Join(groups[ns], "  "))
	}
	return b.String()
}

// find resolves id, falling back to the latest version when none is given
func (r *Registry) find(id string) (specs.EnvSpec, error) {
	if spec, ok := r.specs[id]; ok {
		r.warnDeprecated(spec.ID)
		return spec.Clone(), nil
	}
	ns, name, version, err := specs.ParseEnvID(id)
	if err != nil {
		return specs.EnvSpec{}, err
	}
	versions := r.versions(ns, name)
	if len(versions) == 0 {
		return specs.EnvSpec{}, fmt.Errorf("%w: environment %s doesn't exist", gymerr.ErrNameNotFound, specs.EnvID(ns, name, -1))
	}
	latest := versions[len(versions)-1]
	if version < 0 {
		if latest < 0 {
			return r.specs[specs.EnvID(ns, name, -1)].Clone(), nil
		}
		log.Printf("registry: using the latest versioned environment %s instead of the unversioned %s", specs.EnvID(ns, name, latest), id)
		return r.specs[specs.EnvID(ns, name, latest)].Clone(), nil
	}
	existing := make([]string, 0, len(versions))
	for _, v := range versions {
		existing = append(existing, specs.EnvID(ns, name, v))
	}
	msg := fmt.Sprintf("environment version v%d for %s doesn't exist, existing versions: %s", version, specs.EnvID(ns, name, -1), strings.Join(existing, ", "))
	if version < latest {
		msg += fmt.Sprintf(" (v%d is deprecated, use %s)", version, specs.EnvID(ns, name, latest))
	}
	return specs.EnvSpec{}, fmt.Errorf("%w: %s", gymerr.ErrVersionNotFound, msg)
}

// versions lists the registered versions of ns/name in increasing order, -1 for unversioned
func (r *Registry) versions(ns, name string) []int {
	out := make([]int, 0)
	for id := range r.specs {
		ins, iname, iversion, err := specs.ParseEnvID(id)
		if err == nil && ins == ns && iname == name {
			out = append(out, iversion)
		}
	}
	sort.Ints(out)
	return out
}

func (r *Registry) warnDeprecated(id string) {
	ns, name, version, err := specs.ParseEnvID(id)
	if err != nil || version < 0 {
		return
	}
	versions := r.versions(ns, name)
	if latest := versions[len(versions)-1]; latest > version {
		log.Printf("registry: the environment %s is out of date, consider upgrading to %s", id, specs.EnvID(ns, name, latest))
	}
}

func (r *Registry) entryPoint(name string) (Factory, error) {
	f, ok := r.entryPoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: entry point %q is not registered", gymerr.ErrLookup, name)
	}
	return f, nil
}
