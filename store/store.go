// Package store keeps serialized spec stacks under names.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zeu5/gymkit/gymerr"
	"github.com/zeu5/gymkit/specs"
)

// Store persists spec stacks in their serialized form. Get refuses stacks
// holding callables, GetUnsafe loads them as opaque references.
type Store interface {
	Put(ctx context.Context, name string, stack specs.Stack) error
	Get(ctx context.Context, name string) (specs.Stack, error)
	GetUnsafe(ctx context.Context, name string) (specs.Stack, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

// Memory is a Store backed by a map
type Memory struct {
	lock  *sync.RWMutex
	texts map[string]string
}

var _ Store = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		lock:  new(sync.RWMutex),
		texts: make(map[string]string),
	}
}

func (m *Memory) Put(_ context.Context, name string, stack specs.Stack) error {
	text, err := specs.Serialize(stack)
	if err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.texts[name] = text
	return nil
}

func (m *Memory) Get(ctx context.Context, name string) (specs.Stack, error) {
	return m.get(name)
}

func (m *Memory) GetUnsafe(ctx context.Context, name string) (specs.Stack, error) {
	return m.get(name, specs.AllowUnsafe())
}

func (m *Memory) get(name string, opts ...specs.DeserializeOption) (specs.Stack, error) {
	m.lock.RLock()
	text, ok := m.texts[name]
	m.lock.RUnlock()
	if !ok {
		return specs.Stack{}, notFound(name)
	}
	return specs.Deserialize(text, opts...)
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	names := make([]string, 0, len(m.texts))
	for name := range m.texts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.texts[name]; !ok {
		return notFound(name)
	}
	delete(m.texts, name)
	return nil
}

func notFound(name string) error {
	return fmt.Errorf("%w: %q", gymerr.ErrStackNotFound, name)
}
