package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"github.com/zeu5/gymkit/specs"
)

// Redis is a Store keeping the serialized stacks in a single redis hash
type Redis struct {
	client redis.Cmdable
	key    string
}

var _ Store = &Redis{}

// NewRedis stores stacks in the hash prefix + ":stacks"
func NewRedis(client redis.Cmdable, prefix string) *Redis {
	if prefix == "" {
		prefix = "gymkit"
	}
	return &Redis{
		client: client,
		key:    prefix + ":stacks",
	}
}

// NewRedisAddr connects to the redis server at addr
func NewRedisAddr(addr, prefix string) *Redis {
	return NewRedis(redis.NewClient(&redis.Options{
		Addr: addr,
	}), prefix)
}

func (r *Redis) Put(ctx context.Context, name string, stack specs.Stack) error {
	text, err := specs.Serialize(stack)
	if err != nil {
		return err
	}
	if err := r.client.HSet(ctx, r.key, name, text).Err(); err != nil {
		return fmt.Errorf("error storing %s: %s", name, err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, name string) (specs.Stack, error) {
	return r.get(ctx, name)
}

func (r *Redis) GetUnsafe(ctx context.Context, name string) (specs.Stack, error) {
	return r.get(ctx, name, specs.AllowUnsafe())
}

func (r *Redis) get(ctx context.Context, name string, opts ...specs.DeserializeOption) (specs.Stack, error) {
	text, err := r.client.HGet(ctx, r.key, name).Result()
	if errors.Is(err, redis.Nil) {
		return specs.Stack{}, notFound(name)
	} else if err != nil {
		return specs.Stack{}, fmt.Errorf("error reading %s: %s", name, err)
	}
	return specs.Deserialize(text, opts...)
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	names, err := r.client.HKeys(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("error listing stacks: %s", err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *Redis) Delete(ctx context.Context, name string) error {
	n, err := r.client.HDel(ctx, r.key, name).Result()
	if err != nil {
		return fmt.Errorf("error deleting %s: %s", name, err)
	}
	if n == 0 {
		return notFound(name)
	}
	return nil
}
