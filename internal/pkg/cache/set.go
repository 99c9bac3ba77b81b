package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vmihailenco/msgpack/v5"
)

var ErrMiss = errors.New("cache: key not found")

func NewSet[T any](client *redis.Client, prefix string) *Set[T] {
	return &Set[T]{
		client: client,
		prefix: prefix + ":",
	}
}

// Set is a namespace of msgpack-encoded values of type T stored in redis.
type Set[T any] struct {
	client *redis.Client
	prefix string
}

func (c *Set[T]) key(key string) string {
	return c.prefix + key
}

// Get returns ErrMiss when key does not exist.
func (c *Set[T]) Get(ctx context.Context, key string) (*T, error) {
	key = c.key(key)
	resp, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		log.Error().Err(err).Str("key", key).Msg("failed to get value from redis")
		return nil, err
	}

	var dest T
	if err := msgpack.Unmarshal(resp, &dest); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to unmarshal value from msgpack from redis")
		return nil, err
	}
	return &dest, nil
}

func (c *Set[T]) Set(ctx context.Context, key string, value *T, expire time.Duration) error {
	key = c.key(key)
	if l := log.Trace(); l.Enabled() {
		l.Str("key", key).Msg("setting value to redis")
	}
	b, err := msgpack.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to marshal value with msgpack")
		return err
	}
	if err := c.client.Set(ctx, key, b, expire).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to set value to redis")
		return err
	}
	return nil
}

var clearScript = redis.NewScript(`local keys = redis.call('keys', ARGV[1])
	for i=1,#keys,5000 do
		redis.call('del', unpack(keys, i, math.min(i+4999, #keys)))
	end
return #keys`)

// Clear deletes every key in the set starting with sub. An empty sub clears the whole set.
func (c *Set[T]) Clear(ctx context.Context, sub string) (int64, error) {
	pattern := c.prefix + sub + "*"
	n, err := clearScript.Eval(ctx, c.client, []string{}, pattern).Int64()
	if err != nil {
		log.Error().Err(err).Str("pattern", pattern).Msg("failed to clear cache")
		return 0, err
	}
	return n, nil
}
