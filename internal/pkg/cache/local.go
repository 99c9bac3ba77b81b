package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// NewLocal creates an in-process cache whose entries expire after ttl.
func NewLocal[T any](ttl time.Duration) *Local[T] {
	return &Local[T]{
		c: cache.New(ttl, ttl*2),
	}
}

type Local[T any] struct {
	c     *cache.Cache
	group singleflight.Group
}

func (l *Local[T]) Get(key string) (T, bool) {
	v, ok := l.c.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

func (l *Local[T]) Set(key string, value T) {
	l.c.SetDefault(key, value)
}

// GetOrLoad returns the cached value for key, or calls load once for all concurrent
// callers of the same key and caches its result on success.
func (l *Local[T]) GetOrLoad(key string, load func() (T, error)) (T, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		if v, ok := l.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return v, err
		}
		l.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (l *Local[T]) Delete(key string) {
	l.c.Delete(key)
}
