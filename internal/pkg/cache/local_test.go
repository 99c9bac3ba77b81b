package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalGetOrLoadCoalesces(t *testing.T) {
	l := NewLocal[string](time.Minute)

	var calls atomic.Int32
	release := make(chan struct{})
	load := func() (string, error) {
		calls.Add(1)
		<-release
		return "loaded", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := l.GetOrLoad("k", load)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "loaded", r)
	}

	v, ok := l.Get("k")
	require.True(t, ok)
	assert.Equal(t, "loaded", v)
}

func TestLocalErrorsAreNotCached(t *testing.T) {
	l := NewLocal[int](time.Minute)
	boom := errors.New("boom")

	_, err := l.GetOrLoad("k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := l.Get("k")
	assert.False(t, ok)

	v, err := l.GetOrLoad("k", func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	l.Delete("k")
	_, ok = l.Get("k")
	assert.False(t, ok)
}
