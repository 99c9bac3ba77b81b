package warmwkr

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeRecent struct {
	members []string
	trimmed []time.Time
	limit   int64
}

func (f *fakeRecent) Since(_ context.Context, _ time.Time, limit int64) ([]string, error) {
	f.limit = limit
	return f.members, nil
}

func (f *fakeRecent) Trim(_ context.Context, t time.Time) (int64, error) {
	f.trimmed = append(f.trimmed, t)
	return 0, nil
}

type fakeRewarmer struct {
	mu     sync.Mutex
	warmed []string
	fail   map[string]bool
}

func (f *fakeRewarmer) Rewarm(_ context.Context, member string, _ time.Time) error {
	if f.fail[member] {
		return errors.New("tile not found")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warmed = append(f.warmed, member)
	return nil
}

func (f *fakeRewarmer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.warmed)
}

func TestBatchWarmsRecentTiles(t *testing.T) {
	recent := &fakeRecent{members: []string{"a", "b", "c"}}
	tiles := &fakeRewarmer{fail: map[string]bool{"b": true}}
	w := &Worker{
		timeout: time.Second,
		window:  30 * time.Minute,
		limit:   10,
		recent:  recent,
		tiles:   tiles,
	}

	start := time.Now()
	warmed, err := w.batch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, warmed)
	assert.Equal(t, []string{"a", "c"}, tiles.warmed)
	assert.Equal(t, int64(10), recent.limit)
	require.Len(t, recent.trimmed, 1)
	assert.WithinDuration(t, start.Add(-30*time.Minute), recent.trimmed[0], time.Second)
}

func TestBatchStopsOnCancel(t *testing.T) {
	recent := &fakeRecent{members: []string{"a", "b"}}
	tiles := &fakeRewarmer{}
	w := &Worker{
		sep:     time.Hour,
		timeout: time.Hour,
		limit:   10,
		recent:  recent,
		tiles:   tiles,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	warmed, err := w.batch(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, warmed)
	assert.Equal(t, []string{"a"}, tiles.warmed)
}

func TestWorkerStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	tiles := &fakeRewarmer{}
	w := &Worker{
		interval: time.Hour,
		timeout:  time.Second,
		window:   time.Minute,
		limit:    10,
		recent:   &fakeRecent{members: []string{"a"}},
		tiles:    tiles,
	}

	cancel := w.do()
	require.Eventually(t, func() bool { return tiles.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
}
