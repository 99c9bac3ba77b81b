package service

import (
	"context"
	"sync"
	"time"

	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/pkg/apierr"
	"github.com/hera-erp/tilestats/internal/pkg/cache"
	"github.com/hera-erp/tilestats/internal/repo"
)

type fakeStore struct {
	mu         sync.Mutex
	aggregates []*repo.AggregateQuery
	calls      []*repo.FunctionCall

	value any
	err   error
	// block makes every query wait for its context
	block bool
}

func (f *fakeStore) Aggregate(ctx context.Context, q *repo.AggregateQuery) (any, error) {
	f.mu.Lock()
	f.aggregates = append(f.aggregates, q)
	f.mu.Unlock()
	return f.answer(ctx)
}

func (f *fakeStore) Call(ctx context.Context, c *repo.FunctionCall) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	return f.answer(ctx)
}

func (f *fakeStore) answer(ctx context.Context) (any, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.value, f.err
}

// fakeExecutor answers by query table.
type fakeExecutor struct {
	delay  map[string]time.Duration
	values map[string]any
	errs   map[string]*QueryError
}

func (f *fakeExecutor) Execute(ctx context.Context, spec *model.QuerySpec, rctx *model.RequestContext) (any, *QueryError) {
	if d := f.delay[spec.Table]; d > 0 {
		time.Sleep(d)
	}
	if qerr, ok := f.errs[spec.Table]; ok {
		return nil, qerr
	}
	return f.values[spec.Table], nil
}

type fakeConfigs map[string]*model.TileConfig

func (f fakeConfigs) Get(_ context.Context, tileID string) (*model.TileConfig, error) {
	if c, ok := f[tileID]; ok {
		return c, nil
	}
	return nil, apierr.ErrTileNotFound
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*model.TileStats
	cleared []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*model.TileStats{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (*model.TileStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	// hand out a copy like a real round trip would
	cp := *v
	meta := *v.Metadata
	cp.Metadata = &meta
	return &cp, nil
}

func (f *fakeCache) Set(_ context.Context, key string, value *model.TileStats, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *value
	meta := *value.Metadata
	cp.Metadata = &meta
	f.entries[key] = &cp
	return nil
}

func (f *fakeCache) Clear(_ context.Context, sub string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, sub)
	var n int64
	for k := range f.entries {
		if len(k) >= len(sub) && k[:len(sub)] == sub {
			delete(f.entries, k)
			n++
		}
	}
	return n, nil
}

type fakeRecent struct {
	mu      sync.Mutex
	members []string
}

func (f *fakeRecent) Touch(_ context.Context, member string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members = append(f.members, member)
	return nil
}

type fakeLocker struct {
	mu     sync.Mutex
	keys   []string
	held   int
	peak   int
	failed bool
}

func (f *fakeLocker) Lock(_ context.Context, key string) (func(), error) {
	if f.failed {
		return nil, context.DeadlineExceeded
	}
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.held++
	if f.held > f.peak {
		f.peak = f.held
	}
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.held--
		f.mu.Unlock()
	}, nil
}
