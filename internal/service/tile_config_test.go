package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/pkg/apierr"
)

type fakeTileConfigStore struct {
	mu      sync.Mutex
	configs map[string]*model.TileConfig
	loads   int
}

func (f *fakeTileConfigStore) GetTileConfigByID(_ context.Context, tileID string) (*model.TileConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	c, ok := f.configs[tileID]
	if !ok {
		return nil, apierr.ErrNotFound
	}
	return c, nil
}

func (f *fakeTileConfigStore) GetTileConfigs(context.Context) ([]*model.TileConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.TileConfig, 0, len(f.configs))
	for _, c := range f.configs {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeTileConfigStore) UpsertTileConfig(_ context.Context, tileConfig *model.TileConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs[tileConfig.TileID] = tileConfig
	return nil
}

func newTestTileConfig(configs ...*model.TileConfig) (*TileConfig, *fakeTileConfigStore) {
	store := &fakeTileConfigStore{configs: map[string]*model.TileConfig{}}
	for _, c := range configs {
		store.configs[c.TileID] = c
	}
	conf := &appconfig.Config{}
	conf.TileConfigCacheTTL = time.Minute
	return NewLocalTileConfig(store, conf), store
}

func TestTileConfigGetCaches(t *testing.T) {
	svc, store := newTestTileConfig(&model.TileConfig{TileID: "revenue", Stats: []*model.StatDeclaration{stat("a", "a")}})

	for i := 0; i < 3; i++ {
		c, err := svc.Get(context.Background(), "revenue")
		require.NoError(t, err)
		assert.Equal(t, "revenue", c.TileID)
	}
	assert.Equal(t, 1, store.loads)

	svc.Evict("revenue")
	_, err := svc.Get(context.Background(), "revenue")
	require.NoError(t, err)
	assert.Equal(t, 2, store.loads)
}

func TestTileConfigNotFound(t *testing.T) {
	svc, store := newTestTileConfig()

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apierr.ErrTileNotFound)

	// misses are not cached
	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, apierr.ErrTileNotFound)
	assert.Equal(t, 2, store.loads)
}

func TestTileConfigDuplicateStatID(t *testing.T) {
	svc, _ := newTestTileConfig(&model.TileConfig{
		TileID: "dup",
		Stats:  []*model.StatDeclaration{stat("a", "a"), stat("a", "b")},
	})

	_, err := svc.Get(context.Background(), "dup")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.ErrInternalError.ErrorCode, apiErr.ErrorCode)
	assert.Contains(t, apiErr.Message, "more than once")
}

func TestTileConfigUpsert(t *testing.T) {
	svc, store := newTestTileConfig(&model.TileConfig{TileID: "t", Title: "Old"})

	c, err := svc.Get(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "Old", c.Title)

	require.NoError(t, svc.Upsert(context.Background(), &model.TileConfig{TileID: "t", Title: "New"}))
	c, err = svc.Get(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "New", c.Title)
	assert.Equal(t, 2, store.loads)

	err = svc.Upsert(context.Background(), &model.TileConfig{
		TileID: "t",
		Stats:  []*model.StatDeclaration{stat("x", "a"), stat("x", "b")},
	})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.ErrInvalidReq.ErrorCode, apiErr.ErrorCode)
	assert.Equal(t, "New", store.configs["t"].Title)
}
