package service

import (
	"context"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/pkg/apierr"
	"github.com/hera-erp/tilestats/internal/pkg/cache"
	"github.com/hera-erp/tilestats/internal/pkg/observability"
	"github.com/hera-erp/tilestats/internal/util/condition"
)

const (
	modeRead    = "read"
	modeRefresh = "refresh"
	modeWarm    = "warm"
)

type TileConfigSource interface {
	Get(ctx context.Context, tileID string) (*model.TileConfig, error)
}

type StatsCache interface {
	Get(ctx context.Context, key string) (*model.TileStats, error)
	Set(ctx context.Context, key string, value *model.TileStats, expire time.Duration) error
	Clear(ctx context.Context, sub string) (int64, error)
}

type AccessRecorder interface {
	Touch(ctx context.Context, member string, at time.Time) error
}

// Locker serializes work on a key across instances.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type TileStats struct {
	Configs    TileConfigSource
	Aggregator *StatAggregator

	// Cache, Recent and Locker are optional.
	Cache    StatsCache
	Recent   AccessRecorder
	Locker   Locker
	CacheTTL time.Duration
}

func NewTileStats(conf *appconfig.Config, tileConfig *TileConfig, statAggregator *StatAggregator, client *redis.Client, rs *redsync.Redsync) *TileStats {
	s := &TileStats{
		Configs:    tileConfig,
		Aggregator: statAggregator,
		Recent:     cache.NewRecent(client, constant.RecentAccessKey),
		Locker:     redsyncLocker{rs: rs},
		CacheTTL:   conf.StatsCacheTTL,
	}
	if conf.StatsCacheTTL > 0 {
		s.Cache = cache.NewSet[model.TileStats](client, constant.StatsCachePrefix)
	}
	return s
}

// Read resolves the stats of tileID for rctx, serving and filling the result cache when useCache is set.
// Cache: tile stats by scope, StatsCacheTTL; only fully successful batches
func (s *TileStats) Read(ctx context.Context, tileID string, rctx *model.RequestContext, useCache bool) (*model.TileStats, error) {
	tileConfig, err := s.Configs.Get(ctx, tileID)
	if err != nil {
		return nil, err
	}

	scope := scopeOf(tileID, rctx)
	useCache = useCache && s.Cache != nil

	if useCache {
		cached, err := s.Cache.Get(ctx, scope.cacheKey())
		if err == nil {
			cached.Metadata.Cached = true
			observability.TileResolutions.WithLabelValues(modeRead, "hit").Inc()
			s.touch(ctx, scope, rctx.Now)
			return cached, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("evt.name", "tilestats.cache.get.failed").
				Str("tileId", tileID).
				Msg("stats cache unavailable, resolving directly")
		}
	}

	result := s.resolve(ctx, tileConfig, rctx, modeRead)
	if useCache {
		observability.TileResolutions.WithLabelValues(modeRead, "miss").Inc()
		s.store(ctx, scope, result)
		s.touch(ctx, scope, rctx.Now)
	} else {
		observability.TileResolutions.WithLabelValues(modeRead, "bypass").Inc()
	}
	return result, nil
}

// Refresh re-resolves the stats of tileID bypassing the cache, and replaces the cached result.
// Concurrent refreshes of the same scope run one after another.
func (s *TileStats) Refresh(ctx context.Context, tileID string, rctx *model.RequestContext) (*model.TileStats, error) {
	tileConfig, err := s.Configs.Get(ctx, tileID)
	if err != nil {
		return nil, err
	}

	scope := scopeOf(tileID, rctx)
	if s.Locker != nil {
		unlock, err := s.Locker.Lock(ctx, constant.RefreshLockPrefix+scope.cacheKey())
		if err != nil {
			log.Ctx(ctx).Warn().
				Err(err).
				Str("evt.name", "tilestats.refresh.lock.failed").
				Str("tileId", tileID).
				Msg("failed to acquire refresh lock")
			return nil, apierr.ErrRefreshInProgress
		}
		defer unlock()
	}

	result := s.resolve(ctx, tileConfig, rctx, modeRefresh)
	observability.TileResolutions.WithLabelValues(modeRefresh, "bypass").Inc()
	if s.Cache != nil {
		s.store(ctx, scope, result)
	}

	result.Refreshed = true
	return result, nil
}

// Rewarm re-resolves a scope previously recorded by Read and rewrites its cache entry.
func (s *TileStats) Rewarm(ctx context.Context, member string, now time.Time) error {
	if s.Cache == nil {
		return nil
	}

	scope, err := parseScope(member)
	if err != nil {
		return errors.Wrap(err, "malformed recent access member")
	}
	rctx, err := scope.requestContext(now)
	if err != nil {
		return err
	}

	tileConfig, err := s.Configs.Get(ctx, scope.TileID)
	if err != nil {
		return err
	}

	result := s.resolve(ctx, tileConfig, rctx, modeWarm)
	s.store(ctx, scope, result)
	return nil
}

// Purge drops cached results of tileID, or of every tile when tileID is empty.
func (s *TileStats) Purge(ctx context.Context, tileID string) (int64, error) {
	if s.Cache == nil {
		return 0, nil
	}
	sub := ""
	if tileID != "" {
		sub = tilePrefix(tileID)
	}
	return s.Cache.Clear(ctx, sub)
}

func (s *TileStats) resolve(ctx context.Context, tileConfig *model.TileConfig, rctx *model.RequestContext, mode string) *model.TileStats {
	start := time.Now()

	results := []*model.ResolvedStat{}
	if condition.Evaluate(tileConfig.Conditions, rctx) {
		results = s.Aggregator.RunAll(ctx, tileConfig.Stats, rctx)
	}

	elapsed := time.Since(start)
	observability.TileResolveDuration.WithLabelValues(mode).Observe(elapsed.Seconds())

	return &model.TileStats{
		Success:  true,
		Stats:    results,
		Metadata: Summarize(tileConfig.TileID, rctx, results, elapsed),
	}
}

func (s *TileStats) store(ctx context.Context, scope statsScope, result *model.TileStats) {
	if result.Metadata.FailedStats > 0 {
		return
	}
	if err := s.Cache.Set(ctx, scope.cacheKey(), result, s.CacheTTL); err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("evt.name", "tilestats.cache.set.failed").
			Str("tileId", scope.TileID).
			Msg("failed to cache tile stats")
	}
}

func (s *TileStats) touch(ctx context.Context, scope statsScope, at time.Time) {
	if s.Recent == nil {
		return
	}
	if err := s.Recent.Touch(ctx, scope.member(), at); err != nil {
		log.Ctx(ctx).Debug().
			Err(err).
			Str("evt.name", "tilestats.recent.touch.failed").
			Msg("failed to record tile access")
	}
}

type redsyncLocker struct {
	rs *redsync.Redsync
}

func (l redsyncLocker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(key,
		redsync.WithExpiry(constant.RefreshLockExpiry),
		redsync.WithTries(40),
		redsync.WithRetryDelay(250*time.Millisecond),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, err
	}

	return func() {
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			log.Warn().
				Err(err).
				Str("evt.name", "tilestats.refresh.unlock.failed").
				Str("key", key).
				Msg("failed to release refresh lock")
		}
	}, nil
}
