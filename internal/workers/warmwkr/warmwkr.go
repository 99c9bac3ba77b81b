package warmwkr

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/app/appcontext"
	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/pkg/cache"
	"github.com/hera-erp/tilestats/internal/service"
)

type RecentSource interface {
	Since(ctx context.Context, t time.Time, limit int64) ([]string, error)
	Trim(ctx context.Context, t time.Time) (int64, error)
}

type Rewarmer interface {
	Rewarm(ctx context.Context, member string, now time.Time) error
}

type WorkerDeps struct {
	fx.In

	Redis            *redis.Client
	TileStatsService *service.TileStats
}

// Worker keeps the stats cache of recently read tiles warm, so that readers rarely wait
// on a full resolution.
type Worker struct {
	// count counts batches worker has completed so far
	count int

	// sep describes the separation time in-between warming two tiles
	sep time.Duration

	// interval describes the interval in-between different batches of job running
	interval time.Duration

	// timeout bounds a single batch
	timeout time.Duration

	// window is how recently a tile must have been read to be warmed
	window time.Duration

	limit int64

	recent RecentSource
	tiles  Rewarmer
}

func Start(conf *appconfig.Config, deps WorkerDeps, lc fx.Lifecycle) {
	if !conf.WorkerEnabled || conf.AppContext.Env != appcontext.EnvServer {
		log.Info().
			Str("evt.name", "worker.warm.disabled").
			Msg("cache warm worker is disabled")
		return
	}
	if conf.StatsCacheTTL <= 0 {
		log.Warn().
			Str("evt.name", "worker.warm.disabled").
			Msg("cache warm worker is enabled but the stats cache is not; nothing to warm")
		return
	}

	w := &Worker{
		sep:      conf.WorkerSeparation,
		interval: conf.WorkerInterval,
		timeout:  conf.WorkerTimeout,
		window:   conf.WorkerRecentWindow,
		limit:    conf.WorkerBatchSize,
		recent:   cache.NewRecent(deps.Redis, constant.RecentAccessKey),
		tiles:    deps.TileStatsService,
	}

	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			cancel = w.do()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}

func (w *Worker) do() context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			log.Info().
				Str("evt.name", "worker.warm.batch.started").
				Int("count", w.count).
				Msg("worker batch started")

			warmed, err := w.batch(ctx)
			if err != nil {
				log.Error().
					Err(err).
					Str("evt.name", "worker.warm.batch.failed").
					Int("count", w.count).
					Msg("worker batch failed")
			}

			log.Info().
				Str("evt.name", "worker.warm.batch.finished").
				Int("count", w.count).
				Int("warmed", warmed).
				Msg("worker batch finished")

			w.count++

			select {
			case <-ctx.Done():
				return
			case <-time.After(w.interval):
			}
		}
	}()

	return cancel
}

// batch rewarms every scope read within the window and forgets older ones.
func (w *Worker) batch(parent context.Context) (warmed int, err error) {
	ctx, cancel := context.WithTimeout(parent, w.timeout)
	defer cancel()

	now := time.Now()
	defer observeWarm(now, &warmed)

	since := now.Add(-w.window)
	if _, err := w.recent.Trim(ctx, since); err != nil {
		log.Warn().
			Err(err).
			Str("evt.name", "worker.warm.trim.failed").
			Msg("failed to trim recent tile accesses")
	}

	members, err := w.recent.Since(ctx, since, w.limit)
	if err != nil {
		return 0, err
	}

	for i, member := range members {
		if i > 0 {
			select {
			case <-ctx.Done():
				return warmed, ctx.Err()
			case <-time.After(w.sep):
			}
		}

		if err := w.tiles.Rewarm(ctx, member, time.Now()); err != nil {
			log.Warn().
				Err(err).
				Str("evt.name", "worker.warm.tile.failed").
				Str("member", member).
				Msg("failed to rewarm tile stats")
			continue
		}
		warmed++
	}

	return warmed, nil
}

func (w *Worker) Count() int {
	return w.count
}
