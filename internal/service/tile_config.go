package service

import (
	"context"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/pkg/apierr"
	"github.com/hera-erp/tilestats/internal/pkg/cache"
	"github.com/hera-erp/tilestats/internal/repo"
)

type TileConfigStore interface {
	GetTileConfigByID(ctx context.Context, tileID string) (*model.TileConfig, error)
	GetTileConfigs(ctx context.Context) ([]*model.TileConfig, error)
	UpsertTileConfig(ctx context.Context, tileConfig *model.TileConfig) error
}

type TileConfig struct {
	Store TileConfigStore
	// NATS is optional; without it invalidations stay local to this instance.
	NATS *nats.Conn

	local *cache.Local[*model.TileConfig]
}

func NewTileConfig(conf *appconfig.Config, tileConfigRepo *repo.TileConfig, nc *nats.Conn, lc fx.Lifecycle) *TileConfig {
	s := &TileConfig{
		Store: tileConfigRepo,
		NATS:  nc,
		local: cache.NewLocal[*model.TileConfig](conf.TileConfigCacheTTL),
	}

	var sub *nats.Subscription
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) (err error) {
			sub, err = nc.Subscribe(constant.TileConfigUpdatedSubject, s.onConfigUpdated)
			return err
		},
		OnStop: func(ctx context.Context) error {
			if sub == nil {
				return nil
			}
			return sub.Unsubscribe()
		},
	})

	return s
}

// NewLocalTileConfig creates a loader without a message bus.
func NewLocalTileConfig(store TileConfigStore, conf *appconfig.Config) *TileConfig {
	return &TileConfig{
		Store: store,
		local: cache.NewLocal[*model.TileConfig](conf.TileConfigCacheTTL),
	}
}

func (s *TileConfig) onConfigUpdated(msg *nats.Msg) {
	tileID := string(msg.Data)
	log.Debug().
		Str("evt.name", "tileconfig.invalidated").
		Str("tileId", tileID).
		Msg("evicting tile configuration on update notice")
	s.Evict(tileID)
}

// Cache: tile config by id, TileConfigCacheTTL; evicted on update notices
func (s *TileConfig) Get(ctx context.Context, tileID string) (*model.TileConfig, error) {
	return s.local.GetOrLoad(tileID, func() (*model.TileConfig, error) {
		tileConfig, err := s.Store.GetTileConfigByID(ctx, tileID)
		if errors.Is(err, apierr.ErrNotFound) {
			return nil, apierr.ErrTileNotFound
		} else if err != nil {
			return nil, errors.Wrapf(err, "failed to load tile config %s", tileID)
		}

		if statID, dup := tileConfig.DuplicateStatID(); dup {
			log.Error().
				Str("evt.name", "tileconfig.invalid").
				Str("tileId", tileID).
				Str("statId", statID).
				Msg("tile config declares a stat id more than once")
			return nil, apierr.ErrInternalError.Msg("tile %s declares stat %s more than once", tileID, statID)
		}
		return tileConfig, nil
	})
}

// List reads every tile configuration from the store, bypassing the cache.
func (s *TileConfig) List(ctx context.Context) ([]*model.TileConfig, error) {
	return s.Store.GetTileConfigs(ctx)
}

// Upsert validates and stores tileConfig, then tells every instance to drop its cached copy.
func (s *TileConfig) Upsert(ctx context.Context, tileConfig *model.TileConfig) error {
	if statID, dup := tileConfig.DuplicateStatID(); dup {
		return apierr.ErrInvalidReq.Msg("stat id %q is declared more than once", statID)
	}

	if err := s.Store.UpsertTileConfig(ctx, tileConfig); err != nil {
		return errors.Wrapf(err, "failed to upsert tile config %s", tileConfig.TileID)
	}

	s.Evict(tileConfig.TileID)
	if s.NATS != nil {
		if err := s.NATS.Publish(constant.TileConfigUpdatedSubject, []byte(tileConfig.TileID)); err != nil {
			log.Error().
				Err(err).
				Str("evt.name", "tileconfig.publish.failed").
				Str("tileId", tileConfig.TileID).
				Msg("failed to publish tile config update; other instances keep their copy until it expires")
		}
	}
	return nil
}

func (s *TileConfig) Evict(tileID string) {
	s.local.Delete(tileID)
}
