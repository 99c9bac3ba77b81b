package script_import_tile_configs

import (
	"context"
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/model/types"
	"github.com/hera-erp/tilestats/internal/util/rekuest"
)

type tileConfigEntry struct {
	TileID string `json:"tileId"`
	types.UpsertTileConfigRequest
}

func load(path string) ([]*model.TileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read tile configuration file")
	}

	var entries []*tileConfigEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, errors.Wrap(err, "failed to decode tile configuration file")
	}

	configs := make([]*model.TileConfig, 0, len(entries))
	for i, entry := range entries {
		if err := rekuest.ValidTileID(entry.TileID); err != nil {
			return nil, errors.Wrapf(err, "entry %d", i)
		}
		if err := rekuest.ValidStruct(&entry.UpsertTileConfigRequest); err != nil {
			return nil, errors.Wrapf(err, "entry %d (%s)", i, entry.TileID)
		}
		configs = append(configs, entry.ToModel(entry.TileID))
	}

	log.Info().
		Str("file", path).
		Int("count", len(configs)).
		Msg("tile configuration file validated")

	return configs, nil
}

func run(ctx context.Context, deps CommandDeps, configs []*model.TileConfig) error {
	for _, tileConfig := range configs {
		if err := deps.TileConfigService.Upsert(ctx, tileConfig); err != nil {
			return errors.Wrapf(err, "failed to import tile %s", tileConfig.TileID)
		}

		purged, err := deps.TileStatsService.Purge(ctx, tileConfig.TileID)
		if err != nil {
			log.Warn().
				Err(err).
				Str("tileId", tileConfig.TileID).
				Msg("failed to purge cached stats of imported tile")
		}

		log.Info().
			Str("tileId", tileConfig.TileID).
			Int64("purged", purged).
			Msg("tile imported")
	}

	return nil
}
