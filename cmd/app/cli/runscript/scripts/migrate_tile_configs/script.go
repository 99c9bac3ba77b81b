package script_migrate_tile_configs

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

func run(ctx context.Context, deps CommandDeps) error {
	if err := deps.TileConfigRepo.CreateTable(ctx); err != nil {
		return errors.Wrap(err, "failed to create tile_configs table")
	}

	log.Info().Msg("tile_configs table is ready")

	return nil
}
