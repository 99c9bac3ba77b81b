package script_migrate_tile_configs

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/repo"
)

type CommandDeps struct {
	fx.In

	TileConfigRepo *repo.TileConfig
}

func Command(depsFn func() CommandDeps) *cli.Command {
	return &cli.Command{
		Name:        "migrate_tile_configs",
		Description: "create the `tile_configs` table if it does not exist yet",
		Action: func(ctx *cli.Context) error {
			return run(ctx.Context, depsFn())
		},
	}
}
