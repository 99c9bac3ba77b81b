package script_import_tile_configs

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/service"
)

type CommandDeps struct {
	fx.In

	TileConfigService *service.TileConfig
	TileStatsService  *service.TileStats
}

func Command(depsFn func() CommandDeps) *cli.Command {
	return &cli.Command{
		Name:        "import_tile_configs",
		Description: "upsert tile configurations from a JSON file and purge their cached stats",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "path to a JSON array of tile configurations, each carrying its `tileId`",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "only validate the file",
			},
		},
		Action: func(ctx *cli.Context) error {
			configs, err := load(ctx.String("file"))
			if err != nil {
				return err
			}
			if ctx.Bool("dry-run") {
				return nil
			}
			return run(ctx.Context, depsFn(), configs)
		},
	}
}
