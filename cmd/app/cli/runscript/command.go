package runscript

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	cliapp "github.com/hera-erp/tilestats/cmd/app/cli"
	script_import_tile_configs "github.com/hera-erp/tilestats/cmd/app/cli/runscript/scripts/import_tile_configs"
	script_migrate_tile_configs "github.com/hera-erp/tilestats/cmd/app/cli/runscript/scripts/migrate_tile_configs"
)

func depsFn[T any]() func() T {
	return func() T {
		var deps T
		cliapp.Start(fx.Populate(&deps))
		return deps
	}
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "run-script",
		Description: "run maintenance go scripts",
		Subcommands: []*cli.Command{
			script_migrate_tile_configs.Command(depsFn[script_migrate_tile_configs.CommandDeps]()),
			script_import_tile_configs.Command(depsFn[script_import_tile_configs.CommandDeps]()),
		},
	}
}
