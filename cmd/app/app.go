package app

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/hera-erp/tilestats/cmd/app/cli/runscript"
	"github.com/hera-erp/tilestats/cmd/app/server"
	"github.com/hera-erp/tilestats/internal/pkg/bininfo"
)

func Run() {
	app := &cli.App{
		Name:        "tilestats",
		Description: "Declarative tile statistics resolver. Built with Go, fiber, bun and go.uber.org/fx. Uses Redis for result caching and NATS for tile configuration invalidation.",
		Version:     bininfo.Version,
		Commands: []*cli.Command{
			server.Command(),
			runscript.Command(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run app")
	}
}
