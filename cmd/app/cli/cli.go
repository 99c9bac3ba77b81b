package cli

import (
	"context"

	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/app"
	"github.com/hera-erp/tilestats/internal/app/appcontext"
)

func Start(module fx.Option) {
	if err := app.New(appcontext.Declare(appcontext.EnvCLI), module).Start(context.Background()); err != nil {
		panic(err)
	}
}
