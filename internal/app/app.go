package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/app/appcontext"
	"github.com/hera-erp/tilestats/internal/controller"
	"github.com/hera-erp/tilestats/internal/infra"
	"github.com/hera-erp/tilestats/internal/pkg/logger"
	"github.com/hera-erp/tilestats/internal/repo"
	"github.com/hera-erp/tilestats/internal/server"
	"github.com/hera-erp/tilestats/internal/service"
	"github.com/hera-erp/tilestats/internal/workers/warmwkr"
)

func Options(ctx appcontext.Ctx, additionalOpts ...fx.Option) []fx.Option {
	conf, err := appconfig.Parse(ctx)
	if err != nil {
		panic(err)
	}

	// logger and configuration are the only two things that are not in the fx graph
	// because some other packages need them to be initialized before fx starts
	logger.Configure(conf)

	baseOpts := []fx.Option{
		// fx meta
		fx.WithLogger(logger.Fx),

		// Misc
		fx.Supply(conf),

		// Infrastructures
		infra.Module(),

		// Servers
		server.Module(),

		// Repositories
		repo.Module(),

		// Services
		service.Module(),

		// Global Singleton Inits: Keep those before controllers to ensure they are initialized
		// before controllers are registered as controllers are also fx#Invoke functions which
		// are called in the order of their registration.
		fx.Invoke(infra.SentryInit),
		fx.Invoke(infra.Datadog),

		// Controllers
		controller.Module(),

		// Workers
		fx.Invoke(warmwkr.Start),

		// fx Extra Options
		fx.StartTimeout(15 * time.Second),
		// StopTimeout is not typically needed, since we're using fiber's Shutdown(),
		// in which fiber has its own IdleTimeout for controlling the shutdown timeout.
		// It acts as a countermeasure in case the fiber app is not properly shutting down.
		fx.StopTimeout(conf.HTTPServerShutdownTimeout + 5*time.Second),
	}

	return append(baseOpts, additionalOpts...)
}

func New(ctx appcontext.Ctx, additionalOpts ...fx.Option) *fx.App {
	return fx.New(Options(ctx, additionalOpts...)...)
}
