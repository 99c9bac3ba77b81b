package httpserver

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/felixge/fgprof"
	"github.com/goccy/go-json"
	"github.com/gofiber/contrib/fibersentry"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/helmet/v2"
	"github.com/rs/zerolog/log"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/pkg/bininfo"
	"github.com/hera-erp/tilestats/internal/pkg/middlewares"
	"github.com/hera-erp/tilestats/internal/pkg/observability"
)

var registerPromOnce sync.Once

func Create(conf *appconfig.Config, tp *tracesdk.TracerProvider) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Tile Statistics Resolver",
		ServerHeader: fmt.Sprintf("tilestats/%s", bininfo.Version),
		ReadTimeout:  time.Second * 20,
		// stat queries are bounded by StatQueryTimeout; leave room for a full batch
		WriteTimeout:   conf.StatQueryTimeout + time.Second*20,
		ReadBufferSize: 8192,
		// allow possibility for graceful shutdown, otherwise app#Shutdown() will block forever
		IdleTimeout:             conf.HTTPServerShutdownTimeout,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          conf.TrustedProxies,
		ErrorHandler:            ErrorHandler,
		Immutable:               true,
		JSONEncoder:             json.Marshal,
		JSONDecoder:             json.Unmarshal,
	})

	app.Use(favicon.New())
	app.Use(fibersentry.New(fibersentry.Config{
		Repanic: true,
		Timeout: time.Second * 5,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET, POST, PUT, OPTIONS",
		AllowHeaders: strings.Join([]string{
			"Content-Type", "Authorization", "X-Requested-With", "sentry-trace",
			constant.IdempotencyKeyHeader,
		}, ", "),
		ExposeHeaders: strings.Join([]string{
			"Content-Type", constant.RequestIDHeader, constant.IdempotencyHeader, constant.CacheStatusHeader,
		}, ", "),
	}))
	middlewares.Logger(app)
	// the logger middleware injects RequestID into the context,
	// and we need an extra middleware to extract it and repopulate it into ctx.Locals
	app.Use(middlewares.RequestID())

	middlewares.Chained(app,
		helmet.New(helmet.Config{
			HSTSMaxAge:         31356000,
			HSTSPreloadEnabled: true,
			ReferrerPolicy:     "strict-origin-when-cross-origin",
			PermissionPolicy:   "interest-cohort=()",
		}),
		recover.New(recover.Config{
			EnableStackTrace: true,
			StackTraceHandler: func(c *fiber.Ctx, e any) {
				buf := make([]byte, 4096)
				buf = buf[:runtime.Stack(buf, false)]
				log.Error().Msgf("panic: %v\n%s\n", e, buf)
			},
		}),
	)

	registerPromOnce.Do(func() {
		fiberprom := fiberprometheus.New(observability.ServiceName)
		fiberprom.RegisterAt(app, "/metrics")
		app.Use(fiberprom.Middleware)
	})

	if conf.TracingEnabled && tp != nil {
		app.Use(otelfiber.Middleware(
			otelfiber.WithTracerProvider(tp),
			otelfiber.WithServerName(observability.ServiceName),
		))
	}

	if conf.DevMode {
		log.Info().Msg("Running in DEV mode")
		app.Use(pprof.New())
		app.Get("/debug/fgprof", adaptor.HTTPHandler(fgprof.Handler()))
	} else {
		app.Use(middlewares.EnrichSentry())
	}

	return app
}
