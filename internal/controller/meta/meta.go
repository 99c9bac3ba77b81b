package meta

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/pkg/apierr"
	"github.com/hera-erp/tilestats/internal/pkg/bininfo"
	"github.com/hera-erp/tilestats/internal/pkg/flog"
	"github.com/hera-erp/tilestats/internal/pkg/observability"
	"github.com/hera-erp/tilestats/internal/server/svr"
	"github.com/hera-erp/tilestats/internal/service"
)

type Meta struct {
	fx.In

	HealthService *service.Health
}

func RegisterMeta(meta *svr.Meta, c Meta) {
	meta.Get("/bininfo", c.BinInfo)

	meta.Get("/health", cache.New(cache.Config{
		// cache it for a second to mitigate potential DDoS
		Expiration: time.Second,
	}), c.Health)
}

func (c *Meta) BinInfo(ctx *fiber.Ctx) error {
	return ctx.JSON(fiber.Map{
		"service": observability.ServiceName,
		"version": bininfo.Version,
		"build":   bininfo.BuildTime,
	})
}

func (c *Meta) Health(ctx *fiber.Ctx) error {
	if err := c.HealthService.Ping(ctx.UserContext()); err != nil {
		flog.ErrorFrom(ctx).
			Err(err).
			Str("evt.name", "health.failed").
			Msg("health check failed")
		return apierr.ErrServiceUnavailable.Msg("%s", err)
	}

	return ctx.JSON(fiber.Map{
		"status": "ok",
	})
}
