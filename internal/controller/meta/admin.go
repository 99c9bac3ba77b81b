package meta

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/model/types"
	"github.com/hera-erp/tilestats/internal/pkg/flog"
	"github.com/hera-erp/tilestats/internal/pkg/middlewares"
	"github.com/hera-erp/tilestats/internal/server/svr"
	"github.com/hera-erp/tilestats/internal/service"
	"github.com/hera-erp/tilestats/internal/util/rekuest"
)

type AdminController struct {
	fx.In

	TileConfigService *service.TileConfig
	TileStatsService  *service.TileStats
}

func RegisterAdmin(admin *svr.Admin, c AdminController) {
	admin.Get("/tiles", c.GetTileConfigs)
	admin.Get("/tiles/:tileId", middlewares.TileIDAsParamOrNotFound, c.GetTileConfig)
	admin.Put("/tiles/:tileId", middlewares.ValidateTileIDAsParam, c.UpsertTileConfig)
	admin.Post("/purge", c.PurgeStatsCache)
}

func (c *AdminController) GetTileConfigs(ctx *fiber.Ctx) error {
	tileConfigs, err := c.TileConfigService.List(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(tileConfigs)
}

func (c *AdminController) GetTileConfig(ctx *fiber.Ctx) error {
	tileConfig, err := c.TileConfigService.Get(ctx.UserContext(), ctx.Params("tileId"))
	if err != nil {
		return err
	}

	return ctx.JSON(tileConfig)
}

func (c *AdminController) UpsertTileConfig(ctx *fiber.Ctx) error {
	var request types.UpsertTileConfigRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	tileConfig := request.ToModel(ctx.Params("tileId"))
	if err := c.TileConfigService.Upsert(ctx.UserContext(), tileConfig); err != nil {
		return err
	}

	// results computed from the previous configuration are stale now
	if _, err := c.TileStatsService.Purge(ctx.UserContext(), tileConfig.TileID); err != nil {
		flog.WarnFrom(ctx).
			Err(err).
			Str("evt.name", "admin.tile.purge.failed").
			Str("tileId", tileConfig.TileID).
			Msg("failed to purge cached stats of an updated tile")
	}

	return ctx.JSON(tileConfig)
}

func (c *AdminController) PurgeStatsCache(ctx *fiber.Ctx) error {
	var request types.PurgeStatsCacheRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	purged, err := c.TileStatsService.Purge(ctx.UserContext(), request.TileID)
	if err != nil {
		return err
	}

	flog.InfoFrom(ctx).
		Str("evt.name", "admin.purge").
		Str("tileId", request.TileID).
		Int64("purged", purged).
		Msg("purged cached tile stats")

	return ctx.JSON(fiber.Map{
		"purged": purged,
	})
}
