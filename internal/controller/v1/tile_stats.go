package v1

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/tidwall/gjson"
	"go.uber.org/fx"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/model/types"
	"github.com/hera-erp/tilestats/internal/pkg/apierr"
	"github.com/hera-erp/tilestats/internal/pkg/cachectrl"
	"github.com/hera-erp/tilestats/internal/pkg/flog"
	"github.com/hera-erp/tilestats/internal/pkg/middlewares"
	"github.com/hera-erp/tilestats/internal/server/svr"
	"github.com/hera-erp/tilestats/internal/service"
	"github.com/hera-erp/tilestats/internal/util/rekuest"
)

type TileStats struct {
	fx.In

	Conf             *appconfig.Config
	Storage          fiber.Storage
	RedSync          *redsync.Redsync
	TileStatsService *service.TileStats
}

func RegisterTileStats(v1 *svr.V1, c TileStats) {
	c.route(v1,
		limiter.New(limiter.Config{
			Max:        c.Conf.RefreshRateLimit,
			Expiration: c.Conf.RefreshRateWindow,
			Storage:    c.Storage,
			KeyGenerator: func(ctx *fiber.Ctx) string {
				return "refresh:" + ctx.IP()
			},
			LimitReached: func(ctx *fiber.Ctx) error {
				return ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"success": false,
					"error": fiber.Map{
						"code":    "TOO_MANY_REQUESTS",
						"message": "Your client is refreshing tiles too frequently. Cached results are refreshed periodically; please retry later.",
					},
				})
			},
		}),
		middlewares.Idempotency(&middlewares.IdempotencyConfig{
			Lifetime:  c.Conf.IdempotencyKeyLifetime,
			KeyHeader: constant.IdempotencyKeyHeader,
			KeepResponseHeaders: []string{
				fiber.HeaderContentType,
				fiber.HeaderCacheControl,
				constant.CacheStatusHeader,
			},
			Storage: c.Storage,
			RedSync: c.RedSync,
		}),
	)
}

func (c *TileStats) route(r fiber.Router, refreshGuards ...fiber.Handler) {
	r.Get("/tiles/:tileId/stats", middlewares.TileIDAsParamOrNotFound, c.GetTileStats)
	r.Post("/tiles/:tileId/stats", append(append([]fiber.Handler{middlewares.TileIDAsParamOrNotFound}, refreshGuards...), c.RefreshTileStats)...)
	r.Get("/public/tiles/:tileId/stats", middlewares.TileIDAsParamOrNotFound, c.GetPublicTileStats)
}

// @Summary      Get Tile Stats
// @Description  Resolve every applicable stat of a tile for an organization. Results of fully successful batches are cached unless `useCache` is false.
// @Tags         TileStats
// @Produce      json
// @Param        tileId           path      string  true   "Tile ID"
// @Param        organization_id  query     string  true   "Organization ID"
// @Param        timeRange        query     string  false  "Time range; one of today, 7d, 30d, 90d, mtd, ytd, all"  default(all)
// @Param        filterBy         query     string  false  "Filters as comma separated key:value pairs"
// @Param        useCache         query     bool    false  "Serve and fill the result cache"  default(true)
// @Success      200              {object}  model.TileStats
// @Failure      400              {object}  apierr.Error  "Missing organization or malformed parameters"
// @Failure      404              {object}  apierr.Error  "Tile not found"
// @Router       /api/v1/tiles/{tileId}/stats [GET]
func (c *TileStats) GetTileStats(ctx *fiber.Ctx) error {
	return c.read(ctx, false)
}

// @Summary      Get Public Tile Stats
// @Description  Same as Get Tile Stats, restricted to stats declared public.
// @Tags         TileStats
// @Produce      json
// @Param        tileId           path      string  true   "Tile ID"
// @Param        organization_id  query     string  true   "Organization ID"
// @Param        timeRange        query     string  false  "Time range"  default(all)
// @Param        filterBy         query     string  false  "Filters as comma separated key:value pairs"
// @Success      200              {object}  model.TileStats
// @Failure      400              {object}  apierr.Error  "Missing organization or malformed parameters"
// @Failure      404              {object}  apierr.Error  "Tile not found"
// @Router       /api/v1/public/tiles/{tileId}/stats [GET]
func (c *TileStats) GetPublicTileStats(ctx *fiber.Ctx) error {
	return c.read(ctx, true)
}

func (c *TileStats) read(ctx *fiber.Ctx, publicOnly bool) error {
	var query types.TileStatsQuery
	if err := ctx.QueryParser(&query); err != nil {
		return apierr.ErrInvalidReq.Msg("invalid query: %s", err)
	}

	rctx, err := rekuest.RequestContext(query.OrganizationID, query.TimeRange, query.FilterBy, time.Now())
	if err != nil {
		return err
	}
	rctx.PublicOnly = publicOnly

	result, err := c.TileStatsService.Read(ctx.UserContext(), ctx.Params("tileId"), rctx, ctx.QueryBool("useCache", true))
	if err != nil {
		return err
	}

	return c.respond(ctx, result)
}

// @Summary      Refresh Tile Stats
// @Description  Resolve every applicable stat of a tile bypassing the cache, and replace the cached result. Concurrent refreshes of the same tile and organization run one after another.
// @Tags         TileStats
// @Accept       json
// @Produce      json
// @Param        tileId   path      string                         true  "Tile ID"
// @Param        request  body      types.RefreshTileStatsRequest  true  "Refresh request; forceRefresh must be true"
// @Success      200      {object}  model.TileStats
// @Failure      400      {object}  apierr.Error  "Malformed body or missing organization"
// @Failure      404      {object}  apierr.Error  "Tile not found"
// @Failure      409      {object}  apierr.Error  "Another refresh holds the lock for too long"
// @Failure      429      {object}  apierr.Error  "Too many refreshes"
// @Router       /api/v1/tiles/{tileId}/stats [POST]
func (c *TileStats) RefreshTileStats(ctx *fiber.Ctx) error {
	body := ctx.Body()
	if isEmptyBody(body) {
		return apierr.ErrInvalidRequestBody
	}

	var request types.RefreshTileStatsRequest
	if err := json.Unmarshal(body, &request); err != nil {
		return apierr.ErrInvalidRequestBody.Msg("request body is malformed: %s", err)
	}
	if strings.TrimSpace(request.OrganizationID) == "" {
		return apierr.ErrMissingOrganizationID
	}
	if !request.ForceRefresh {
		return apierr.ErrInvalidRequestBody.Msg("forceRefresh must be true")
	}

	rctx, err := rekuest.RequestContext(request.OrganizationID, request.TimeRange, request.FilterBy, time.Now())
	if err != nil {
		return err
	}

	tileID := ctx.Params("tileId")
	flog.InfoFrom(ctx).
		Str("evt.name", "tilestats.refresh.request").
		Str("tileId", tileID).
		Str("organizationId", rctx.OrganizationID).
		Msg("refreshing tile stats")

	result, err := c.TileStatsService.Refresh(ctx.UserContext(), tileID, rctx)
	if err != nil {
		return err
	}

	return c.respond(ctx, result)
}

// isEmptyBody reports whether body carries no fields: nothing, JSON null or {}.
func isEmptyBody(body []byte) bool {
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if !gjson.ValidBytes(body) {
		return false
	}
	parsed := gjson.ParseBytes(body)
	return parsed.Type == gjson.Null || (parsed.IsObject() && len(parsed.Map()) == 0)
}

func (c *TileStats) respond(ctx *fiber.Ctx, result *model.TileStats) error {
	cachectrl.OptOut(ctx)
	switch {
	case result.Refreshed:
		ctx.Set(constant.CacheStatusHeader, "REFRESH")
	case result.Metadata.Cached:
		ctx.Set(constant.CacheStatusHeader, "HIT")
	default:
		ctx.Set(constant.CacheStatusHeader, "MISS")
	}
	return ctx.JSON(result)
}
