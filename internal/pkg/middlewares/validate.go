package middlewares

import (
	"github.com/gofiber/fiber/v2"

	"github.com/hera-erp/tilestats/internal/pkg/apierr"
	"github.com/hera-erp/tilestats/internal/util/rekuest"
)

// ValidateTileIDAsParam rejects a malformed :tileId with 400. Used where the id is
// about to be written.
func ValidateTileIDAsParam(c *fiber.Ctx) error {
	if err := rekuest.ValidTileID(c.Params("tileId")); err != nil {
		return err
	}
	return c.Next()
}

// TileIDAsParamOrNotFound answers 404 for a malformed :tileId, since no stored tile
// can carry it.
func TileIDAsParamOrNotFound(c *fiber.Ctx) error {
	if rekuest.ValidTileID(c.Params("tileId")) != nil {
		return apierr.ErrTileNotFound
	}
	return c.Next()
}
