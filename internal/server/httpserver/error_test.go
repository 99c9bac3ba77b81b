package httpserver

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/hera-erp/tilestats/internal/pkg/apierr"
)

func serve(t *testing.T, handler fiber.Handler) (int, gjson.Result) {
	t.Helper()

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/", handler)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, gjson.ParseBytes(body)
}

func TestErrorHandlerTypedError(t *testing.T) {
	status, body := serve(t, func(c *fiber.Ctx) error {
		return apierr.ErrTileNotFound.Msg("tile %s not found", "revenue")
	})

	assert.Equal(t, fiber.StatusNotFound, status)
	assert.False(t, body.Get("success").Bool())
	assert.Equal(t, "TILE_NOT_FOUND", body.Get("error.code").String())
	assert.Equal(t, "tile revenue not found", body.Get("error.message").String())
}

func TestErrorHandlerExtras(t *testing.T) {
	status, body := serve(t, func(c *fiber.Ctx) error {
		return apierr.NewInvalidViolations([]string{"title is required"})
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body.Get("error.code").String())
	assert.Equal(t, "title is required", body.Get("error.violations.0").String())
}

func TestErrorHandlerWrappedTypedError(t *testing.T) {
	status, body := serve(t, func(c *fiber.Ctx) error {
		return errors.Wrap(apierr.ErrMissingOrganizationID, "reading tile")
	})

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "MISSING_ORGANIZATION_ID", body.Get("error.code").String())
}

func TestErrorHandlerUnexpectedError(t *testing.T) {
	status, body := serve(t, func(c *fiber.Ctx) error {
		return errors.New("connection refused")
	})

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body.Get("error.code").String())
	assert.NotContains(t, body.Get("error.message").String(), "connection refused")
}

func TestErrorHandlerFiberError(t *testing.T) {
	status, body := serve(t, func(c *fiber.Ctx) error {
		return fiber.ErrMethodNotAllowed
	})

	assert.Equal(t, fiber.StatusMethodNotAllowed, status)
	assert.Equal(t, "UNKNOWN_ERROR", body.Get("error.code").String())
}
