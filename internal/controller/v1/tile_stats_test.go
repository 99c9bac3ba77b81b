package v1

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/pkg/apierr"
	"github.com/hera-erp/tilestats/internal/server/httpserver"
	"github.com/hera-erp/tilestats/internal/service"
)

type staticConfigs map[string]*model.TileConfig

func (s staticConfigs) Get(_ context.Context, tileID string) (*model.TileConfig, error) {
	if c, ok := s[tileID]; ok {
		return c, nil
	}
	return nil, apierr.ErrTileNotFound
}

// tableExecutor answers each query with the value registered for its table.
type tableExecutor struct {
	orgs   chan string
	values map[string]any
}

func (e *tableExecutor) Execute(_ context.Context, spec *model.QuerySpec, rctx *model.RequestContext) (any, *service.QueryError) {
	select {
	case e.orgs <- rctx.OrganizationID:
	default:
	}
	v, ok := e.values[spec.Table]
	if !ok {
		return nil, &service.QueryError{Code: service.QueryErrFailed, Message: "relation does not exist"}
	}
	return v, nil
}

func newTestApp(t *testing.T) (*fiber.App, *tableExecutor) {
	t.Helper()

	executor := &tableExecutor{
		orgs:   make(chan string, 16),
		values: map[string]any{"universal_transactions": 1500.0, "core_entities": int64(42)},
	}
	tileStats := &service.TileStats{
		Configs: staticConfigs{
			"revenue": {
				TileID: "revenue",
				Stats: []*model.StatDeclaration{
					{
						StatID: "total_revenue", Label: "Revenue", Format: "currency",
						Visibility: constant.VisibilityPublic,
						Query:      model.QuerySpec{Table: "universal_transactions", Operation: model.OperationSum, Field: "total_amount"},
					},
					{
						StatID: "customers", Label: "Customers",
						Query: model.QuerySpec{Table: "core_entities", Operation: model.OperationCount},
					},
					{
						StatID: "broken", Label: "Broken",
						Query: model.QuerySpec{Table: "missing_table", Operation: model.OperationCount},
					},
				},
			},
		},
		Aggregator: &service.StatAggregator{Executor: executor},
	}

	app := fiber.New(fiber.Config{ErrorHandler: httpserver.ErrorHandler})
	c := &TileStats{TileStatsService: tileStats}
	c.route(app.Group("/api/v1"))
	return app, executor
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, gjson.Result, string) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, gjson.ParseBytes(raw), resp.Header.Get(constant.CacheStatusHeader)
}

func TestGetTileStats(t *testing.T) {
	app, executor := newTestApp(t)

	status, body, cacheStatus := do(t, app, fiber.MethodGet, "/api/v1/tiles/revenue/stats?organization_id=org-1&timeRange=30d", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "MISS", cacheStatus)

	assert.True(t, body.Get("success").Bool())
	assert.Equal(t, 3, int(body.Get("stats.#").Int()))
	assert.Equal(t, "total_revenue", body.Get("stats.0.statId").String())
	assert.Equal(t, "$1,500.00", body.Get("stats.0.formattedValue").String())
	assert.Equal(t, "42", body.Get("stats.1.formattedValue").String())
	assert.Equal(t, "Error", body.Get("stats.2.formattedValue").String())
	assert.Equal(t, "QUERY_FAILED", body.Get("stats.2.error.code").String())
	assert.False(t, body.Get("stats.0.error").Exists())

	assert.Equal(t, "revenue", body.Get("metadata.tileId").String())
	assert.Equal(t, "org-1", body.Get("metadata.organizationId").String())
	assert.Equal(t, int64(3), body.Get("metadata.totalStats").Int())
	assert.Equal(t, int64(2), body.Get("metadata.successfulStats").Int())
	assert.Equal(t, int64(1), body.Get("metadata.failedStats").Int())
	assert.False(t, body.Get("metadata.cached").Bool())
	assert.False(t, body.Get("refreshed").Exists())

	assert.Equal(t, "org-1", <-executor.orgs)
}

func TestGetTileStatsErrors(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/v1/tiles/revenue/stats", 400, "MISSING_ORGANIZATION_ID"},
		{"/api/v1/tiles/revenue/stats?organization_id=", 400, "MISSING_ORGANIZATION_ID"},
		{"/api/v1/tiles/unknown/stats?organization_id=org-1", 404, "TILE_NOT_FOUND"},
		{"/api/v1/tiles/revenue/stats?organization_id=org-1&timeRange=fortnight", 400, "INVALID_TIME_RANGE"},
		{"/api/v1/tiles/revenue/stats?organization_id=org-1&filterBy=status", 400, "INVALID_REQUEST"},
		{"/api/v1/tiles/bad%20id/stats?organization_id=org-1", 404, "TILE_NOT_FOUND"},
		{"/api/v1/public/tiles/bad%20id/stats?organization_id=org-1", 404, "TILE_NOT_FOUND"},
	}

	for _, tt := range tests {
		status, body, _ := do(t, app, fiber.MethodGet, tt.target, "")
		assert.Equal(t, tt.status, status, tt.target)
		assert.False(t, body.Get("success").Bool(), tt.target)
		assert.Equal(t, tt.code, body.Get("error.code").String(), tt.target)
		assert.NotEmpty(t, body.Get("error.message").String(), tt.target)
	}
}

func TestGetPublicTileStats(t *testing.T) {
	app, _ := newTestApp(t)

	_, body, _ := do(t, app, fiber.MethodGet, "/api/v1/public/tiles/revenue/stats?organization_id=org-1", "")

	assert.True(t, body.Get("success").Bool())
	assert.Equal(t, int64(1), body.Get("stats.#").Int())
	assert.Equal(t, "total_revenue", body.Get("stats.0.statId").String())
}

func TestRefreshTileStats(t *testing.T) {
	app, _ := newTestApp(t)

	status, body, cacheStatus := do(t, app, fiber.MethodPost, "/api/v1/tiles/revenue/stats", `{"organization_id":"org-1","forceRefresh":true}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "REFRESH", cacheStatus)
	assert.True(t, body.Get("success").Bool())
	assert.True(t, body.Get("refreshed").Bool())
	assert.Equal(t, int64(3), body.Get("stats.#").Int())
	assert.Equal(t, "org-1", body.Get("metadata.organizationId").String())
}

func TestRefreshTileStatsErrors(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		body string
		code string
	}{
		{"", "INVALID_REQUEST_BODY"},
		{"{not json", "INVALID_REQUEST_BODY"},
		{"null", "INVALID_REQUEST_BODY"},
		{" {} ", "INVALID_REQUEST_BODY"},
		{`{"forceRefresh":true}`, "MISSING_ORGANIZATION_ID"},
		{`{"organization_id":"org-1"}`, "INVALID_REQUEST_BODY"},
		{`{"organization_id":"org-1","forceRefresh":false}`, "INVALID_REQUEST_BODY"},
	}

	for _, tt := range tests {
		status, body, _ := do(t, app, fiber.MethodPost, "/api/v1/tiles/revenue/stats", tt.body)
		assert.Equal(t, fiber.StatusBadRequest, status, tt.body)
		assert.False(t, body.Get("success").Bool(), tt.body)
		assert.Equal(t, tt.code, body.Get("error.code").String(), tt.body)
	}

	for _, target := range []string{"/api/v1/tiles/unknown/stats", "/api/v1/tiles/bad%20id/stats"} {
		status, body, _ := do(t, app, fiber.MethodPost, target, `{"organization_id":"org-1","forceRefresh":true}`)
		assert.Equal(t, fiber.StatusNotFound, status, target)
		assert.Equal(t, "TILE_NOT_FOUND", body.Get("error.code").String(), target)
	}
}
