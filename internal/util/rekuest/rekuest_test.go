package rekuest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hera-erp/tilestats/internal/model/types"
	"github.com/hera-erp/tilestats/internal/pkg/apierr"
)

func TestRequestContext(t *testing.T) {
	now := time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC)

	rctx, err := RequestContext(" org-1 ", "MTD", "status:paid, region:eu", now)
	require.NoError(t, err)
	assert.Equal(t, "org-1", rctx.OrganizationID)
	assert.Equal(t, "mtd", rctx.TimeRange)
	require.NotNil(t, rctx.RangeStart)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), *rctx.RangeStart)
	assert.Equal(t, map[string]string{"status": "paid", "region": "eu"}, rctx.Filters)
	assert.Equal(t, now, rctx.Now)

	rctx, err = RequestContext("org-1", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, "all", rctx.TimeRange)
	assert.Nil(t, rctx.RangeStart)
	assert.Empty(t, rctx.Filters)
}

func TestRequestContextErrors(t *testing.T) {
	now := time.Now()
	tests := []struct {
		org, timeRange, filterBy string
		code                     string
	}{
		{"", "all", "", apierr.CodeMissingOrganizationID},
		{"   ", "all", "", apierr.CodeMissingOrganizationID},
		{"org", "fortnight", "", apierr.CodeInvalidTimeRange},
		{"org", "all", "status", apierr.CodeInvalidRequest},
	}

	for _, tt := range tests {
		_, err := RequestContext(tt.org, tt.timeRange, tt.filterBy, now)
		var apiErr *apierr.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tt.code, apiErr.ErrorCode)
	}
}

func TestValidStruct(t *testing.T) {
	err := ValidStruct(&types.PurgeStatsCacheRequest{TileID: "revenue"})
	assert.NoError(t, err)

	err = ValidStruct(&types.UpsertTileConfigRequest{Title: "Revenue"})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, apierr.CodeInvalidRequest, apiErr.ErrorCode)
	require.NotNil(t, apiErr.Extras)

	list, ok := (*apiErr.Extras)["violations"].([]*ErrorResponse)
	require.True(t, ok)
	fields := make([]string, 0, len(list))
	for _, v := range list {
		fields = append(fields, v.Field)
		assert.NotEmpty(t, v.Message)
	}
	assert.Contains(t, fields, "UpsertTileConfigRequest.WorkspaceID")
	assert.Contains(t, fields, "UpsertTileConfigRequest.Stats")
}

func TestValidTileID(t *testing.T) {
	assert.NoError(t, ValidTileID("sales.monthly"))
	assert.Error(t, ValidTileID("sales monthly"))
}
