package rekuest

import (
	"strings"
	"time"

	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/pkg/apierr"
	"github.com/hera-erp/tilestats/internal/util"
)

// RequestContext builds the context a tile is resolved in. now is pinned for the whole request.
func RequestContext(organizationID, timeRange, filterBy string, now time.Time) (*model.RequestContext, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, apierr.ErrMissingOrganizationID
	}

	timeRange = strings.ToLower(strings.TrimSpace(timeRange))
	if timeRange == "" {
		timeRange = constant.DefaultTimeRange
	}
	start, err := util.ResolveTimeRange(timeRange, now)
	if err != nil {
		return nil, apierr.ErrInvalidTimeRange.Msg("unsupported time range %q", timeRange)
	}

	filters, err := util.ParseFilterBy(filterBy)
	if err != nil {
		return nil, apierr.ErrInvalidReq.Msg("invalid filterBy: %s", err)
	}

	return &model.RequestContext{
		OrganizationID: organizationID,
		TimeRange:      timeRange,
		RangeStart:     start,
		Filters:        filters,
		Now:            now,
	}, nil
}
