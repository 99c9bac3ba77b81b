package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/zeebo/xxh3"

	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/util"
)

// statsScope identifies one cacheable tile result: everything a request can vary
// except the instant it was made at.
type statsScope struct {
	TileID         string            `json:"t"`
	OrganizationID string            `json:"o"`
	TimeRange      string            `json:"r,omitempty"`
	Filters        map[string]string `json:"f,omitempty"`
	PublicOnly     bool              `json:"p,omitempty"`
}

func scopeOf(tileID string, rctx *model.RequestContext) statsScope {
	return statsScope{
		TileID:         tileID,
		OrganizationID: rctx.OrganizationID,
		TimeRange:      rctx.TimeRange,
		Filters:        rctx.Filters,
		PublicOnly:     rctx.PublicOnly,
	}
}

// tilePrefix is shared by every cache key of a tile.
func tilePrefix(tileID string) string {
	return tileID + constant.StatsCacheKeySeparator
}

func (s statsScope) cacheKey() string {
	keys := make([]string, 0, len(s.Filters))
	for k := range s.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(s.TimeRange)
	for _, k := range keys {
		sb.WriteString("\x00")
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(s.Filters[k])
	}
	if s.PublicOnly {
		sb.WriteString("\x00public")
	}

	return tilePrefix(s.TileID) + s.OrganizationID + constant.StatsCacheKeySeparator +
		strconv.FormatUint(xxh3.HashString(sb.String()), 16)
}

func (s statsScope) member() string {
	b, _ := json.Marshal(s)
	return string(b)
}

func parseScope(member string) (statsScope, error) {
	var s statsScope
	err := json.Unmarshal([]byte(member), &s)
	return s, err
}

// requestContext rebuilds a request context for s at now.
func (s statsScope) requestContext(now time.Time) (*model.RequestContext, error) {
	start, err := util.ResolveTimeRange(s.TimeRange, now)
	if err != nil {
		return nil, err
	}
	return &model.RequestContext{
		OrganizationID: s.OrganizationID,
		TimeRange:      s.TimeRange,
		RangeStart:     start,
		Filters:        s.Filters,
		Now:            now,
		PublicOnly:     s.PublicOnly,
	}, nil
}
