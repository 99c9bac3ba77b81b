package constant

import "time"

const (
	// OrganizationColumn is the tenant column every stat table carries.
	OrganizationColumn = "organization_id"

	// OrganizationFunctionArg is the named argument stored stat functions receive the tenant in.
	OrganizationFunctionArg = "p_organization_id"

	// TileConfigUpdatedSubject carries the id of a tile whose configuration changed.
	TileConfigUpdatedSubject = "tiles.config.updated"

	StatsCachePrefix       = "tilestats:result"
	RecentAccessKey        = "tilestats:recent"
	FiberStoragePrefix     = "tilestats:fiber"
	RefreshLockPrefix      = "mutex:tile-refresh:"
	IdempotencyLockPrefix  = "mutex:idempotency-request:"
	StatsCacheKeySeparator = "|"
)

const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

const (
	TimeRangeToday = "today"
	TimeRange7d    = "7d"
	TimeRange30d   = "30d"
	TimeRange90d   = "90d"
	TimeRangeMTD   = "mtd"
	TimeRangeYTD   = "ytd"
	TimeRangeAll   = "all"

	DefaultTimeRange = TimeRangeAll
)

const (
	StatErrorFormattedValue = "Error"

	// RefreshLockExpiry bounds how long a crashed refresher can block others.
	RefreshLockExpiry = 30 * time.Second
)
