package model

import "time"

// RequestContext is everything a tile resolution may depend on besides the tile itself.
// Now is fixed once per request so every placeholder in a batch sees the same instant.
type RequestContext struct {
	OrganizationID string
	TimeRange      string
	// RangeStart is nil for an unbounded range.
	RangeStart *time.Time
	Filters    map[string]string
	Now        time.Time
	PublicOnly bool
}

// RangeEnd is the upper bound of the request time range.
func (r *RequestContext) RangeEnd() time.Time {
	return r.Now
}
