package util

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hera-erp/tilestats/internal/constant"
)

var ErrUnknownTimeRange = errors.New("unknown time range")

// StartOfDay floors t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek floors t to Monday midnight in t's location.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func StartOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

// ResolveTimeRange returns the lower bound of the named range relative to now.
// A nil start means the range is unbounded. The upper bound is always now.
func ResolveTimeRange(name string, now time.Time) (*time.Time, error) {
	var start time.Time
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", constant.TimeRangeAll:
		return nil, nil
	case constant.TimeRangeToday:
		start = StartOfDay(now)
	case constant.TimeRange7d:
		start = now.AddDate(0, 0, -7)
	case constant.TimeRange30d:
		start = now.AddDate(0, 0, -30)
	case constant.TimeRange90d:
		start = now.AddDate(0, 0, -90)
	case constant.TimeRangeMTD:
		start = StartOfMonth(now)
	case constant.TimeRangeYTD:
		start = StartOfYear(now)
	default:
		return nil, errors.Wrapf(ErrUnknownTimeRange, "time range %q", name)
	}
	return &start, nil
}
