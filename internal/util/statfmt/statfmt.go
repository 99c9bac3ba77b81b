// Package statfmt renders resolved stat values for display.
package statfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/hera-erp/tilestats/internal/util/scalar"
)

const (
	Number       = "number"
	Currency     = "currency"
	Percentage   = "percentage"
	Duration     = "duration"
	RelativeTime = "relative_time"

	// Empty is rendered for nil or unparsable values.
	Empty = "-"
)

// Format renders v according to tag. It never fails: values that cannot be
// rendered under tag come out as Empty.
func Format(v any, tag string) string {
	return FormatAt(v, tag, time.Now())
}

// FormatAt is Format with an explicit reference time for relative_time.
func FormatAt(v any, tag string, now time.Time) (out string) {
	defer func() {
		if recover() != nil {
			out = Empty
		}
	}()

	if v == nil {
		return Empty
	}

	switch tag {
	case Currency:
		return withNumber(v, currency)
	case Percentage:
		return withNumber(v, percentage)
	case Duration:
		return withNumber(v, duration)
	case RelativeTime:
		t, ok := scalar.ToTime(v)
		if !ok {
			return Empty
		}
		return humanize.RelTime(t, now, "ago", "from now")
	case Number:
		return withNumber(v, number)
	default:
		if _, ok := scalar.ToFloat(v); ok {
			return withNumber(v, number)
		}
		return scalar.String(v)
	}
}

func withNumber(v any, f func(float64) string) string {
	n, ok := scalar.ToFloat(v)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return Empty
	}
	return f(n)
}

func number(n float64) string {
	return humanize.Commaf(math.Round(n*100) / 100)
}

func currency(n float64) string {
	sign := ""
	if n < 0 && math.Round(-n*100) != 0 {
		sign = "-"
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", math.Abs(n))
}

func percentage(n float64) string {
	s := strconv.FormatFloat(n*100, 'f', 2, 64)
	// keep at least one decimal
	if strings.HasSuffix(s, "0") {
		s = s[:len(s)-1]
	}
	return s + "%"
}

func duration(n float64) string {
	total := int64(math.Round(n))
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}

	h, m, s := total/3600, total%3600/60, total%60
	switch {
	case h > 0:
		return fmt.Sprintf("%s%dh %dm %ds", sign, h, m, s)
	case m > 0:
		return fmt.Sprintf("%s%dm %ds", sign, m, s)
	default:
		return fmt.Sprintf("%s%ds", sign, s)
	}
}
