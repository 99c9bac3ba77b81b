package statfmt

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	now := time.Date(2024, time.March, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    any
		tag  string
		want string
	}{
		{"number grouping", 1234567, Number, "1,234,567"},
		{"number decimals rounded", 1234.5678, Number, "1,234.57"},
		{"number numeric string", "9876.5", Number, "9,876.5"},
		{"number negative", -4200, Number, "-4,200"},
		{"currency", 1234.56, Currency, "$1,234.56"},
		{"currency pads decimals", 12, Currency, "$12.00"},
		{"currency negative", -12, Currency, "-$12.00"},
		{"currency large", "1000000", Currency, "$1,000,000.00"},
		{"percentage fraction", 0.1234, Percentage, "12.34%"},
		{"percentage one decimal", 0.5, Percentage, "50.0%"},
		{"percentage whole", 1, Percentage, "100.0%"},
		{"duration hours", 3661, Duration, "1h 1m 1s"},
		{"duration minutes", 61, Duration, "1m 1s"},
		{"duration seconds", 5, Duration, "5s"},
		{"duration zero", 0, Duration, "0s"},
		{"relative time string", "2024-03-09T12:00:00Z", RelativeTime, "5 days ago"},
		{"relative time value", now.Add(-3 * time.Hour), RelativeTime, "3 hours ago"},
		{"unknown tag numeric", 2500, "sparkline", "2,500"},
		{"unknown tag text", "north", "sparkline", "north"},
		{"nil", nil, Number, Empty},
		{"unparsable number", "n/a", Number, Empty},
		{"unparsable currency", "n/a", Currency, Empty},
		{"unparsable time", "later", RelativeTime, Empty},
		{"nan", math.NaN(), Number, Empty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAt(tt.v, tt.tag, now))
		})
	}
}

func TestFormatNeverPanics(t *testing.T) {
	for _, v := range []any{struct{}{}, []int{1}, map[string]any{}, math.Inf(1)} {
		for _, tag := range []string{Number, Currency, Percentage, Duration, RelativeTime, ""} {
			assert.NotPanics(t, func() { Format(v, tag) })
		}
	}
}
