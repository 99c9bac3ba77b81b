// Package placeholder substitutes {{name}} tokens in tile configuration values
// with values taken from the request context.
package placeholder

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/util"
)

const (
	Now            = "now"
	StartOfDay     = "start_of_day"
	StartOfWeek    = "start_of_week"
	StartOfMonth   = "start_of_month"
	StartOfYear    = "start_of_year"
	TimeRangeStart = "time_range_start"
	TimeRangeEnd   = "time_range_end"
	OrganizationID = "organization_id"

	filterPrefix = "filter."
)

var ErrUnknownPlaceholder = errors.New("unknown placeholder")

// ErrUnbound is returned for a known placeholder the request carries no value for:
// {{time_range_start}} of an unbounded range, or {{filter.<key>}} absent from filterBy.
var ErrUnbound = errors.New("placeholder has no value")

var tokenPattern = regexp.MustCompile(`^\{\{\s*([A-Za-z_][A-Za-z0-9_.\-]*)\s*\}\}$`)

// Name returns the token name if v is a placeholder string.
func Name(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	m := tokenPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Resolver substitutes placeholders. In strict mode unknown tokens and filter keys
// missing from the request are ErrUnknownPlaceholder; otherwise unknown tokens are passed
// through unchanged and missing filter keys are ErrUnbound.
type Resolver struct {
	Strict bool
}

// Resolve substitutes v if it is a placeholder. Lists are resolved element-wise.
// Everything else is returned unchanged.
func (r Resolver) Resolve(v any, rctx *model.RequestContext) (any, error) {
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, el := range list {
			resolved, err := r.Resolve(el, rctx)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	}

	name, ok := Name(v)
	if !ok {
		return v, nil
	}

	resolved, err := lookup(name, rctx)
	if err == nil {
		return resolved, nil
	}

	if errors.Is(err, ErrUnbound) {
		if !strings.HasPrefix(name, filterPrefix) {
			return nil, errors.Wrapf(err, "{{%s}}", name)
		}
		if r.Strict {
			return nil, errors.Wrapf(ErrUnknownPlaceholder, "{{%s}}: key is not in filterBy", name)
		}
		log.Warn().
			Str("evt.name", "placeholder.unbound").
			Str("placeholder", name).
			Msg("filter placeholder has no value in the request")
		return nil, errors.Wrapf(err, "{{%s}}", name)
	}

	if r.Strict {
		return nil, errors.Wrapf(ErrUnknownPlaceholder, "{{%s}}", name)
	}

	log.Warn().
		Str("evt.name", "placeholder.unknown").
		Str("placeholder", name).
		Msg("unknown placeholder passed through unchanged")
	return v, nil
}

// Resolve is the tolerant form of Resolver.Resolve. Unbound placeholders resolve to nil.
func Resolve(v any, rctx *model.RequestContext) any {
	resolved, _ := Resolver{}.Resolve(v, rctx)
	return resolved
}

func lookup(name string, rctx *model.RequestContext) (any, error) {
	if rctx == nil {
		return nil, ErrUnknownPlaceholder
	}

	now := rctx.Now
	if now.IsZero() {
		now = time.Now()
	}

	switch name {
	case Now:
		return timestamp(now), nil
	case StartOfDay:
		return timestamp(util.StartOfDay(now)), nil
	case StartOfWeek:
		return timestamp(util.StartOfWeek(now)), nil
	case StartOfMonth:
		return timestamp(util.StartOfMonth(now)), nil
	case StartOfYear:
		return timestamp(util.StartOfYear(now)), nil
	case TimeRangeStart:
		if rctx.RangeStart == nil {
			return nil, ErrUnbound
		}
		return timestamp(*rctx.RangeStart), nil
	case TimeRangeEnd:
		return timestamp(now), nil
	case OrganizationID:
		return rctx.OrganizationID, nil
	}

	if key, ok := strings.CutPrefix(name, filterPrefix); ok && key != "" {
		value, ok := rctx.Filters[key]
		if !ok {
			return nil, ErrUnbound
		}
		return value, nil
	}

	return nil, ErrUnknownPlaceholder
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
