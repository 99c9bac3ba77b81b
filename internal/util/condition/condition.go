// Package condition decides whether a tile or stat applies to a request.
package condition

import (
	"strings"
	"sync"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/util/operator"
	"github.com/hera-erp/tilestats/internal/util/placeholder"
)

const (
	FieldOrganizationID = "organization_id"
	FieldTimeRange      = "time_range"
	FieldNow            = "now"

	filterPrefix = "filter."
)

// compiled expr programs keyed by source
var programs sync.Map

// Evaluate reports whether every condition holds for rctx. An empty list always holds.
// Malformed conditions and evaluation errors count as not satisfied.
func Evaluate(conds []*model.Condition, rctx *model.RequestContext) bool {
	for _, c := range conds {
		if !evaluateOne(c, rctx) {
			return false
		}
	}
	return true
}

func evaluateOne(c *model.Condition, rctx *model.RequestContext) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("evt.name", "condition.panic").
				Interface("panic", r).
				Msg("condition evaluation panicked, treating as not satisfied")
			ok = false
		}
	}()

	if c == nil || rctx == nil {
		return false
	}

	op, err := operator.Parse(c.Operator)
	if err != nil {
		log.Debug().
			Err(err).
			Str("evt.name", "condition.malformed").
			Str("field", c.Field).
			Msg("unknown condition operator")
		return false
	}

	if op == operator.Expr {
		ok, err = evalExpr(c.Value, rctx)
	} else {
		ok, err = operator.Compare(op, field(c.Field, rctx), placeholder.Resolve(c.Value, rctx))
	}
	if err != nil {
		log.Debug().
			Err(err).
			Str("evt.name", "condition.malformed").
			Str("field", c.Field).
			Str("operator", c.Operator).
			Msg("condition could not be evaluated")
		return false
	}
	return ok
}

// field returns the request attribute a condition refers to, or nil when absent.
func field(name string, rctx *model.RequestContext) any {
	switch name {
	case FieldOrganizationID:
		return rctx.OrganizationID
	case FieldTimeRange:
		return rctx.TimeRange
	case FieldNow:
		return rctx.Now
	}
	if key, ok := strings.CutPrefix(name, filterPrefix); ok {
		if v, ok := rctx.Filters[key]; ok {
			return v
		}
	}
	return nil
}

func env(rctx *model.RequestContext) map[string]any {
	filters := rctx.Filters
	if filters == nil {
		filters = map[string]string{}
	}
	return map[string]any{
		FieldOrganizationID: rctx.OrganizationID,
		FieldTimeRange:      rctx.TimeRange,
		FieldNow:            rctx.Now,
		"filter":            filters,
	}
}

func evalExpr(source any, rctx *model.RequestContext) (bool, error) {
	src, ok := source.(string)
	if !ok || strings.TrimSpace(src) == "" {
		return false, errors.New("expr condition requires a non-empty string value")
	}

	program, err := compile(src, rctx)
	if err != nil {
		return false, err
	}

	out, err := expr.Run(program, env(rctx))
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	return ok && b, nil
}

func compile(src string, rctx *model.RequestContext) (*vm.Program, error) {
	if p, ok := programs.Load(src); ok {
		return p.(*vm.Program), nil
	}
	p, err := expr.Compile(src, expr.Env(env(rctx)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile expr condition")
	}
	programs.Store(src, p)
	return p, nil
}
