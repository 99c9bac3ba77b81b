package service

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/pkg/observability"
	"github.com/hera-erp/tilestats/internal/repo"
	"github.com/hera-erp/tilestats/internal/util/operator"
	"github.com/hera-erp/tilestats/internal/util/placeholder"
)

const (
	QueryErrInvalidQuery          = "INVALID_QUERY"
	QueryErrUnresolvedPlaceholder = "UNRESOLVED_PLACEHOLDER"
	QueryErrTimeout               = "QUERY_TIMEOUT"
	QueryErrPermissionDenied      = "PERMISSION_DENIED"
	QueryErrFailed                = "QUERY_FAILED"
)

// postgres SQLSTATE codes with a dedicated stat error
const (
	pgInsufficientPrivilege = "42501"
	pgQueryCanceled         = "57014"
	pgUndefinedTable        = "42P01"
	pgUndefinedColumn       = "42703"
	pgUndefinedFunction     = "42883"
)

// QueryError is the outcome of a failed stat query. It is reported per stat and never
// fails the surrounding request.
type QueryError struct {
	Code    string
	Message string
}

func (e *QueryError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *QueryError) StatError() *model.StatError {
	return &model.StatError{Code: e.Code, Message: e.Message}
}

type StatStore interface {
	Aggregate(ctx context.Context, q *repo.AggregateQuery) (any, error)
	Call(ctx context.Context, c *repo.FunctionCall) (any, error)
}

type StatDispatcher struct {
	Store    StatStore
	Resolver placeholder.Resolver
	Timeout  time.Duration
}

func NewStatDispatcher(conf *appconfig.Config, statQueryRepo *repo.StatQuery) *StatDispatcher {
	return &StatDispatcher{
		Store:    statQueryRepo,
		Resolver: placeholder.Resolver{Strict: conf.StrictPlaceholders},
		Timeout:  conf.StatQueryTimeout,
	}
}

// Execute runs one stat query for the organization of rctx. Every failure is returned
// as a QueryError.
func (s *StatDispatcher) Execute(ctx context.Context, spec *model.QuerySpec, rctx *model.RequestContext) (any, *QueryError) {
	if rctx == nil || rctx.OrganizationID == "" {
		return nil, &QueryError{Code: QueryErrInvalidQuery, Message: "organization is required"}
	}
	if spec == nil {
		return nil, &QueryError{Code: QueryErrInvalidQuery, Message: "query is required"}
	}
	if err := spec.Check(); err != nil {
		return nil, &QueryError{Code: QueryErrInvalidQuery, Message: err.Error()}
	}

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	start := time.Now()
	value, err := s.run(ctx, spec, rctx)
	outcome := "ok"
	var qerr *QueryError
	if err != nil {
		qerr = classify(ctx, err)
		outcome = qerr.Code
	}
	observability.StatQueryDuration.
		WithLabelValues(string(spec.Operation), outcome).
		Observe(time.Since(start).Seconds())

	if qerr != nil {
		log.Ctx(ctx).Debug().
			Err(err).
			Str("evt.name", "stat.query.failed").
			Str("code", qerr.Code).
			Str("operation", string(spec.Operation)).
			Msg("stat query failed")
		return nil, qerr
	}
	return value, nil
}

func (s *StatDispatcher) run(ctx context.Context, spec *model.QuerySpec, rctx *model.RequestContext) (any, error) {
	if spec.Operation == model.OperationCustom {
		call, err := s.resolveCall(spec, rctx)
		if err != nil {
			return nil, err
		}
		return s.Store.Call(ctx, call)
	}

	q, err := s.resolveAggregate(spec, rctx)
	if err != nil {
		return nil, err
	}
	return s.Store.Aggregate(ctx, q)
}

func (s *StatDispatcher) resolveAggregate(spec *model.QuerySpec, rctx *model.RequestContext) (*repo.AggregateQuery, error) {
	q := &repo.AggregateQuery{
		Table:          spec.Table,
		Operation:      spec.Operation,
		Field:          spec.Field,
		OrganizationID: rctx.OrganizationID,
		Filters:        make([]*repo.ResolvedFilter, 0, len(spec.Filters)+2),
	}

	for _, f := range spec.Filters {
		if f == nil {
			continue
		}
		op, err := operator.Parse(f.Operator)
		if err != nil {
			return nil, errors.Wrap(model.ErrInvalidQuerySpec, err.Error())
		}
		if op == operator.Expr {
			return nil, errors.Wrap(model.ErrInvalidQuerySpec, "expr is not allowed in query filters")
		}
		value, err := s.Resolver.Resolve(f.Value, rctx)
		if errors.Is(err, placeholder.ErrUnbound) {
			// the request does not narrow by this filter
			continue
		} else if err != nil {
			return nil, err
		}
		q.Filters = append(q.Filters, &repo.ResolvedFilter{Field: f.Field, Operator: op, Value: value})
	}

	if spec.DateField != "" && rctx.RangeStart != nil {
		q.Filters = append(q.Filters,
			&repo.ResolvedFilter{Field: spec.DateField, Operator: operator.Gte, Value: *rctx.RangeStart},
			&repo.ResolvedFilter{Field: spec.DateField, Operator: operator.Lte, Value: rctx.RangeEnd()},
		)
	}
	return q, nil
}

func (s *StatDispatcher) resolveCall(spec *model.QuerySpec, rctx *model.RequestContext) (*repo.FunctionCall, error) {
	names := make([]string, 0, len(spec.Params))
	for name := range spec.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	call := &repo.FunctionCall{
		Function:       spec.Query,
		OrganizationID: rctx.OrganizationID,
		Args:           make([]repo.NamedArg, 0, len(names)),
	}
	for _, name := range names {
		value, err := s.Resolver.Resolve(spec.Params[name], rctx)
		if errors.Is(err, placeholder.ErrUnbound) {
			value = nil
		} else if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, repo.NamedArg{Name: name, Value: value})
	}
	return call, nil
}

func classify(ctx context.Context, err error) *QueryError {
	switch {
	case errors.Is(err, placeholder.ErrUnknownPlaceholder):
		return &QueryError{Code: QueryErrUnresolvedPlaceholder, Message: err.Error()}
	case errors.Is(err, repo.ErrInvalidIdentifier), errors.Is(err, model.ErrInvalidQuerySpec):
		return &QueryError{Code: QueryErrInvalidQuery, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return &QueryError{Code: QueryErrTimeout, Message: "stat query timed out"}
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case pgInsufficientPrivilege:
			return &QueryError{Code: QueryErrPermissionDenied, Message: pgErr.Field('M')}
		case pgQueryCanceled:
			return &QueryError{Code: QueryErrTimeout, Message: pgErr.Field('M')}
		case pgUndefinedTable, pgUndefinedColumn, pgUndefinedFunction:
			return &QueryError{Code: QueryErrInvalidQuery, Message: pgErr.Field('M')}
		}
	}

	return &QueryError{Code: QueryErrFailed, Message: err.Error()}
}
