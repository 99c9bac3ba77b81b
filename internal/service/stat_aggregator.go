package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/hera-erp/tilestats/internal/app/appconfig"
	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/pkg/async"
	"github.com/hera-erp/tilestats/internal/pkg/observability"
	"github.com/hera-erp/tilestats/internal/util/condition"
	"github.com/hera-erp/tilestats/internal/util/statfmt"
)

type StatExecutor interface {
	Execute(ctx context.Context, spec *model.QuerySpec, rctx *model.RequestContext) (any, *QueryError)
}

type StatAggregator struct {
	Executor StatExecutor
	// Concurrency limits in-flight queries per tile; 0 is unbounded.
	Concurrency int
}

func NewStatAggregator(conf *appconfig.Config, statDispatcher *StatDispatcher) *StatAggregator {
	return &StatAggregator{
		Executor:    statDispatcher,
		Concurrency: conf.StatConcurrency,
	}
}

// Applicable returns the stats whose conditions hold for rctx, in declaration order.
// Private stats are dropped when rctx only allows public ones.
func (s *StatAggregator) Applicable(stats []*model.StatDeclaration, rctx *model.RequestContext) []*model.StatDeclaration {
	return lo.Filter(stats, func(stat *model.StatDeclaration, _ int) bool {
		if stat == nil {
			return false
		}
		if rctx.PublicOnly && !stat.IsPublic() {
			return false
		}
		return condition.Evaluate(stat.Conditions, rctx)
	})
}

// RunAll resolves every applicable stat concurrently and waits for all of them.
// A failed stat never affects its siblings; results keep declaration order.
func (s *StatAggregator) RunAll(ctx context.Context, stats []*model.StatDeclaration, rctx *model.RequestContext) []*model.ResolvedStat {
	applicable := s.Applicable(stats, rctx)
	return async.Settle(ctx, applicable, s.Concurrency, func(ctx context.Context, _ int, stat *model.StatDeclaration) *model.ResolvedStat {
		return s.resolve(ctx, stat, rctx)
	})
}

func (s *StatAggregator) resolve(ctx context.Context, stat *model.StatDeclaration, rctx *model.RequestContext) (resolved *model.ResolvedStat) {
	start := time.Now()
	format := lo.Ternary(stat.Format == "", statfmt.Number, stat.Format)
	resolved = &model.ResolvedStat{
		StatID: stat.StatID,
		Label:  stat.Label,
		Format: format,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("evt.name", "stat.resolve.panic").
				Str("statId", stat.StatID).
				Interface("panic", r).
				Msg("stat resolution panicked")
			fail(resolved, &QueryError{Code: QueryErrFailed, Message: fmt.Sprintf("unexpected failure: %v", r)})
		}
		resolved.ExecutionTime = time.Since(start).Milliseconds()
		code := ""
		if resolved.Error != nil {
			code = resolved.Error.Code
		}
		observability.StatResults.WithLabelValues(code).Inc()
	}()

	value, qerr := s.Executor.Execute(ctx, &stat.Query, rctx)
	if qerr != nil {
		fail(resolved, qerr)
		return resolved
	}

	resolved.Value = value
	resolved.FormattedValue = statfmt.FormatAt(value, format, rctx.Now)
	return resolved
}

func fail(resolved *model.ResolvedStat, qerr *QueryError) {
	resolved.Value = nil
	resolved.FormattedValue = constant.StatErrorFormattedValue
	resolved.Error = qerr.StatError()
}

// Summarize builds the batch metadata once every stat has settled.
func Summarize(tileID string, rctx *model.RequestContext, results []*model.ResolvedStat, elapsed time.Duration) *model.TileStatsMetadata {
	failed := lo.CountBy(results, func(r *model.ResolvedStat) bool { return r.Failed() })
	return &model.TileStatsMetadata{
		TileID:          tileID,
		OrganizationID:  rctx.OrganizationID,
		ExecutionTime:   elapsed.Milliseconds(),
		TotalStats:      len(results),
		SuccessfulStats: len(results) - failed,
		FailedStats:     failed,
		GeneratedAt:     rctx.Now,
	}
}
