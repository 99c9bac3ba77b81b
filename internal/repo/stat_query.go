package repo

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/hera-erp/tilestats/internal/constant"
	"github.com/hera-erp/tilestats/internal/model"
	"github.com/hera-erp/tilestats/internal/util"
	"github.com/hera-erp/tilestats/internal/util/operator"
	"github.com/hera-erp/tilestats/internal/util/scalar"
)

// ErrInvalidIdentifier is returned for table, column or function names outside the accepted shape.
var ErrInvalidIdentifier = errors.New("invalid sql identifier")

// AggregateQuery is a fully resolved standard stat query. Filter values must already
// have their placeholders substituted.
type AggregateQuery struct {
	Table          string
	Operation      model.Operation
	Field          string
	OrganizationID string
	Filters        []*ResolvedFilter
}

type ResolvedFilter struct {
	Field    string
	Operator operator.Op
	Value    any
}

// FunctionCall is a resolved custom stat: a stored function called with named arguments.
type FunctionCall struct {
	Function       string
	OrganizationID string
	Args           []NamedArg
}

type NamedArg struct {
	Name  string
	Value any
}

type StatQuery struct {
	db *bun.DB
}

func NewStatQuery(db *bun.DB) *StatQuery {
	return &StatQuery{db: db}
}

// Aggregate runs q and returns its single scalar result, nil for no rows or SQL NULL.
func (r *StatQuery) Aggregate(ctx context.Context, q *AggregateQuery) (any, error) {
	sel, args, err := r.buildAggregate(q)
	if err != nil {
		return nil, err
	}
	return r.queryScalar(ctx, sel.String(), args)
}

// Call runs the stored function described by c and returns its scalar result.
func (r *StatQuery) Call(ctx context.Context, c *FunctionCall) (any, error) {
	query, args, err := buildCall(c)
	if err != nil {
		return nil, err
	}

	return r.queryScalar(ctx, query, args)
}

// queryScalar runs query as a prepared statement so args reach the server as bind
// parameters. The plain query path of pgdriver interpolates them client-side.
func (r *StatQuery) queryScalar(ctx context.Context, query string, args []any) (any, error) {
	stmt, err := r.db.DB.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return scanScalar(rows)
}

var _ scalarRows = (*sql.Rows)(nil)

type scalarRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

func scanScalar(rows scalarRows) (any, error) {
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var v any
	if err := rows.Scan(&v); err != nil {
		return nil, err
	}
	return scalar.Normalize(v), rows.Err()
}

// binds collects bound values and hands out their $n placeholders.
type binds []any

func (b *binds) next(v any) bun.Safe {
	*b = append(*b, v)
	return bun.Safe("$" + strconv.Itoa(len(*b)))
}

func (b *binds) list(vs []any) bun.Safe {
	marks := make([]string, len(vs))
	for i, v := range vs {
		marks[i] = string(b.next(v))
	}
	return bun.Safe(strings.Join(marks, ", "))
}

// quote is only safe for names that already passed ident.
func quote(name string) string {
	return `"` + name + `"`
}

func ident(name string) (bun.Ident, error) {
	if !util.SQLIdentifierPattern.MatchString(name) {
		return "", errors.Wrapf(ErrInvalidIdentifier, "%q", name)
	}
	return bun.Ident(name), nil
}

func (r *StatQuery) buildAggregate(q *AggregateQuery) (*bun.SelectQuery, []any, error) {
	table, err := ident(q.Table)
	if err != nil {
		return nil, nil, err
	}

	sel := r.db.NewSelect().TableExpr("?", table)

	if q.Operation == model.OperationCount {
		sel = sel.ColumnExpr("count(*)")
	} else {
		field, err := ident(q.Field)
		if err != nil {
			return nil, nil, err
		}
		switch q.Operation {
		case model.OperationCountDistinct:
			sel = sel.ColumnExpr("count(DISTINCT ?)", field)
		case model.OperationSum:
			sel = sel.ColumnExpr("sum(?)", field)
		case model.OperationAvg:
			sel = sel.ColumnExpr("avg(?)", field)
		case model.OperationMin:
			sel = sel.ColumnExpr("min(?)", field)
		case model.OperationMax:
			sel = sel.ColumnExpr("max(?)", field)
		default:
			return nil, nil, errors.Wrapf(model.ErrInvalidQuerySpec, "operation %q is not an aggregate", q.Operation)
		}
	}

	var b binds
	sel = sel.Where("? = ?", bun.Ident(constant.OrganizationColumn), b.next(q.OrganizationID))

	for _, f := range q.Filters {
		if sel, err = applyFilter(sel, &b, f); err != nil {
			return nil, nil, err
		}
	}
	return sel, b, nil
}

func applyFilter(sel *bun.SelectQuery, b *binds, f *ResolvedFilter) (*bun.SelectQuery, error) {
	field, err := ident(f.Field)
	if err != nil {
		return nil, err
	}

	switch f.Operator {
	case operator.Eq:
		if f.Value == nil {
			return sel.Where("? IS NULL", field), nil
		}
		return sel.Where("? = ?", field, b.next(f.Value)), nil
	case operator.Neq:
		if f.Value == nil {
			return sel.Where("? IS NOT NULL", field), nil
		}
		return sel.Where("? IS DISTINCT FROM ?", field, b.next(f.Value)), nil
	case operator.Gt:
		return sel.Where("? > ?", field, b.next(f.Value)), nil
	case operator.Gte:
		return sel.Where("? >= ?", field, b.next(f.Value)), nil
	case operator.Lt:
		return sel.Where("? < ?", field, b.next(f.Value)), nil
	case operator.Lte:
		return sel.Where("? <= ?", field, b.next(f.Value)), nil
	case operator.DateAfter, operator.DateBefore:
		t, ok := scalar.ToTime(f.Value)
		if !ok {
			return nil, errors.Wrapf(model.ErrInvalidQuerySpec, "filter %s %s expects a timestamp, got %v", f.Field, f.Operator, f.Value)
		}
		if f.Operator == operator.DateAfter {
			return sel.Where("? > ?", field, b.next(t)), nil
		}
		return sel.Where("? < ?", field, b.next(t)), nil
	case operator.In, operator.NotIn:
		list, ok := scalar.ToSlice(f.Value)
		if !ok {
			return nil, errors.Wrapf(model.ErrInvalidQuerySpec, "filter %s %s expects a list, got %T", f.Field, f.Operator, f.Value)
		}
		if len(list) == 0 {
			if f.Operator == operator.In {
				return sel.Where("FALSE"), nil
			}
			return sel, nil
		}
		if f.Operator == operator.In {
			return sel.Where("? IN (?)", field, b.list(list)), nil
		}
		return sel.Where("? NOT IN (?)", field, b.list(list)), nil
	case operator.Contains:
		return sel.Where("?::text ILIKE ?", field, b.next("%"+escapeLike(scalar.String(f.Value))+"%")), nil
	case operator.Exists:
		if want, ok := f.Value.(bool); ok && !want {
			return sel.Where("? IS NULL", field), nil
		}
		return sel.Where("? IS NOT NULL", field), nil
	default:
		return nil, errors.Wrapf(model.ErrInvalidQuerySpec, "operator %q cannot be used in a query filter", f.Operator)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// buildCall renders SELECT "fn"(p_organization_id => $1, "name" => $2, ...). Only
// identifiers are emitted as query text; every value travels in args.
func buildCall(c *FunctionCall) (string, []any, error) {
	fn, err := ident(c.Function)
	if err != nil {
		return "", nil, err
	}

	var b binds
	parts := []string{quote(constant.OrganizationFunctionArg) + " => " + string(b.next(c.OrganizationID))}
	for _, arg := range c.Args {
		name, err := ident(arg.Name)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, quote(string(name))+" => "+string(b.next(arg.Value)))
	}

	return "SELECT " + quote(string(fn)) + "(" + strings.Join(parts, ", ") + ") AS value", b, nil
}
