package model

import (
	"github.com/pkg/errors"

	"github.com/hera-erp/tilestats/internal/constant"
)

type Operation string

const (
	OperationCount         Operation = "count"
	OperationCountDistinct Operation = "count_distinct"
	OperationSum           Operation = "sum"
	OperationAvg           Operation = "avg"
	OperationMin           Operation = "min"
	OperationMax           Operation = "max"
	// OperationCustom calls a stored function named by QuerySpec.Query.
	OperationCustom Operation = "custom"
)

var ErrInvalidQuerySpec = errors.New("invalid query spec")

type StatDeclaration struct {
	StatID     string       `json:"statId" validate:"required,max=64"`
	Label      string       `json:"label" validate:"required,max=256"`
	Query      QuerySpec    `json:"query"`
	Format     string       `json:"format" validate:"omitempty,oneof=number currency percentage duration relative_time"`
	Visibility string       `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
	Conditions []*Condition `json:"conditions,omitempty" validate:"dive"`
}

func (s *StatDeclaration) IsPublic() bool {
	return s.Visibility == constant.VisibilityPublic
}

type QuerySpec struct {
	Table     string         `json:"table,omitempty" validate:"required_unless=Operation custom,omitempty,sqlident"`
	Operation Operation      `json:"operation" validate:"required,oneof=count count_distinct sum avg min max custom"`
	Field     string         `json:"field,omitempty" validate:"omitempty,sqlident"`
	Query     string         `json:"query,omitempty" validate:"required_if=Operation custom,omitempty,sqlident"`
	Params    map[string]any `json:"params,omitempty"`
	Filters   []*Filter      `json:"filters,omitempty" validate:"dive"`
	DateField string         `json:"dateField,omitempty" validate:"omitempty,sqlident"`
}

// Check reports structural problems the dispatcher cannot execute. Identifier shape is
// checked where the identifiers are emitted.
func (q *QuerySpec) Check() error {
	switch q.Operation {
	case OperationCount:
	case OperationCountDistinct, OperationSum, OperationAvg, OperationMin, OperationMax:
		if q.Field == "" {
			return errors.Wrapf(ErrInvalidQuerySpec, "operation %s requires a field", q.Operation)
		}
	case OperationCustom:
		if q.Query == "" {
			return errors.Wrap(ErrInvalidQuerySpec, "custom operation requires a function name in query")
		}
		return nil
	case "":
		return errors.Wrap(ErrInvalidQuerySpec, "operation is required")
	default:
		return errors.Wrapf(ErrInvalidQuerySpec, "unsupported operation %q", q.Operation)
	}

	if q.Table == "" {
		return errors.Wrap(ErrInvalidQuerySpec, "table is required")
	}
	return nil
}

type Filter struct {
	Field    string `json:"field" validate:"required,sqlident"`
	Operator string `json:"operator" validate:"required"`
	Value    any    `json:"value"`
}

type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator" validate:"required"`
	Value    any    `json:"value"`
}
