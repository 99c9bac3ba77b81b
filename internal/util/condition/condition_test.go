package condition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hera-erp/tilestats/internal/model"
)

func testContext() *model.RequestContext {
	return &model.RequestContext{
		OrganizationID: "org-1",
		TimeRange:      "30d",
		Filters:        map[string]string{"branch": "north", "tier": "3"},
		Now:            time.Date(2024, time.March, 14, 15, 30, 0, 0, time.UTC),
	}
}

func TestEvaluateEmptyIsTrue(t *testing.T) {
	assert.True(t, Evaluate(nil, testContext()))
	assert.True(t, Evaluate([]*model.Condition{}, testContext()))
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		conds []*model.Condition
		want  bool
	}{
		{
			name:  "equals organization",
			conds: []*model.Condition{{Field: "organization_id", Operator: "equals", Value: "org-1"}},
			want:  true,
		},
		{
			name:  "organization placeholder",
			conds: []*model.Condition{{Field: "organization_id", Operator: "eq", Value: "{{organization_id}}"}},
			want:  true,
		},
		{
			name: "all must hold",
			conds: []*model.Condition{
				{Field: "filter.branch", Operator: "eq", Value: "north"},
				{Field: "time_range", Operator: "in", Value: []any{"7d", "90d"}},
			},
			want: false,
		},
		{
			name:  "numeric filter",
			conds: []*model.Condition{{Field: "filter.tier", Operator: "gte", Value: 2}},
			want:  true,
		},
		{
			name:  "missing filter does not exist",
			conds: []*model.Condition{{Field: "filter.region", Operator: "exists"}},
			want:  false,
		},
		{
			name:  "now after start of year",
			conds: []*model.Condition{{Field: "now", Operator: "date_after", Value: "{{start_of_year}}"}},
			want:  true,
		},
		{
			name:  "expr",
			conds: []*model.Condition{{Field: "", Operator: "expr", Value: `organization_id == "org-1" && filter["branch"] in ["north", "south"]`}},
			want:  true,
		},
		{
			name:  "expr non boolean",
			conds: []*model.Condition{{Operator: "expr", Value: `time_range + "!"`}},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.conds, testContext()))
		})
	}
}

func TestEvaluateMalformedIsFalse(t *testing.T) {
	malformed := [][]*model.Condition{
		{{Field: "organization_id", Operator: "sounds_like", Value: "org"}},
		{{Field: "organization_id", Operator: "in", Value: 42}},
		{{Operator: "expr", Value: "organization_id =="}},
		{{Operator: "expr", Value: 7}},
		{{Operator: "expr", Value: `undefined_fn()`}},
		{nil},
	}

	for _, conds := range malformed {
		assert.NotPanics(t, func() {
			assert.False(t, Evaluate(conds, testContext()))
		})
	}
}

func TestEvaluateNilContext(t *testing.T) {
	assert.False(t, Evaluate([]*model.Condition{{Field: "organization_id", Operator: "exists"}}, nil))
}
