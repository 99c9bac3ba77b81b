package operator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := map[string]Op{
		"eq":           Eq,
		"equals":       Eq,
		" = ":          Eq,
		"NOT_IN":       NotIn,
		">=":           Gte,
		"date_after":   DateAfter,
		"before":       DateBefore,
		"expr":         Expr,
		"contains":     Contains,
		"less_than":    Lt,
		"not_equals":   Neq,
		"exists":       Exists,
		"greater_than": Gt,
	}
	for in, want := range tests {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := Parse("like")
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestCompare(t *testing.T) {
	jan := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		op       Op
		actual   any
		expected any
		want     bool
	}{
		{"eq strings", Eq, "active", "active", true},
		{"eq numeric across types", Eq, "5", 5, true},
		{"eq nil", Eq, nil, "x", false},
		{"neq", Neq, "a", "b", true},
		{"gt numbers", Gt, 10, "9.5", true},
		{"gte equal", Gte, 3, 3.0, true},
		{"lt strings", Lt, "apple", "banana", true},
		{"lte timestamps", Lte, "2024-01-01T00:00:00Z", jan, true},
		{"in list", In, "b", []any{"a", "b"}, true},
		{"in csv", In, "c", "a, b", false},
		{"not in", NotIn, "c", []string{"a", "b"}, true},
		{"contains case insensitive", Contains, "Premium Plan", "premium", true},
		{"contains nil", Contains, nil, "x", false},
		{"exists", Exists, "x", nil, true},
		{"exists empty", Exists, "", nil, false},
		{"exists false", Exists, nil, false, true},
		{"date after", DateAfter, "2024-02-01", jan, true},
		{"date before", DateBefore, "2023-12-31T23:59:59Z", "2024-01-01T00:00:00Z", true},
		{"date after unparsable actual", DateAfter, "soon", jan, false},
		{"gt incomparable", Gt, "abc", 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compare(tt.op, tt.actual, tt.expected)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompareErrors(t *testing.T) {
	_, err := Compare(In, "a", 42)
	assert.Error(t, err)

	_, err = Compare(DateAfter, "2024-01-01", "never")
	assert.Error(t, err)

	_, err = Compare(Expr, "a", "b")
	assert.ErrorIs(t, err, ErrUnknownOperator)
}
