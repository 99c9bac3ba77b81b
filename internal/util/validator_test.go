package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSQLIdentifierValidation(t *testing.T) {
	v := NewValidator()

	for _, ok := range []string{"universal_transactions", "_tmp", "t1"} {
		assert.NoError(t, v.Var(ok, "sqlident"), ok)
	}
	for _, bad := range []string{"Transactions", "1table", "a;drop table x", "a\"b", "", "public.x"} {
		assert.Error(t, v.Var(bad, "sqlident"), bad)
	}
}

func TestTileIDValidation(t *testing.T) {
	v := NewValidator()

	for _, ok := range []string{"revenue", "sales.monthly", "ws-1:kpi_2"} {
		assert.NoError(t, v.Var(ok, "tileid"), ok)
	}
	for _, bad := range []string{"", "a b", "../etc", "tile/1"} {
		assert.Error(t, v.Var(bad, "tileid"), bad)
	}
}
