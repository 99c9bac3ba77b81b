package apierr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImmutable(t *testing.T) {
	e := New(400, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")
	changedE := e.Msg("%s", "changed")

	assert.NotEqual(t, "changed", e.Message, "original error should not be mutated")
	assert.Equal(t, "changed", changedE.Message)

	withExtras := ErrTileNotFound.WithExtras(Extras{"tileId": "t1"})
	assert.Nil(t, ErrTileNotFound.Extras)
	assert.Equal(t, "t1", (*withExtras.Extras)["tileId"])
}

func TestInvalidViolationsKeepsCode(t *testing.T) {
	e := NewInvalidViolations([]string{"organization_id"})

	assert.Equal(t, 400, e.StatusCode)
	assert.Equal(t, CodeInvalidRequest, e.ErrorCode)
	assert.Nil(t, ErrInvalidReq.Extras)
	assert.Equal(t, "INVALID_REQUEST: invalid request: some or all request parameters are invalid", e.Error())
}
