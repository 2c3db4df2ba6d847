package serverutils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseEnvelopes(t *testing.T) {
	ok := SuccessResponse("created", map[string]string{"id": "42"})
	assert.True(t, ok.Success)
	assert.Equal(t, "created", ok.Message)
	assert.Zero(t, ok.Code)

	fail := ErrorResponse(404, "Session not found")
	assert.False(t, fail.Success)
	assert.Equal(t, 404, fail.Code)

	// The success envelope omits the code field on the wire.
	raw, err := json.Marshal(ok)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"code"`)
}

func TestValidateRequest(t *testing.T) {
	type loginForm struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	assert.NoError(t, ValidateRequest(&loginForm{Email: "a@example.com", Password: "longenough"}))
	assert.Error(t, ValidateRequest(&loginForm{Email: "not-an-email", Password: "longenough"}))
	assert.Error(t, ValidateRequest(&loginForm{Email: "a@example.com", Password: "short"}))
}
