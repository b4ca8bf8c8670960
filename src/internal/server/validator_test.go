package server

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidator(t *testing.T) {
	v := newRequestValidator()

	type loginRequest struct {
		Username string `validate:"required"`
		Password string `validate:"required,min=8"`
	}

	t.Run("ValidStructPasses", func(t *testing.T) {
		assert.NoError(t, v.Validate(loginRequest{Username: "jeweler", Password: "longenough"}))
	})

	t.Run("FailuresNameTheFields", func(t *testing.T) {
		err := v.Validate(loginRequest{Password: "short"})
		require.Error(t, err)

		httpErr, ok := err.(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)

		msg, ok := httpErr.Message.(string)
		require.True(t, ok)
		assert.Contains(t, msg, "Username failed required validation")
		assert.Contains(t, msg, "Password failed min validation")
	})
}
