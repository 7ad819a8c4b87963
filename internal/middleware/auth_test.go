package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Generate(42, "a@x.io")
	require.NoError(t, err)

	userID, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestTokenIssuer_RejectsForeignAndExpired(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	other := NewTokenIssuer("other", time.Hour)

	foreign, err := other.Generate(1, "a@x.io")
	require.NoError(t, err)
	_, err = issuer.Parse(foreign)
	assert.Error(t, err)

	past := NewTokenIssuer("secret", time.Minute)
	past.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, err := past.Generate(1, "a@x.io")
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	assert.Error(t, err)
}

func TestTokenIssuer_Auth(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Generate(7, "a@x.io")
	require.NoError(t, err)

	handler := issuer.Auth(func(c echo.Context) error {
		id, err := GetUserID(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]int64{"id": id})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)
			if tt.status == http.StatusOK {
				require.NoError(t, err)
				assert.JSONEq(t, `{"id":7}`, rec.Body.String())
				return
			}
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.Code)
		})
	}
}
