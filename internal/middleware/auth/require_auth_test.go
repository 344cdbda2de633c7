package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/pkg/tokens"
)

var testSecret = []byte("test-access-secret")

func newContext(t *testing.T, authorization string) echo.Context {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func okHandler(c echo.Context) error { return c.NoContent(http.StatusOK) }

func TestRequireAuthSetsIdentity(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	raw, err := tokens.SignAccessToken(7, "customer", testSecret, time.Minute)
	require.NoError(t, err)

	c := newContext(t, "Bearer "+raw)
	handler := m.RequireAuth(func(c echo.Context) error {
		id, ok := UserID(c)
		require.True(t, ok)
		require.Equal(t, uint(7), id)

		role, ok := UserRole(c)
		require.True(t, ok)
		require.Equal(t, models.RoleCustomer, role)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
}

func TestRequireAuthMissingHeader(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}

	err := m.RequireAuth(okHandler)(newContext(t, ""))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)

	err = m.RequireAuth(okHandler)(newContext(t, "Token abc"))
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}

	// Wrong signing key.
	forged, err := tokens.SignAccessToken(7, "customer", []byte("wrong"), time.Minute)
	require.NoError(t, err)
	err = m.RequireAuth(okHandler)(newContext(t, "Bearer "+forged))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)

	// Expired.
	expired, err := tokens.SignAccessToken(7, "customer", testSecret, -time.Minute)
	require.NoError(t, err)
	err = m.RequireAuth(okHandler)(newContext(t, "Bearer "+expired))
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)

	// A refresh token never authenticates a request.
	refresh, _, err := tokens.SignRefreshToken(7, "customer", testSecret, time.Hour)
	require.NoError(t, err)
	err = m.RequireAuth(okHandler)(newContext(t, "Bearer "+refresh))
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestRequireRole(t *testing.T) {
	m := &Middleware{JWTSecret: testSecret}
	raw, err := tokens.SignAccessToken(7, "customer", testSecret, time.Minute)
	require.NoError(t, err)

	err = m.RequireRole(models.RoleCustomer)(okHandler)(newContext(t, "Bearer "+raw))
	require.NoError(t, err)

	err = m.RequireRole(models.RoleShopkeeper)(okHandler)(newContext(t, "Bearer "+raw))
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, http.StatusForbidden, he.Code)
}
