package loggingmw

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/pkg/logging"
)

func newLoggedContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set(echo.HeaderXRequestID, "rid-1")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequestLoggerInjectsAndEnriches(t *testing.T) {
	c, rec := newLoggedContext("/products?page=2")

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(base)(func(c echo.Context) error {
		// The request-scoped logger is reachable downstream.
		require.NotEqual(t, slog.Default(), logging.FromContext(c.Request().Context()))
		c.Set("userID", uint(7))
		return c.NoContent(http.StatusNoContent)
	})
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "rid-1", rec.Header().Get(echo.HeaderXRequestID))

	out := buf.String()
	require.Contains(t, out, `"query":"page=2"`)
	require.Contains(t, out, `"request_id":"rid-1"`)
	require.Contains(t, out, `"user_id":7`)
	require.Contains(t, out, `"status":204`)
}

func TestRequestLoggerConvertsErrorsToResponses(t *testing.T) {
	c, rec := newLoggedContext("/cart")

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(base)(func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	// The middleware hands the error to the central handler and returns nil.
	require.NoError(t, handler(c))
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.Contains(t, buf.String(), `"status":418`)
}
