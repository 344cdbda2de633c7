package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/pkg/logging"
)

// respond wraps every success payload in the {success:true, ...} envelope.
func respond(c echo.Context, code int, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	data["success"] = true
	return c.JSON(code, data)
}

// HTTPErrorHandler is the single place an error kind becomes a transport
// status. 5xx detail never reaches the client; it is logged with the request
// id so the response can be correlated with the record.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if code >= http.StatusInternalServerError {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		logging.FromContext(c.Request().Context()).Error("request failed",
			"status", code, "request_id", rid, "error", err)

		message = "internal server error"
		_ = c.JSON(code, echo.Map{"success": false, "message": message, "request_id": rid})
		return
	}

	_ = c.JSON(code, echo.Map{"success": false, "message": message})
}
