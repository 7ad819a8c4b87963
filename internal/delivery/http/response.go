package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"cryptodash/internal/observability"
)

// ErrorBody is the error envelope: {"detail": "..."}
type ErrorBody struct {
	Detail string `json:"detail"`
}

// ErrorResponse sends an error response
func ErrorResponse(c echo.Context, statusCode int, detail string) error {
	return c.JSON(statusCode, ErrorBody{Detail: detail})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, detail string) error {
	return ErrorResponse(c, http.StatusBadRequest, detail)
}

// UnauthorizedResponse sends a 401 Unauthorized response
func UnauthorizedResponse(c echo.Context, detail string) error {
	return ErrorResponse(c, http.StatusUnauthorized, detail)
}

// NotFoundResponse sends a 404 Not Found response
func NotFoundResponse(c echo.Context, detail string) error {
	return ErrorResponse(c, http.StatusNotFound, detail)
}

// UnprocessableResponse sends a 422 response
func UnprocessableResponse(c echo.Context, detail string) error {
	return ErrorResponse(c, http.StatusUnprocessableEntity, detail)
}

// InternalServerErrorResponse logs err and sends a 500 without leaking it
func InternalServerErrorResponse(c echo.Context, detail string, err error) error {
	observability.LoggerFromContext(c.Request().Context()).Error("[HTTP] "+detail, "error", err, "path", c.Path())
	return ErrorResponse(c, http.StatusInternalServerError, detail)
}

// HTTPErrorHandler renders echo errors (routing, middleware) with the same envelope
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		detail = fmt.Sprint(he.Message)
	} else {
		observability.LoggerFromContext(c.Request().Context()).Error("[HTTP] Unhandled error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = ErrorResponse(c, status, detail)
}
