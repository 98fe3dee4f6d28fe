package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/school_bakery/internal/service"
	"github.com/Skotchmaster/school_bakery/internal/transport"
	"github.com/Skotchmaster/school_bakery/internal/validation"
)

const msgInternal = "Internal server error"

type errorMapping struct {
	target  error
	status  int
	message string
}

// checked in order, the first match wins
var defaultMappings = []errorMapping{
	{service.ErrDuplicateUsername, http.StatusBadRequest, "Username already exists"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrUnauthenticated, http.StatusUnauthorized, "Invalid or expired token"},
	{service.ErrForbidden, http.StatusForbidden, "Access denied"},
	{service.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{service.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{service.ErrNotFound, http.StatusNotFound, "Not found"},
	{service.ErrInsufficientStock, http.StatusBadRequest, "Insufficient stock"},
	{service.ErrInvalidStatus, http.StatusBadRequest, "Invalid status"},
	{service.ErrInvalidTransition, http.StatusBadRequest, "Invalid status transition"},
	{service.ErrValidation, http.StatusBadRequest, "Invalid input data"},
}

// fail logs a service error under event and turns it into an HTTP error.
// Overrides are tried before the defaults.
func fail(l *slog.Logger, event string, err error, overrides ...errorMapping) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid input", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.ErrorResponse{Message: "Invalid input data", Errors: verrs})
	}

	for _, m := range append(overrides, defaultMappings...) {
		if errors.Is(err, m.target) {
			l.Warn(event, "status", m.status, "reason", m.message, "error", err)
			return echo.NewHTTPError(m.status, m.message)
		}
	}

	l.Error(event, "status", http.StatusInternalServerError, "reason", "unexpected error", "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal).SetInternal(err)
}

// ErrorHandler renders every error as {message, errors?}. Internal details of
// 5xx responses never reach the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = echo.NewHTTPError(http.StatusInternalServerError, msgInternal)
	}

	body := transport.ErrorResponse{Message: http.StatusText(he.Code)}
	switch m := he.Message.(type) {
	case transport.ErrorResponse:
		body = m
	case string:
		body.Message = m
	}
	if he.Code >= http.StatusInternalServerError {
		body = transport.ErrorResponse{Message: msgInternal}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, body)
}

func badBody(l *slog.Logger, event string, err error, message string) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, message)
}
