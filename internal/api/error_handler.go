package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/passport/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps passport errors to their HTTP status codes.
//   - Logs infrastructure and unexpected errors without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// statusFor holds the client-facing mapping of every passport sentinel.
var statusFor = []struct {
	err  error
	code int
}{
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrDuplicateUser, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrRateLimitExceeded, http.StatusTooManyRequests},
	{domain.ErrInvalidCode, http.StatusBadRequest},
	{domain.ErrInvalidInput, http.StatusBadRequest},
}

// serverSide are logged and rendered with their sentinel message only.
var serverSide = []struct {
	err  error
	code int
}{
	{domain.ErrGenerationFailure, http.StatusInternalServerError},
	{domain.ErrDeliveryFailure, http.StatusBadGateway},
	{domain.ErrStorageFailure, http.StatusServiceUnavailable},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, rate limiter, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range statusFor {
		if errors.Is(err, m.err) {
			return m.code, m.err.Error()
		}
	}

	for _, m := range serverSide {
		if errors.Is(err, m.err) {
			log.Error().
				Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Int("status", m.code).
				Msg("dependency failure")
			return m.code, m.err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
