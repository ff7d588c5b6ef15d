package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/passport/internal/core/domain"
)

func TestHTTPErrorHandler_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.ErrUserNotFound, http.StatusNotFound},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrDuplicateUser, http.StatusConflict},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrRateLimitExceeded, http.StatusTooManyRequests},
		{domain.ErrGenerationFailure, http.StatusInternalServerError},
		{domain.ErrDeliveryFailure, http.StatusBadGateway},
		{fmt.Errorf("%w: session save: %w", domain.ErrStorageFailure, errors.New("dial tcp")), http.StatusServiceUnavailable},
		{domain.ErrInvalidCode, http.StatusBadRequest},
		{domain.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("%w: password exceeds 72 bytes", domain.ErrInvalidInput), http.StatusBadRequest},
		{echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded"), http.StatusTooManyRequests},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	e := echo.New()
	h := NewHTTPErrorHandler(zerolog.Nop())

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

			h(tc.err, c)

			assert.Equal(t, tc.code, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestHTTPErrorHandler_HidesCauses(t *testing.T) {
	var logs bytes.Buffer
	h := NewHTTPErrorHandler(zerolog.New(&logs))

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	h(fmt.Errorf("%w: user find: %w", domain.ErrStorageFailure, errors.New("mongo: secret-host unreachable")), c)

	assert.NotContains(t, rec.Body.String(), "secret-host")
	assert.Contains(t, logs.String(), "secret-host")
}
