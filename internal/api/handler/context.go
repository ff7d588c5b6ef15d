package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys written by the Auth middleware.
const (
	CtxUserID = "user_id"
	CtxToken  = "token"
)

// ctxUserID extracts the authenticated user id injected by the Auth
// middleware. Its absence means the route was mounted without the middleware.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(CtxUserID).(string)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, nil
}

func ctxToken(c echo.Context) (string, error) {
	token, _ := c.Get(CtxToken).(string)
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return token, nil
}
