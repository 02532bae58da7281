package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanpro/lending-system/internal/core/domain"
)

// ctxActor extracts the auth claims injected by the Auth middleware into an
// explicit actor context. A missing role means the middleware did not run on
// this route; fail fast before any service call.
func ctxActor(c echo.Context) (domain.ActorContext, error) {
	role, _ := c.Get("role").(string)
	if role == "" {
		return domain.ActorContext{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	username, _ := c.Get("username").(string)
	return domain.ActorContext{Username: username, Role: role}, nil
}
