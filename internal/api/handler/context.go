package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/mathvisuals/account-api/internal/api/middleware"
	"github.com/mathvisuals/account-api/internal/core/domain"
)

// ctxCaller builds the domain caller from the identity the CallerIdentity
// middleware injected. An anonymous caller (no headers) is valid input; the
// service's owner-or-admin checks reject what it may not do.
func ctxCaller(c echo.Context) domain.Caller {
	return domain.Caller{
		AccountID: middleware.CallerAccountID(c),
		Admin:     middleware.CallerIsAdmin(c),
	}
}
