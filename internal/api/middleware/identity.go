package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// Header names carrying the caller identity decoded upstream (gateway or
// reverse proxy). The core deliberately issues no sessions or tokens.
const (
	HeaderAccountID = "X-Account-ID"
	HeaderAdmin     = "X-Account-Admin"
)

const (
	ctxAccountID = "caller_account_id"
	ctxAdmin     = "caller_admin"
)

// CallerIdentity extracts the requester's identity from request headers and
// injects it into the echo context. Absent headers leave an anonymous
// caller; the service's authorization checks decide what that may do.
func CallerIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ctxAccountID, c.Request().Header.Get(HeaderAccountID))
			c.Set(ctxAdmin, strings.EqualFold(c.Request().Header.Get(HeaderAdmin), "true"))
			return next(c)
		}
	}
}

// CallerAccountID returns the requester's account id, if any.
func CallerAccountID(c echo.Context) string {
	id, _ := c.Get(ctxAccountID).(string)
	return id
}

// CallerIsAdmin reports whether the requester carries the admin flag.
func CallerIsAdmin(c echo.Context) bool {
	admin, _ := c.Get(ctxAdmin).(bool)
	return admin
}
