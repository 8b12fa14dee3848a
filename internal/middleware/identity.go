package middleware

// Accessors for the identity JWTAuth stores in the echo context.  They
// return "" for anonymous requests.

import "github.com/labstack/echo/v4"

// UserID returns the authenticated subject.
func UserID(c echo.Context) string { return ctxString(c, ctxUserID) }

// Role returns the authenticated role.
func Role(c echo.Context) string { return ctxString(c, ctxRole) }

// Email returns the authenticated email, when the token carries one.
func Email(c echo.Context) string { return ctxString(c, ctxEmail) }

func ctxString(c echo.Context, key string) string {
	if s, ok := c.Get(key).(string); ok {
		return s
	}
	return ""
}
