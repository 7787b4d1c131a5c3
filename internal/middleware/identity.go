package middleware

import "github.com/labstack/echo/v4"

// UserID returns the authenticated user's id set by JWTAuth.
func UserID(c echo.Context) (string, bool) {
	v, ok := c.Get(CtxUserID).(string)
	return v, ok && v != ""
}

// identity keys rate-limit buckets; "anon" before authentication.
func identity(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return id
	}
	return "anon"
}
