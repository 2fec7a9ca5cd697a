package middleware

// identity.go holds small helpers shared across middleware files for
// reading the authenticated identity out of the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user's ID, or 0 when the request
// is unauthenticated.
func UserID(c echo.Context) uint64 {
	if id, ok := c.Get("user_id").(uint64); ok {
		return id
	}
	return 0
}

// rateKeyUserID renders the user identity for rate-limit keys,
// falling back to "anon" for unauthenticated requests.
func rateKeyUserID(c echo.Context) string {
	if id := UserID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
