package middleware

// identity.go defines helper functions shared across middleware files and
// handlers: typed accessors for the claims JWTAuth stores in the Echo
// context. Handlers use these instead of repeating type assertions.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/avelara/design-portal/internal/utils"
)

// CurrentUser returns the authenticated user's ID from context, or 0
// when no JWT middleware ran on the route.
func CurrentUser(c echo.Context) uint64 {
	if v, ok := c.Get("user_id").(uint64); ok {
		return v
	}
	return 0
}

// CurrentEmail returns the authenticated user's email claim, if any.
func CurrentEmail(c echo.Context) string {
	if v, ok := c.Get("email").(string); ok {
		return v
	}
	return ""
}

// IsAdmin reports whether the current token carries the admin role.
func IsAdmin(c echo.Context) bool {
	v, ok := c.Get("role").(string)
	return ok && v == utils.RoleAdmin
}

// currentUserID returns a string form of the authenticated user for
// cache and rate-limit key construction; "anon" when unauthenticated.
func currentUserID(c echo.Context) string {
	if uid := CurrentUser(c); uid != 0 {
		return strconv.FormatUint(uid, 10)
	}
	return "anon"
}
