package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// publicPaths lists route patterns that bypass authentication.
var publicPaths = map[string]bool{
	"/health":            true,
	"/health/store":      true,
	"/api/v1/auth/login": true,
}

// AuthSkipper returns true for requests whose route should skip
// authentication: health checks, login and the read-only
// address directory.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

// IsPublicPath reports whether the given route pattern is public.
func IsPublicPath(path string) bool {
	return publicPaths[path] || strings.HasPrefix(path, "/api/v1/address/")
}
