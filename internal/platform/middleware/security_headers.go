package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// pageCSP allows the inline styles of the upload page and the inline SVG chart.
	pageCSP = "default-src 'none'; style-src 'unsafe-inline'; img-src data:; form-action 'self'; frame-ancestors 'none'"
	// docsCSP lets the Swagger UI load its own scripts and styles.
	docsCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; frame-ancestors 'none'"
)

// SecurityHeaders returns middleware that sets security response headers on
// every request. Charts contain patient data, so responses are never cached.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "0")

			csp := pageCSP
			if strings.HasPrefix(c.Request().URL.Path, "/swagger/") {
				csp = docsCSP
			}
			h.Set("Content-Security-Policy", csp)

			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			h.Set("Cache-Control", "no-store")

			return next(c)
		}
	}
}
