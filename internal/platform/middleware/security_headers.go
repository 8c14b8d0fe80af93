package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeaders sets response headers for the dashboard API. Every
// response carries patient data, so nothing is cached. Spreadsheet exports
// are attachments: browsers must save them, never render them inline.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Cache-Control", "no-store")

			if IsSpreadsheetExport(c.Request().URL.Path) {
				h.Set("Content-Security-Policy", "sandbox; default-src 'none'")
				h.Set("X-Download-Options", "noopen")
				h.Set("Cross-Origin-Resource-Policy", "same-origin")
			} else {
				h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}

			return next(c)
		}
	}
}
