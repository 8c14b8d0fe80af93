package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// IsSpreadsheetExport reports whether path is a dashboard spreadsheet
// download. Exports walk every matching evaluation and write the workbook in
// one go, so they get their own deadline and headers.
func IsSpreadsheetExport(path string) bool {
	return strings.HasSuffix(path, ".xlsx")
}

// RequestTimeout bounds each request with a context deadline: timeout for
// the JSON API, export for spreadsheet downloads. When the deadline passes
// before the handler returns the client gets 504.
func RequestTimeout(timeout, export time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			limit := timeout
			if IsSpreadsheetExport(c.Request().URL.Path) {
				limit = export
			}
			ctx, cancel := context.WithTimeout(c.Request().Context(), limit)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return echo.NewHTTPError(http.StatusGatewayTimeout,
						"dashboard query exceeded "+limit.String())
				}
				// Client went away.
				return ctx.Err()
			}
		}
	}
}
