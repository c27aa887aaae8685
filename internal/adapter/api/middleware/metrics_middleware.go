package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"matchmate/internal/infrastructure/telemetry"
	"matchmate/pkg/errors"
)

// Metrics records request counts and latency per route template.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		telemetry.ObserveHTTP(c.Request().Method, route, strconv.Itoa(statusOf(c, err)), time.Since(start).Seconds())
		return err
	}
}

// statusOf reports the status the error handler will write when the handler
// returned an error before committing a response.
func statusOf(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	if appErr, ok := errors.As(err); ok {
		return appErr.Status
	}
	if httpErr, ok := err.(*echo.HTTPError); ok {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}
