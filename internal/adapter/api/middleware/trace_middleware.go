package middleware

import (
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"matchmate/pkg/logger"
)

// CloudTrace tags the request context with the trace id sent by Google's
// front end, so entries logged with that context group under the request in
// Cloud Logging. It also writes a debug line per traced request. An empty
// projectID disables it.
func CloudTrace(projectID string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if projectID == "" {
				return next(c)
			}
			req := c.Request()
			traceID := traceIDFrom(req.Header)
			if traceID == "" {
				return next(c)
			}

			trace := "projects/" + projectID + "/traces/" + traceID
			c.SetRequest(req.WithContext(logger.WithTrace(req.Context(), trace)))

			err := next(c)

			ctx := c.Request().Context()
			logger.FromContext(ctx).DebugContext(ctx, "request",
				"method", req.Method,
				"route", c.Path(),
				"status", statusOf(c, err),
			)
			return err
		}
	}
}

// traceIDFrom reads X-Cloud-Trace-Context ("TRACE_ID/SPAN_ID;o=1") and falls
// back to the W3C traceparent header.
func traceIDFrom(h http.Header) string {
	if v := h.Get("X-Cloud-Trace-Context"); v != "" {
		id, _, _ := strings.Cut(v, "/")
		id, _, _ = strings.Cut(id, ";")
		if validTraceID(id) {
			return strings.ToLower(id)
		}
	}
	if v := h.Get("traceparent"); v != "" {
		parts := strings.Split(v, "-")
		if len(parts) == 4 && validTraceID(parts[1]) {
			return strings.ToLower(parts[1])
		}
	}
	return ""
}

func validTraceID(id string) bool {
	if len(id) != 32 || id == strings.Repeat("0", 32) {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
