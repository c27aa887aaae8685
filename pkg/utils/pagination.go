package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// CursorParams holds the cursor of an older-page request.
type CursorParams struct {
	Before string
	Limit  int
}

// GetCursorParams reads ?before= and ?limit=, falling back to defaultSize
// and capping at MaxPageSize.
func GetCursorParams(c echo.Context, defaultSize int) CursorParams {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return CursorParams{
		Before: c.QueryParam("before"),
		Limit:  ClampPageSize(limit, defaultSize),
	}
}

func ClampPageSize(limit, defaultSize int) int {
	if defaultSize <= 0 || defaultSize > MaxPageSize {
		defaultSize = DefaultPageSize
	}
	if limit <= 0 {
		return defaultSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
