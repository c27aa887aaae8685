package router

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/adapter/api/handler"
)

func SetupDevRouter(e *echo.Echo, environment string) {
	if environment != "development" {
		return
	}
	devTokenHandler := handler.GetDevTokenHandler()
	if devTokenHandler == nil {
		return
	}

	e.POST("/v1/dev/token", devTokenHandler.GenerateToken)
}
