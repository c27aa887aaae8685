package router

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/adapter/api/handler"
	"matchmate/internal/infrastructure/telemetry"
)

func SetupHealthRouter(e *echo.Echo) {
	healthHandler := handler.GetHealthHandler()
	e.GET("/health", healthHandler.CheckHealth)
	e.GET("/metrics", echo.WrapHandler(telemetry.Handler()))
}
