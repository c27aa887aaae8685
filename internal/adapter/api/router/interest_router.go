package router

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/adapter/api/handler"
	"matchmate/internal/adapter/api/middleware"
)

func SetupInterestRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	interestHandler := handler.GetInterestHandler()

	interests := e.Group("/v1/interests")
	interests.Use(authMiddleware.Authenticate)

	interests.GET("", interestHandler.ListInterests)
}
