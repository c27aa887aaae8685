package router

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/adapter/api/handler"
	"matchmate/internal/adapter/api/middleware"
)

func SetupQueueRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	queueHandler := handler.GetQueueHandler()

	queue := e.Group("/v1/queue")
	queue.Use(authMiddleware.Authenticate)

	queue.GET("/me", queueHandler.GetMyEntry)
	queue.POST("/rejoin", queueHandler.Rejoin)
}
