package router

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/adapter/api/handler"
	"matchmate/internal/adapter/api/middleware"
)

func SetupMatchRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	matchHandler := handler.GetMatchHandler()

	search := e.Group("/v1/match")
	search.Use(authMiddleware.Authenticate)

	search.GET("/candidate", matchHandler.FindCandidate)
	search.POST("/auto", matchHandler.AutoMatch)

	matches := e.Group("/v1/matches")
	matches.Use(authMiddleware.Authenticate)

	matches.POST("", matchHandler.CreateMatch)
	matches.GET("/:id", matchHandler.GetMatch)
}
