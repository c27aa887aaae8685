package router

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/adapter/api/handler"
	"matchmate/internal/adapter/api/middleware"
)

// SetupChatRouter sets up conversation routes under /v1/matches.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chats := e.Group("/v1/matches")
	chats.Use(authMiddleware.Authenticate)

	chats.GET("", chatHandler.ListConversations)
	chats.PUT("/:id/seen", chatHandler.MarkSeen)
	chats.PUT("/:id/unlock", chatHandler.Unlock)

	chats.GET("/:id/messages", chatHandler.ListMessages)
	chats.POST("/:id/messages", chatHandler.SendMessage)
}
