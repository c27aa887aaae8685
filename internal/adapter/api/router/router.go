package router

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/adapter/api/handler"
	"matchmate/internal/adapter/api/middleware"
)

// Setup registers every route except the websocket and development ones,
// which need handlers built by main.
func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	SetupHealthRouter(e)
	SetupInterestRouter(e, authMiddleware)
	SetupUserRouter(e, authMiddleware)
	SetupQueueRouter(e, authMiddleware)
	SetupMatchRouter(e, authMiddleware)
	SetupChatRouter(e, handler.GetChatHandler(), authMiddleware)
	SetupAdminRouter(e, authMiddleware, adminMiddleware)
}
