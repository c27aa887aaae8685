package handler

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/usecase"
	"matchmate/pkg/errors"
)

var (
	interestHandler *InterestHandler
	userHandler     *UserHandler
	queueHandler    *QueueHandler
	matchHandler    *MatchHandler
	chatHandler     *ChatHandler
	adminHandler    *AdminHandler
)

func Setup(
	interestUseCase *usecase.InterestUseCase,
	userUseCase *usecase.UserUseCase,
	queueUseCase *usecase.QueueUseCase,
	matchUseCase *usecase.MatchUseCase,
	chatUseCase *usecase.ChatUseCase,
) {
	interestHandler = NewInterestHandler(interestUseCase)
	userHandler = NewUserHandler(userUseCase)
	queueHandler = NewQueueHandler(queueUseCase)
	matchHandler = NewMatchHandler(matchUseCase)
	chatHandler = NewChatHandler(chatUseCase)
	adminHandler = NewAdminHandler(queueUseCase)
}

func GetInterestHandler() *InterestHandler {
	return interestHandler
}

func GetUserHandler() *UserHandler {
	return userHandler
}

func GetQueueHandler() *QueueHandler {
	return queueHandler
}

func GetMatchHandler() *MatchHandler {
	return matchHandler
}

func GetChatHandler() *ChatHandler {
	return chatHandler
}

func GetAdminHandler() *AdminHandler {
	return adminHandler
}

// currentUID returns the uid stored by the auth middleware.
func currentUID(c echo.Context) (string, error) {
	uid, ok := c.Get("uid").(string)
	if !ok || uid == "" {
		return "", errors.Unauthorized("Authentication required", nil)
	}
	return uid, nil
}
