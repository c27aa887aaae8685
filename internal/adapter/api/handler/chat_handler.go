package handler

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/usecase"
	"matchmate/pkg/errors"
	"matchmate/pkg/response"
	"matchmate/pkg/utils"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type sendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

func (h *ChatHandler) ListConversations(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	params := utils.GetCursorParams(c, utils.DefaultPageSize)
	conversations, err := h.chatUseCase.ListConversations(c.Request().Context(), uid, params.Limit)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversations)
}

// ListMessages pages backwards through a conversation with ?before=<message id>.
func (h *ChatHandler) ListMessages(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	params := utils.GetCursorParams(c, utils.DefaultPageSize)
	messages, err := h.chatUseCase.ListMessages(c.Request().Context(), uid, c.Param("id"), params.Before, params.Limit)
	if err != nil {
		return response.Error(c, err)
	}

	next := ""
	if len(messages) > 0 {
		next = messages[0].ID
	}
	return response.Cursor(c, messages, len(messages), params.Limit, next)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	msg, err := h.chatUseCase.SendMessage(c.Request().Context(), uid, c.Param("id"), req.Text)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, msg)
}

func (h *ChatHandler) MarkSeen(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	if err := h.chatUseCase.MarkSeen(c.Request().Context(), uid, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"match_id": c.Param("id")})
}

func (h *ChatHandler) Unlock(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	conversation, err := h.chatUseCase.Unlock(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversation)
}
