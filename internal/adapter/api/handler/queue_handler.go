package handler

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/usecase"
	"matchmate/pkg/response"
)

type QueueHandler struct {
	queueUseCase *usecase.QueueUseCase
}

func NewQueueHandler(queueUseCase *usecase.QueueUseCase) *QueueHandler {
	return &QueueHandler{
		queueUseCase: queueUseCase,
	}
}

func (h *QueueHandler) GetMyEntry(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	entry, err := h.queueUseCase.GetEntry(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, entry)
}

func (h *QueueHandler) Rejoin(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	entry, err := h.queueUseCase.Rejoin(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, entry)
}
