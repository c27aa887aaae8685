package handler

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/usecase"
	"matchmate/pkg/response"
)

type AdminHandler struct {
	queueUseCase *usecase.QueueUseCase
}

func NewAdminHandler(queueUseCase *usecase.QueueUseCase) *AdminHandler {
	return &AdminHandler{
		queueUseCase: queueUseCase,
	}
}

// MarkMatched takes :uid out of the matching pool.
func (h *AdminHandler) MarkMatched(c echo.Context) error {
	uid := c.Param("uid")
	if err := h.queueUseCase.MarkMatched(c.Request().Context(), uid); err != nil {
		return response.Error(c, err)
	}

	entry, err := h.queueUseCase.GetEntry(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, entry)
}
