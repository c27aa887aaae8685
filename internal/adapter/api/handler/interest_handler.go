package handler

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/usecase"
	"matchmate/pkg/response"
)

type InterestHandler struct {
	interestUseCase *usecase.InterestUseCase
}

func NewInterestHandler(interestUseCase *usecase.InterestUseCase) *InterestHandler {
	return &InterestHandler{
		interestUseCase: interestUseCase,
	}
}

func (h *InterestHandler) ListInterests(c echo.Context) error {
	interests, err := h.interestUseCase.ListInterests(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, interests)
}
