package handler

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/usecase"
	"matchmate/pkg/errors"
	"matchmate/pkg/response"
)

type MatchHandler struct {
	matchUseCase *usecase.MatchUseCase
}

func NewMatchHandler(matchUseCase *usecase.MatchUseCase) *MatchHandler {
	return &MatchHandler{
		matchUseCase: matchUseCase,
	}
}

type createMatchRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
}

func (h *MatchHandler) FindCandidate(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.matchUseCase.FindCandidate(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

func (h *MatchHandler) AutoMatch(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.matchUseCase.AutoMatch(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

// CreateMatch answers 201 only when a new match was written; existing and
// unavailable outcomes are 200.
func (h *MatchHandler) CreateMatch(c echo.Context) error {
	var req createMatchRequest
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

	outcome, err := h.matchUseCase.RequestMatch(c.Request().Context(), uid, req.CandidateID)
	if err != nil {
		return response.Error(c, err)
	}
	if outcome.Kind == usecase.OutcomeCreated {
		return response.Created(c, outcome)
	}
	return response.Success(c, outcome)
}

func (h *MatchHandler) GetMatch(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	match, err := h.matchUseCase.GetMatch(c.Request().Context(), uid, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, match)
}
