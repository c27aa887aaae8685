package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"matchmate/internal/usecase"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
	"matchmate/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type updateProfileRequest struct {
	Nickname *string `json:"nickname" validate:"omitempty,min=3,max=30"`
	Age      *int    `json:"age" validate:"omitempty,min=18,max=120"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

type setInterestsRequest struct {
	Interests []string `json:"interests" validate:"required,min=1,dive,required"`
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.GetProfile(c.Request().Context(), uid)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
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

	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), uid, usecase.UpdateProfileInput{
		Nickname: req.Nickname,
		Age:      req.Age,
		Bio:      req.Bio,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

func (h *UserHandler) SetInterests(c echo.Context) error {
	var req setInterestsRequest
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

	user, err := h.userUseCase.SetInterests(c.Request().Context(), uid, req.Interests)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, user)
}

// UploadPhoto expects a multipart form with the image in field "photo".
func (h *UserHandler) UploadPhoto(c echo.Context) error {
	uid, err := currentUID(c)
	if err != nil {
		return response.Error(c, err)
	}

	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, usecase.MaxPhotoSize+1<<20)
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return response.Error(c, errors.BadRequest("photo file is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read photo", err))
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	ctx := c.Request().Context()
	logger.FromContext(ctx).DebugContext(ctx, "photo upload", "size", fileHeader.Size, "content_type", contentType)

	user, err := h.userUseCase.UploadPhoto(ctx, uid, file, fileHeader.Size, contentType)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, user)
}
