package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"matchmate/internal/domain/entity"
	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
	"matchmate/pkg/response"
)

// DevTokenIssuer mints sign-in tokens for local testing.
type DevTokenIssuer interface {
	GenerateDevToken(ctx context.Context, uid string, admin bool) (string, error)
}

type DevTokenHandler struct {
	issuer   DevTokenIssuer
	userRepo repository.UserRepository
}

var devTokenHandler *DevTokenHandler

func NewDevTokenHandler(issuer DevTokenIssuer, userRepo repository.UserRepository) *DevTokenHandler {
	return &DevTokenHandler{
		issuer:   issuer,
		userRepo: userRepo,
	}
}

func SetupDevTokenHandler(issuer DevTokenIssuer, userRepo repository.UserRepository) {
	devTokenHandler = NewDevTokenHandler(issuer, userRepo)
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

type devTokenRequest struct {
	UID   string `json:"uid" validate:"required,max=128"`
	Admin bool   `json:"admin"`
}

// GenerateToken returns a custom token for the requested uid. With admin set
// the profile is also given the admin role so admin routes accept it.
func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	token, err := h.issuer.GenerateDevToken(ctx, req.UID, req.Admin)
	if err != nil {
		return response.Error(c, errors.Internal("Failed to generate token", err))
	}

	if req.Admin {
		if err := h.grantAdmin(ctx, req.UID); err != nil {
			return response.Error(c, err)
		}
	}

	return response.Success(c, map[string]interface{}{
		"token": token,
		"uid":   req.UID,
		"admin": req.Admin,
	})
}

func (h *DevTokenHandler) grantAdmin(ctx context.Context, uid string) error {
	user, err := h.userRepo.GetByID(ctx, uid)
	if errors.Is(err, errors.CodeNotFound) {
		return h.userRepo.Create(ctx, &entity.User{
			ID:        uid,
			Nickname:  uid,
			Interests: []string{},
			Role:      entity.RoleAdmin,
		})
	}
	if err != nil {
		return err
	}
	user.Role = entity.RoleAdmin
	return h.userRepo.Update(ctx, user)
}
