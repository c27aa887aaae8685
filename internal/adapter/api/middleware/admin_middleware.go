package middleware

import (
	"github.com/labstack/echo/v4"

	"matchmate/internal/domain/repository"
	"matchmate/pkg/errors"
)

type AdminMiddleware struct {
	userRepo repository.UserRepository
}

func NewAdminMiddleware(userRepo repository.UserRepository) *AdminMiddleware {
	return &AdminMiddleware{
		userRepo: userRepo,
	}
}

func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("uid").(string)
		if !ok {
			return errors.Unauthorized("Authentication required", nil)
		}

		user, err := m.userRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			if errors.Is(err, errors.CodeNotFound) {
				return errors.Forbidden("Admin privileges required", nil)
			}
			return errors.Internal("Failed to verify admin privileges", err)
		}

		if !user.IsAdmin() {
			return errors.Forbidden("Admin privileges required", nil)
		}

		return next(c)
	}
}
