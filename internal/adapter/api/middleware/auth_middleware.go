package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
)

// TokenVerifier resolves an ID token to the uid it was issued for.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Authenticate requires a bearer token and stores its uid under "uid".
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return errors.Unauthorized("Authorization header is required", nil)
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return errors.Unauthorized("Invalid authorization format", nil)
		}

		return m.verify(c, next, parts[1])
	}
}

// AuthenticateQuery accepts the token as ?token= for clients that cannot set
// headers, such as browser websockets.
func (m *AuthMiddleware) AuthenticateQuery(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.QueryParam("token")
		if token == "" {
			return errors.Unauthorized("token query parameter is required", nil)
		}
		return m.verify(c, next, token)
	}
}

func (m *AuthMiddleware) verify(c echo.Context, next echo.HandlerFunc, token string) error {
	ctx := c.Request().Context()
	uid, err := m.verifier.VerifyToken(ctx, token)
	if err != nil || uid == "" {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	c.Set("uid", uid)
	c.SetRequest(c.Request().WithContext(logger.With(ctx, "uid", uid)))
	return next(c)
}
