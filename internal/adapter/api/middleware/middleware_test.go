package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchmate/internal/adapter/repository"
	"matchmate/internal/domain/entity"
	"matchmate/internal/infrastructure/memstore"
	"matchmate/pkg/errors"
	"matchmate/pkg/logger"
	"matchmate/pkg/response"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	uid, ok := v[token]
	if !ok {
		return "", stderrors.New("unknown token")
	}
	return uid, nil
}

func uidEcho(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	return c.String(http.StatusOK, uid)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = response.HTTPErrorHandler
	return e
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthMiddleware(staticVerifier{"good": "alice"})
	e := newEcho()
	e.GET("/me", uidEcho, auth.Authenticate)

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid", "Bearer good", http.StatusOK, "alice"},
		{"missing", "", http.StatusUnauthorized, errors.CodeUnauthorized},
		{"wrong scheme", "Token good", http.StatusUnauthorized, errors.CodeUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized, errors.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestAuthenticateQuery(t *testing.T) {
	auth := NewAuthMiddleware(staticVerifier{"good": "bob"})
	e := newEcho()
	e.GET("/ws", uidEcho, auth.AuthenticateQuery)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOnly(t *testing.T) {
	users := repository.NewMemoryUserRepository(memstore.New())
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &entity.User{ID: "root", Nickname: "root", Role: entity.RoleAdmin}))
	require.NoError(t, users.Create(ctx, &entity.User{ID: "alice", Nickname: "alice"}))

	auth := NewAuthMiddleware(staticVerifier{"root": "root", "alice": "alice", "ghost": "ghost"})
	admin := NewAdminMiddleware(users)
	e := newEcho()
	e.POST("/admin", uidEcho, auth.Authenticate, admin.AdminOnly)

	tests := []struct {
		token  string
		status int
	}{
		{"root", http.StatusOK},
		{"alice", http.StatusForbidden},
		{"ghost", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	e := newEcho()
	e.Use(RateLimit(1, 2))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	get := func(path, ip string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, get("/ping", "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, get("/ping", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, get("/ping", "10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, get("/ping", "10.0.0.2"), "limits are per client")

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, get("/health", "10.0.0.1"))
	}
}

func TestStatusOf(t *testing.T) {
	e := echo.New()
	newCtx := func() echo.Context {
		return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	}

	assert.Equal(t, http.StatusNotFound, statusOf(newCtx(), errors.NotFound("Match", nil)))
	assert.Equal(t, http.StatusMethodNotAllowed, statusOf(newCtx(), echo.ErrMethodNotAllowed))
	assert.Equal(t, http.StatusInternalServerError, statusOf(newCtx(), stderrors.New("boom")))

	c := newCtx()
	require.NoError(t, c.NoContent(http.StatusAccepted))
	assert.Equal(t, http.StatusAccepted, statusOf(c, nil))
}

func TestCloudTrace(t *testing.T) {
	auth := NewAuthMiddleware(staticVerifier{"good": "alice"})
	e := newEcho()
	e.Use(CloudTrace("proj"))
	e.GET("/trace", func(c echo.Context) error {
		return c.String(http.StatusOK, logger.TraceFromContext(c.Request().Context()))
	}, auth.Authenticate)

	const id = "105445aa7843bc8bf206b12000100000"
	tests := []struct {
		name   string
		header string
		value  string
		want   string
	}{
		{"cloud trace header", "X-Cloud-Trace-Context", id + "/1;o=1", "projects/proj/traces/" + id},
		{"upper case id", "X-Cloud-Trace-Context", strings.ToUpper(id) + "/1", "projects/proj/traces/" + id},
		{"traceparent", "traceparent", "00-" + id + "-00f067aa0ba902b7-01", "projects/proj/traces/" + id},
		{"malformed", "X-Cloud-Trace-Context", "not-a-trace/1", ""},
		{"zero id", "traceparent", "00-" + strings.Repeat("0", 32) + "-00f067aa0ba902b7-01", ""},
		{"absent", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/trace", nil)
			req.Header.Set("Authorization", "Bearer good")
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}

	disabled := newEcho()
	disabled.Use(CloudTrace(""))
	disabled.GET("/trace", func(c echo.Context) error {
		return c.String(http.StatusOK, logger.TraceFromContext(c.Request().Context()))
	})
	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set("X-Cloud-Trace-Context", id+"/1")
	rec := httptest.NewRecorder()
	disabled.ServeHTTP(rec, req)
	assert.Empty(t, rec.Body.String())
}
