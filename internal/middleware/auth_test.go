package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/perftrack/pkg/config"
	"github.com/suteetoe/perftrack/pkg/jwtutil"
)

func init() {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 168})
}

func run(t *testing.T, token string, mw ...echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	rec := run(t, "", AuthMiddleware)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	rec := run(t, "not-a-token", AuthMiddleware)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsTokenWithoutPermissions(t *testing.T) {
	token, err := jwtutil.GenerateToken("user@example.com", 1, "user", false, nil, nil)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	rec := run(t, token, AuthMiddleware)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for empty permission payload, got %d", rec.Code)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	token, err := jwtutil.GenerateToken("user@example.com", 1, "user", false, []string{"project:read"}, nil)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	rec := run(t, token, AuthMiddleware)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	token, err := jwtutil.GenerateToken("user@example.com", 1, "user", false, []string{"project:read"}, nil)
	if err != nil {
		t.Fatalf("token generation failed: %v", err)
	}

	rec := run(t, token, AuthMiddleware, RequirePermission("project:read"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with held permission, got %d", rec.Code)
	}

	rec = run(t, token, AuthMiddleware, RequirePermission("project:delete"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without permission, got %d", rec.Code)
	}
}
