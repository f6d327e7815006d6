package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lshigami/nodo-plus/config"
	"github.com/lshigami/nodo-plus/internal/model"
	"github.com/lshigami/nodo-plus/internal/service"
)

func newRouter() (*gin.Engine, *Auth) {
	gin.SetMode(gin.TestMode)
	auth := NewAuth(&config.Config{Auth: config.Auth{JWTSecret: "mw-secret"}})
	r := gin.New()
	r.GET("/me", auth.Authenticate(), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c)+"/"+string(Role(c)))
	})
	r.GET("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r, auth
}

func do(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func token(t *testing.T, secret string, role model.Role, ttl time.Duration) string {
	t.Helper()
	tok, err := service.IssueToken([]byte(secret), "user-1", role, time.Now(), ttl)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func TestAuthenticate(t *testing.T) {
	r, _ := newRouter()

	if w := do(r, "/me", ""); w.Code != http.StatusUnauthorized || w.Body.String() != `{"error":"No token provided"}` {
		t.Fatalf("missing token: %d %s", w.Code, w.Body.String())
	}
	if w := do(r, "/me", "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: %d", w.Code)
	}
	if w := do(r, "/me", token(t, "other", model.RoleEdTech, time.Hour)); w.Code != http.StatusUnauthorized {
		t.Fatalf("foreign token: %d", w.Code)
	}
	if w := do(r, "/me", token(t, "mw-secret", model.RoleEdTech, -time.Minute)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: %d", w.Code)
	}
	w := do(r, "/me", token(t, "mw-secret", model.RoleEdTech, time.Hour))
	if w.Code != http.StatusOK || w.Body.String() != "user-1/EDTECH" {
		t.Fatalf("valid token: %d %s", w.Code, w.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	r, _ := newRouter()
	if w := do(r, "/admin", token(t, "mw-secret", model.RoleEdTech, time.Hour)); w.Code != http.StatusForbidden {
		t.Fatalf("vendor on admin route: %d", w.Code)
	}
	if w := do(r, "/admin", token(t, "mw-secret", model.RoleAdmin, time.Hour)); w.Code != http.StatusNoContent {
		t.Fatalf("admin: %d", w.Code)
	}
}
