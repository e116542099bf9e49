package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/auth"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Mid, *auth.Keys) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	keys, err := auth.NewKeys("access-secret", "refresh-secret")
	if err != nil {
		t.Fatalf("NewKeys: %v", err)
	}
	mid, err := NewMid(keys)
	if err != nil {
		t.Fatalf("NewMid: %v", err)
	}
	return gin.New(), mid, keys
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthentication(t *testing.T) {
	r, mid, keys := newTestRouter(t)
	r.GET("/secure", mid.Authentication(), func(c *gin.Context) {
		claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Subject)
	})

	t.Run("valid token reaches the handler with claims", func(t *testing.T) {
		token, err := keys.GenerateAccessToken("user-1", auth.RoleUser)
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		w := get(r, "/secure", token)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if w.Body.String() != "user-1" {
			t.Errorf("subject = %q, want user-1", w.Body.String())
		}
	})

	t.Run("missing header", func(t *testing.T) {
		if w := get(r, "/secure", ""); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/secure", nil)
		req.Header.Set("Authorization", "Token abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if w := get(r, "/secure", "not.a.jwt"); w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestAuthorize(t *testing.T) {
	r, mid, keys := newTestRouter(t)
	adminOnly := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/admin", mid.Authentication(), mid.Authorize(adminOnly, auth.RoleAdmin))

	t.Run("admin role passes", func(t *testing.T) {
		token, err := keys.GenerateAccessToken("admin-1", auth.RoleAdmin)
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		if w := get(r, "/admin", token); w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("customer role is forbidden", func(t *testing.T) {
		token, err := keys.GenerateAccessToken("user-1", auth.RoleUser)
		if err != nil {
			t.Fatalf("GenerateAccessToken: %v", err)
		}
		if w := get(r, "/admin", token); w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}
