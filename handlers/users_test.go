package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/auth"
	"github.com/Vighnesh-Gaddam/Restuarant-Backend/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// fakeUsers is an in-memory UserStore for the account handler tests.
type fakeUsers struct {
	users       map[string]users.User
	resetTokens map[string]string // token -> user id
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:       make(map[string]users.User),
		resetTokens: make(map[string]string),
	}
}

func (f *fakeUsers) InsertUser(_ context.Context, nu users.NewUser) (users.User, error) {
	for _, u := range f.users {
		if u.Email == nu.Email {
			return users.User{}, users.ErrEmailTaken
		}
	}
	u := users.User{ID: "user-" + nu.Email, Name: nu.Name, Email: nu.Email, Phone: nu.Phone, Role: auth.RoleUser}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeUsers) Authenticate(_ context.Context, email, _ string) (users.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, users.ErrInvalidCredentials
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (users.User, error) {
	u, ok := f.users[id]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) UpdateRefreshToken(_ context.Context, userID, token string) error {
	u, ok := f.users[userID]
	if !ok {
		return users.ErrUserNotFound
	}
	u.RefreshToken = token
	f.users[userID] = u
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, userID string, up users.UpdateUser) (users.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	if up.Name != "" {
		u.Name = up.Name
	}
	if up.Phone != "" {
		u.Phone = up.Phone
	}
	f.users[userID] = u
	return u, nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return users.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUsers) CreatePasswordResetToken(_ context.Context, email string) (string, error) {
	for id, u := range f.users {
		if u.Email == email {
			token := "reset-" + id
			f.resetTokens[token] = id
			return token, nil
		}
	}
	return "", users.ErrUserNotFound
}

func (f *fakeUsers) ResetPassword(_ context.Context, token, password string) error {
	id, ok := f.resetTokens[token]
	if !ok {
		return users.ErrInvalidResetToken
	}
	u := f.users[id]
	u.PasswordHash = "hashed:" + password
	u.RefreshToken = ""
	f.users[id] = u
	delete(f.resetTokens, token)
	return nil
}

// withClaims puts verified claims on the request context the way the
// authentication middleware does.
func withClaims(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
			Role:             role,
		}
		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func newAccountRouter(t *testing.T) (*gin.Engine, *fakeUsers) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := newFakeUsers()
	store.users["user-1"] = users.User{
		ID: "user-1", Name: "Asha", Email: "asha@example.com", Phone: "9876543210", Role: auth.RoleUser,
	}

	h := NewHandler(store, nil, nil, nil, nil, nil)
	r := gin.New()
	r.PUT("/api/user/me", withClaims("user-1", auth.RoleUser), h.UpdateProfile)
	r.DELETE("/api/user/me", withClaims("user-1", auth.RoleUser), h.DeleteAccount)
	r.POST("/api/auth/forgot-password", h.ForgotPassword)
	r.POST("/api/auth/reset-password", h.ResetPassword)
	return r, store
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUpdateProfile(t *testing.T) {
	t.Run("updates name and keeps phone", func(t *testing.T) {
		r, store := newAccountRouter(t)

		w := doJSON(r, http.MethodPut, "/api/user/me", gin.H{"name": "Asha R"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
		}
		u := store.users["user-1"]
		if u.Name != "Asha R" {
			t.Errorf("Name = %q, want Asha R", u.Name)
		}
		if u.Phone != "9876543210" {
			t.Errorf("Phone = %q, want unchanged", u.Phone)
		}
	})

	t.Run("empty body is rejected", func(t *testing.T) {
		r, _ := newAccountRouter(t)
		if w := doJSON(r, http.MethodPut, "/api/user/me", gin.H{}); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("too-short phone is rejected", func(t *testing.T) {
		r, _ := newAccountRouter(t)
		if w := doJSON(r, http.MethodPut, "/api/user/me", gin.H{"phone": "123"}); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

func TestDeleteAccount(t *testing.T) {
	r, store := newAccountRouter(t)

	w := doJSON(r, http.MethodDelete, "/api/user/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
	if _, ok := store.users["user-1"]; ok {
		t.Errorf("account still present after deletion")
	}

	// The account is gone; a second delete reports not found.
	if w := doJSON(r, http.MethodDelete, "/api/user/me", nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestPasswordReset(t *testing.T) {
	t.Run("known email issues a token", func(t *testing.T) {
		r, store := newAccountRouter(t)

		w := doJSON(r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "asha@example.com"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
		}
		if len(store.resetTokens) != 1 {
			t.Errorf("reset tokens issued = %d, want 1", len(store.resetTokens))
		}
	})

	t.Run("unknown email gets the same response and no token", func(t *testing.T) {
		r, store := newAccountRouter(t)

		w := doJSON(r, http.MethodPost, "/api/auth/forgot-password", gin.H{"email": "ghost@example.com"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if len(store.resetTokens) != 0 {
			t.Errorf("token issued for an unknown email")
		}
	})

	t.Run("valid token resets the password and revokes sessions", func(t *testing.T) {
		r, store := newAccountRouter(t)
		store.users["user-1"] = users.User{
			ID: "user-1", Email: "asha@example.com", RefreshToken: "old-session",
		}
		store.resetTokens["reset-user-1"] = "user-1"

		w := doJSON(r, http.MethodPost, "/api/auth/reset-password",
			gin.H{"token": "reset-user-1", "password": "brand-new-pass"})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
		}
		u := store.users["user-1"]
		if u.PasswordHash != "hashed:brand-new-pass" {
			t.Errorf("password not updated")
		}
		if u.RefreshToken != "" {
			t.Errorf("refresh token not revoked on reset")
		}
		// One-time use.
		w = doJSON(r, http.MethodPost, "/api/auth/reset-password",
			gin.H{"token": "reset-user-1", "password": "another-pass"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("reused token status = %d, want 400", w.Code)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		r, _ := newAccountRouter(t)
		w := doJSON(r, http.MethodPost, "/api/auth/reset-password",
			gin.H{"token": "bogus", "password": "brand-new-pass"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("short password", func(t *testing.T) {
		r, _ := newAccountRouter(t)
		w := doJSON(r, http.MethodPost, "/api/auth/reset-password",
			gin.H{"token": "reset-user-1", "password": "short"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}
