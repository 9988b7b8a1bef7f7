package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/tableside-pos/api/internal/auth"
	"github.com/tableside-pos/api/internal/middleware"
)

const testJWTSecret = "test-secret"

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.AdminCookie {
			return c
		}
	}
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := NewAuthHandler(testJWTSecret, "admin", "hunter2", "")

	body := `{"username":"admin","password":"hunter2"}`
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("no session cookie set")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie is not httpOnly")
	}

	claims, err := auth.ValidateToken(testJWTSecret, cookie.Value)
	if err != nil {
		t.Fatalf("cookie does not carry a valid token: %v", err)
	}
	if claims.Username != "admin" {
		t.Errorf("username = %s, want admin", claims.Username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"username":"admin","password":"nope"}`},
		{"wrong username", `{"username":"root","password":"hunter2"}`},
		{"empty password", `{"username":"admin","password":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(testJWTSecret, "admin", "hunter2", "")

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			h.Login(rec, req)

			if rec.Code == http.StatusOK {
				t.Fatal("login succeeded with bad credentials")
			}
			if c := sessionCookie(t, rec); c != nil && c.Value != "" {
				t.Error("session cookie set on failed login")
			}
		})
	}
}

func TestLoginWithBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	h := NewAuthHandler(testJWTSecret, "admin", "", string(hash))

	req := httptest.NewRequest(http.MethodPost, "/login",
		bytes.NewBufferString(`{"username":"admin","password":"hunter2"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/login",
		bytes.NewBufferString(`{"username":"admin","password":"wrong"}`))
	rec = httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginRejectedWhenNoPasswordConfigured(t *testing.T) {
	h := NewAuthHandler(testJWTSecret, "admin", "", "")

	req := httptest.NewRequest(http.MethodPost, "/login",
		bytes.NewBufferString(`{"username":"admin","password":"anything"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := NewAuthHandler(testJWTSecret, "admin", "hunter2", "")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	cookie := sessionCookie(t, rec)
	if cookie == nil {
		t.Fatal("no cookie in response")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Errorf("cookie = %+v, want cleared", cookie)
	}
}
