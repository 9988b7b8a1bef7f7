package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tableside-pos/api/internal/auth"
	"github.com/tableside-pos/api/internal/middleware"
)

// AuthHandler handles the shared admin credential login. On success it sets
// an httpOnly session cookie carrying a JWT; the SPA never sees the token.
type AuthHandler struct {
	jwtSecret    string
	username     string
	password     string
	passwordHash string
}

// NewAuthHandler creates a new AuthHandler. When passwordHash is non-empty it
// takes precedence over the plaintext password.
func NewAuthHandler(jwtSecret, username, password, passwordHash string) *AuthHandler {
	return &AuthHandler{
		jwtSecret:    jwtSecret,
		username:     username,
		password:     password,
		passwordHash: passwordHash,
	}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username and password are required"})
		return
	}

	if !h.credentialsValid(req.Username, req.Password) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, req.Username)
	if err != nil {
		log.Printf("ERROR: generate token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged in"})
}

// Logout handles POST /auth/logout by expiring the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AdminCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) credentialsValid(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) != 1 {
		return false
	}
	if h.passwordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(password)) == nil
	}
	if h.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1
}
