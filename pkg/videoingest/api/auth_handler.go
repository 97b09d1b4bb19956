package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldsight/video-ingest/pkg/videoingest"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// AuthHandler issues the bearer tokens that guard the records endpoints.
type AuthHandler struct {
	repo videoingest.Repository
	auth *jwtauth.JWTAuth
}

func NewAuthHandler(repo videoingest.Repository, auth *jwtauth.JWTAuth) *AuthHandler {
	return &AuthHandler{repo: repo, auth: auth}
}

// Routes returns the router for auth endpoints
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.SignUp)
	r.Post("/login", h.Login)
	return r
}

// SignUpRequest represents a new account registration
type SignUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

// LoginRequest represents a credential check
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly minted token pair
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// SignUp registers a new user and returns a token pair
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode signup request", "error", err)
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeError(w, r, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, r, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	user := &videoingest.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.repo.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, videoingest.ErrUserExists) {
			writeError(w, r, http.StatusConflict, "email already registered")
			return
		}
		slog.Error("Failed to create user", "email", req.Email, "error", err)
		writeServiceError(w, r, err)
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		slog.Error("Failed to issue tokens", "user_id", user.ID.String(), "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("User registered", "user_id", user.ID.String())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, tokens)
}

// Login verifies credentials and returns a token pair
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode login request", "error", err)
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.repo.GetUserByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, videoingest.ErrUserNotFound) {
			writeError(w, r, http.StatusUnauthorized, videoingest.ErrInvalidCredentials.Error())
			return
		}
		slog.Error("Failed to look up user", "email", email, "error", err)
		writeServiceError(w, r, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, r, http.StatusUnauthorized, videoingest.ErrInvalidCredentials.Error())
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		slog.Error("Failed to issue tokens", "user_id", user.ID.String(), "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("User logged in", "user_id", user.ID.String())
	render.JSON(w, r, tokens)
}

func (h *AuthHandler) issueTokens(user *videoingest.User) (*TokenResponse, error) {
	access, err := h.encodeToken(user, "access", accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := h.encodeToken(user, "refresh", refreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}

func (h *AuthHandler) encodeToken(user *videoingest.User, use string, ttl time.Duration) (string, error) {
	claims := map[string]interface{}{
		"sub":       user.ID.String(),
		"email":     user.Email,
		"token_use": use,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, ttl)
	_, tokenString, err := h.auth.Encode(claims)
	return tokenString, err
}
