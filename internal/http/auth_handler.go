package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/validation"
)

type AuthHandler struct {
	auth    *auth.Service
	timeout time.Duration
}

func NewAuthHandler(auth *auth.Service, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:    auth,
		timeout: timeout,
	}
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequestDTO struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginResponseDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"isAdmin"`
	Redirect string `json:"redirect"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	var req LoginRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	a, err := h.auth.Login(ctx, sc, validation.LoginForm{Email: req.Email, Password: req.Password})
	if err != nil {
		handleError(w, r, err, auth.Message(err))
		return
	}

	redirect := "/"
	if a.IsAdmin() {
		redirect = "/admin"
	}
	respondJSON(w, r, http.StatusOK, LoginResponseDTO{
		Name:     a.Name,
		Email:    a.Email,
		Role:     a.Role.String(),
		IsAdmin:  a.IsAdmin(),
		Redirect: redirect,
	})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.auth.Register(ctx, validation.RegisterForm{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleError(w, r, err, auth.Message(err))
		return
	}
	respondJSON(w, r, http.StatusCreated, map[string]string{"message": auth.RegisteredMessage})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	if err := h.auth.Logout(r.Context(), sc); err != nil {
		handleError(w, r, err, "Logout failed")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
