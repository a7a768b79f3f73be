package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"go.uber.org/zap"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError writes err with message as the user-facing text.
func handleError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status, code := statusOf(err)
	respondError(w, r, status, code, message)
}

// statusOf maps a storefront error to the status the browser sees. Backend
// 4xx answers pass through; backend 5xx and transport failures become
// gateway errors.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, cart.ErrBusy):
		return http.StatusConflict, "in_progress"
	case errors.Is(err, admin.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthenticated"
	}

	var f *domain.Failure
	if !errors.As(err, &f) {
		return http.StatusInternalServerError, "internal_error"
	}
	switch f.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest, "invalid_argument"
	case domain.KindTimeout:
		return http.StatusGatewayTimeout, "timeout"
	case domain.KindConnectivity:
		return http.StatusBadGateway, "service_unavailable"
	}

	switch {
	case f.Status == http.StatusNotFound:
		return http.StatusNotFound, "not_found"
	case f.Status == http.StatusUnauthorized:
		return http.StatusUnauthorized, "unauthenticated"
	case f.Status == http.StatusForbidden:
		return http.StatusForbidden, "permission_denied"
	case f.Status == http.StatusConflict:
		return http.StatusConflict, "already_exists"
	case f.Status == http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "rate_limit_exceeded"
	case f.Status >= 400 && f.Status < 500:
		return f.Status, "invalid_argument"
	default:
		return http.StatusBadGateway, "backend_error"
	}
}
