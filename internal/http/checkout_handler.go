package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/fjod/go_cart/storefront/internal/view"
)

type CheckoutHandler struct {
	cart    *cart.Service
	timeout time.Duration
}

func NewCheckoutHandler(cart *cart.Service, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type CheckoutRequestDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PlaceOrder accepts the checkout form as JSON or as a posted HTML form.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	var req CheckoutRequestDTO
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid form body")
			return
		}
		req.Name, req.Email = r.PostForm.Get("name"), r.PostForm.Get("email")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	page := view.NewPage()
	_, err := h.cart.Checkout(ctx, sc, page, validation.CheckoutForm{Name: req.Name, Email: req.Email}, nil)
	if err != nil {
		message := domain.Describe(err, "")
		if len(page.Alerts) > 0 {
			message = page.Alerts[len(page.Alerts)-1]
		}
		handleError(w, r, err, message)
		return
	}
	respondJSON(w, r, http.StatusCreated, newCartResponse(page))
}
