package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/view"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	cart    *cart.Service
	timeout time.Duration
}

func NewCartHandler(cart *cart.Service, timeout time.Duration) *CartHandler {
	return &CartHandler{
		cart:    cart,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type LineDTO struct {
	ItemID    string        `json:"itemId"`
	ProductID string        `json:"productId"`
	Name      string        `json:"name"`
	Image     string        `json:"image"`
	Price     domain.Amount `json:"price"`
	Quantity  int           `json:"quantity"`
	Total     domain.Amount `json:"total"`
}

type CartDTO struct {
	Items     []LineDTO     `json:"items"`
	ItemCount int           `json:"itemCount"`
	Subtotal  domain.Amount `json:"subtotal"`
	Tax       domain.Amount `json:"tax"`
	Total     domain.Amount `json:"total"`
	Display   string        `json:"display"`
	Name      string        `json:"name,omitempty"`
	Email     string        `json:"email,omitempty"`
}

// CartResponse is what a cart operation rendered: the refreshed cart, the
// badge and any notices or alerts.
type CartResponse struct {
	Cart      *CartDTO        `json:"cart,omitempty"`
	CartError string          `json:"cartError,omitempty"`
	Order     *domain.Order   `json:"order,omitempty"`
	Badge     cart.BadgeState `json:"badge"`
	Notices   []string        `json:"notices,omitempty"`
	Alerts    []string        `json:"alerts,omitempty"`
}

func newCartResponse(p *view.Page) CartResponse {
	resp := CartResponse{
		CartError: p.CartError,
		Order:     p.Order,
		Badge:     p.State(),
		Notices:   p.Notices,
		Alerts:    p.Alerts,
	}
	if p.Cart != nil {
		resp.Cart = convertView(p.Cart)
	}
	return resp
}

func convertView(v *cart.View) *CartDTO {
	dto := &CartDTO{
		Items:     make([]LineDTO, len(v.Lines)),
		ItemCount: v.ItemCount,
		Subtotal:  v.Subtotal,
		Tax:       v.Tax,
		Total:     v.Total,
		Display:   view.Money(v.Total),
		Name:      v.Prefill.Name,
		Email:     v.Prefill.Email,
	}
	for i, l := range v.Lines {
		dto.Items[i] = LineDTO{
			ItemID:    l.ItemID,
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.Price,
			Quantity:  l.Quantity,
			Total:     l.Total,
		}
	}
	return dto
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	page := view.NewPage()
	if _, err := h.cart.Load(ctx, sc, page); err != nil {
		status, code := statusOf(err)
		respondJSON(w, r, status, struct {
			ErrorResponse
			CartResponse
		}{ErrorResponse{Error: page.CartError, Code: code}, newCartResponse(page)})
		return
	}
	respondJSON(w, r, http.StatusOK, newCartResponse(page))
}

func (h *CartHandler) GetBadge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	page := view.NewPage()
	h.cart.Badge().Refresh(ctx, sc, page)
	respondJSON(w, r, http.StatusOK, page.State())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.mutate(w, r, http.StatusCreated, func(ctx context.Context, p *view.Page) error {
		return h.cart.AddItem(ctx, getBrowserFromContext(ctx), p, req.ProductID, req.Name, nil)
	})
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.mutate(w, r, http.StatusOK, func(ctx context.Context, p *view.Page) error {
		return h.cart.SetQuantity(ctx, getBrowserFromContext(ctx), p, itemID, req.Quantity, nil)
	})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")

	h.mutate(w, r, http.StatusOK, func(ctx context.Context, p *view.Page) error {
		return h.cart.RemoveItem(ctx, getBrowserFromContext(ctx), p, itemID, nil)
	})
}

// mutate runs op and answers with what it rendered. A failed op has already
// put its message into the page alerts.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, okStatus int, op func(context.Context, *view.Page) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if getBrowserFromContext(ctx) == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	page := view.NewPage()
	if err := op(ctx, page); err != nil {
		message := domain.Describe(err, "")
		if len(page.Alerts) > 0 {
			message = page.Alerts[len(page.Alerts)-1]
		}
		handleError(w, r, err, message)
		return
	}
	respondJSON(w, r, okStatus, newCartResponse(page))
}
