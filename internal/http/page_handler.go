package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/view"
	"go.uber.org/zap"
)

// PageHandler serves the server-rendered storefront pages.
type PageHandler struct {
	renderer *view.Renderer
	catalog  *catalog.Catalog
	cart     *cart.Service
	admin    *admin.Service
	timeout  time.Duration
}

func NewPageHandler(renderer *view.Renderer, catalog *catalog.Catalog, cart *cart.Service, admin *admin.Service, timeout time.Duration) *PageHandler {
	return &PageHandler{
		renderer: renderer,
		catalog:  catalog,
		cart:     cart,
		admin:    admin,
		timeout:  timeout,
	}
}

func (h *PageHandler) Products(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	data := view.ProductsPage{Header: h.header(ctx, sc)}
	cards, err := h.catalog.List(ctx)
	switch {
	case err != nil:
		logger.FromContext(ctx).Warn("load products", zap.Error(err))
		data.Message = catalog.ErrorMessage
	case len(cards) == 0:
		data.Message = catalog.EmptyMessage
	default:
		data.Cards = cards
	}
	h.render(w, r, http.StatusOK, view.PageProducts, data)
}

func (h *PageHandler) Cart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	// A failed load is rendered with a retry link.
	page := view.NewPage()
	_, _ = h.cart.Load(ctx, sc, page)
	h.render(w, r, http.StatusOK, view.PageCart, view.CartPageOf(view.Header{Auth: sc.Auth}, page))
}

func (h *PageHandler) Admin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	status := http.StatusOK
	products, err := h.admin.Products(ctx, sc)
	data := view.AdminPage{Products: products}
	switch {
	case errors.Is(err, admin.ErrUnauthorized):
		status = http.StatusUnauthorized
		data.Message = signInMessage
	case err != nil:
		data.Message = admin.ListErrorMessage
	}
	data.Header = h.header(ctx, sc)
	h.render(w, r, status, view.PageAdmin, data)
}

func (h *PageHandler) header(ctx context.Context, sc *session.Context) view.Header {
	badge := cart.NewBadge()
	h.cart.Badge().Refresh(ctx, sc, badge)
	return view.Header{Badge: badge.State(), Auth: sc.Auth}
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, page, data); err != nil {
		logger.FromContext(r.Context()).Error("render page", zap.String("page", page), zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
