package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/view"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog *catalog.Catalog
	timeout time.Duration
}

func NewProductHandler(catalog *catalog.Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductResponseDTO struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Price        domain.Amount `json:"price"`
	DisplayPrice string        `json:"displayPrice"`
	Image        string        `json:"image"`
	InStock      bool          `json:"inStock"`
	ButtonLabel  string        `json:"buttonLabel"`
}

type ProductListResponseDTO struct {
	Products []ProductResponseDTO `json:"products"`
	Message  string               `json:"message,omitempty"`
}

func convertCard(c catalog.Card) ProductResponseDTO {
	return ProductResponseDTO{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		Price:        c.Price,
		DisplayPrice: view.Money(c.Price),
		Image:        c.Image,
		InStock:      c.InStock,
		ButtonLabel:  c.ButtonLabel(),
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cards, err := h.catalog.List(ctx)
	if err != nil {
		handleError(w, r, err, catalog.ErrorMessage)
		return
	}

	resp := ProductListResponseDTO{Products: make([]ProductResponseDTO, len(cards))}
	for i, c := range cards {
		resp.Products[i] = convertCard(c)
	}
	if len(cards) == 0 {
		resp.Message = catalog.EmptyMessage
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product id is required")
		return
	}

	card, err := h.catalog.Get(ctx, id)
	if err != nil {
		handleError(w, r, err, domain.Describe(err, "Product not found"))
		return
	}
	respondJSON(w, r, http.StatusOK, convertCard(card))
}
