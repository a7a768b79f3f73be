package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/go-chi/chi/v5"
)

const (
	signInMessage   = "Please log in as an administrator."
	maxUploadMemory = 8 << 20
)

type AdminHandler struct {
	admin   *admin.Service
	timeout time.Duration
}

func NewAdminHandler(admin *admin.Service, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		admin:   admin,
		timeout: timeout,
	}
}

type ProductRequestDTO struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
}

func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	products, err := h.admin.Products(ctx, sc)
	if err != nil {
		handleError(w, r, err, adminMessage(err, admin.ListErrorMessage))
		return
	}
	respondJSON(w, r, http.StatusOK, map[string][]domain.Product{"products": products})
}

// SaveProduct creates a product on POST and updates {id} on PUT. A
// multipart body may carry the picture as an "image" file.
func (h *AdminHandler) SaveProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	form, image, err := parseProductForm(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.admin.Save(ctx, sc, id, form, image); err != nil {
		handleError(w, r, err, adminMessage(err, admin.SaveFallback))
		return
	}

	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	respondJSON(w, r, status, map[string]string{"status": "saved"})
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sc := getBrowserFromContext(r.Context())
	if sc == nil {
		respondError(w, r, http.StatusUnauthorized, "unauthorized", "missing browser state")
		return
	}

	if err := h.admin.Delete(ctx, sc, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err, adminMessage(err, admin.DeleteFallback))
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "deleted"})
}

func adminMessage(err error, fallback string) string {
	if errors.Is(err, admin.ErrUnauthorized) {
		return signInMessage
	}
	return domain.Describe(err, fallback)
}

func parseProductForm(r *http.Request) (validation.ProductForm, *backend.Image, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var req ProductRequestDTO
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return validation.ProductForm{}, nil, errors.New("invalid JSON body")
		}
		return validation.ProductForm{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			Category:    req.Category,
			ImageURL:    req.Image,
		}, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return validation.ProductForm{}, nil, errors.New("invalid multipart body")
	}
	form := validation.ProductForm{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		ImageURL:    r.FormValue("image"),
	}
	var err error
	if form.Price, err = strconv.ParseFloat(strings.TrimSpace(r.FormValue("price")), 64); err != nil {
		return validation.ProductForm{}, nil, errors.New("price must be a number")
	}
	if form.Stock, err = strconv.Atoi(strings.TrimSpace(r.FormValue("stock"))); err != nil {
		return validation.ProductForm{}, nil, errors.New("stock must be a whole number")
	}

	file, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, nil
	}
	if err != nil {
		return validation.ProductForm{}, nil, errors.New("invalid image upload")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return validation.ProductForm{}, nil, errors.New("invalid image upload")
	}
	return form, &backend.Image{Filename: hdr.Filename, Data: data}, nil
}
