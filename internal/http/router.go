package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/admin"
	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/fjod/go_cart/storefront/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Services struct {
	Catalog *catalog.Catalog
	Cart    *cart.Service
	Auth    *auth.Service
	Admin   *admin.Service
}

type RouterConfig struct {
	Store              storage.Store
	Renderer           *view.Renderer
	Logger             *zap.Logger
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	BrowserMaxAge      time.Duration
}

// NewRouter wires the storefront pages and JSON API.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	productHandler := NewProductHandler(svc.Catalog, cfg.RequestTimeout)
	cartHandler := NewCartHandler(svc.Cart, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(svc.Cart, cfg.RequestTimeout)
	authHandler := NewAuthHandler(svc.Auth, cfg.RequestTimeout)
	adminHandler := NewAdminHandler(svc.Admin, cfg.RequestTimeout)
	pageHandler := NewPageHandler(cfg.Renderer, svc.Catalog, svc.Cart, svc.Admin, cfg.RequestTimeout)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware(cfg.Logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(BrowserMiddleware(cfg.Store, cfg.BrowserMaxAge))

		r.Get("/", pageHandler.Products)
		r.Get("/cart", pageHandler.Cart)
		r.Get("/admin", pageHandler.Admin)

		r.Route("/api", func(r chi.Router) {
			r.Get("/products", productHandler.List)
			r.Get("/products/{id}", productHandler.Get)
			r.Get("/badge", cartHandler.GetBadge)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{itemID}", cartHandler.UpdateQuantity)
				r.Delete("/items/{itemID}", cartHandler.RemoveItem)
			})
			r.Post("/checkout", checkoutHandler.PlaceOrder)
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authHandler.Login)
				r.Post("/register", authHandler.Register)
				r.Post("/logout", authHandler.Logout)
			})
			r.Route("/admin/products", func(r chi.Router) {
				r.Get("/", adminHandler.ListProducts)
				r.Post("/", adminHandler.SaveProduct)
				r.Put("/{id}", adminHandler.SaveProduct)
				r.Delete("/{id}", adminHandler.DeleteProduct)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
