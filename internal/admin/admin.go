// Package admin manages the product catalogue for signed-in administrators.
package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"go.uber.org/zap"
)

const (
	ListErrorMessage = "Error loading products. Please check your connection."
	SaveFallback     = "Failed to save product"
	DeleteFallback   = "Failed to delete product"
)

// ErrUnauthorized means the browser has no usable admin credentials. The
// user has to sign in again.
var ErrUnauthorized = errors.New("admin sign-in required")

type Backend interface {
	AdminProducts(ctx context.Context, token string) ([]domain.Product, error)
	SaveProduct(ctx context.Context, token, id string, up backend.ProductUpload) error
	DeleteProduct(ctx context.Context, token, id string) error
}

type Service struct {
	backend Backend
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(b Backend, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{backend: b, logger: l, now: time.Now}
}

func (s *Service) Products(ctx context.Context, sc *session.Context) ([]domain.Product, error) {
	token, err := s.token(ctx, sc)
	if err != nil {
		return nil, err
	}
	products, err := s.backend.AdminProducts(ctx, token)
	if err != nil {
		return nil, s.check(ctx, sc, err)
	}
	return products, nil
}

// Save creates the product when id is empty and updates it otherwise. With an
// image the product is uploaded as multipart form data and form.ImageURL is
// ignored.
func (s *Service) Save(ctx context.Context, sc *session.Context, id string, form validation.ProductForm, image *backend.Image) error {
	form.Uploading = image != nil
	if err := validation.Check(&form); err != nil {
		return err
	}
	token, err := s.token(ctx, sc)
	if err != nil {
		return err
	}

	up := backend.ProductUpload{
		Input: domain.ProductInput{
			Name:        form.Name,
			Description: form.Description,
			Price:       form.Price,
			Category:    form.Category,
			Stock:       form.Stock,
		},
		Image: image,
	}
	if image == nil {
		up.Input.Image = form.ImageURL
	}
	if err := s.backend.SaveProduct(ctx, token, id, up); err != nil {
		return s.check(ctx, sc, err)
	}
	logger.FromContextOr(ctx, s.logger).Info("product saved", zap.String("product_id", id), zap.String("name", form.Name))
	return nil
}

func (s *Service) Delete(ctx context.Context, sc *session.Context, id string) error {
	if err := validation.Required(id, "Invalid product. Please try again."); err != nil {
		return err
	}
	token, err := s.token(ctx, sc)
	if err != nil {
		return err
	}
	if err := s.backend.DeleteProduct(ctx, token, id); err != nil {
		return s.check(ctx, sc, err)
	}
	logger.FromContextOr(ctx, s.logger).Info("product deleted", zap.String("product_id", id))
	return nil
}

func (s *Service) token(ctx context.Context, sc *session.Context) (string, error) {
	a := sc.Auth
	if !a.IsAdmin() {
		return "", ErrUnauthorized
	}
	if a.Expired(s.now()) {
		s.forget(ctx, sc)
		return "", ErrUnauthorized
	}
	return a.Token, nil
}

// check turns a backend 401 into ErrUnauthorized and drops the stale token.
func (s *Service) check(ctx context.Context, sc *session.Context, err error) error {
	var f *domain.Failure
	if errors.As(err, &f) && f.Status == http.StatusUnauthorized {
		s.forget(ctx, sc)
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return err
}

func (s *Service) forget(ctx context.Context, sc *session.Context) {
	if err := sc.DropToken(ctx); err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("drop admin token", zap.Error(err))
	}
}
