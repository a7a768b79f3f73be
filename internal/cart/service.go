// Package cart implements the storefront cart: the header badge, cart
// mutations, the cart page and checkout.
package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	invalidProductMessage = "Invalid product. Please try again."
	invalidItemMessage    = "Invalid cart item. Please try again."
	itemRemovedMessage    = "Item removed from cart"

	addFallback      = "Failed to add to cart"
	updateFallback   = "Failed to update cart quantity"
	removeFallback   = "Failed to remove item"
	loadFallback     = "Please try again later."
	checkoutFallback = "Failed to place order. Please try again."

	enrichLimit = 4
)

// ErrBusy is returned when the triggering control is still pending.
var ErrBusy = errors.New("operation already in progress")

// ErrEmptyCart rejects a checkout with nothing to order.
var ErrEmptyCart error = domain.Validation("Your cart is empty. Please add items before placing an order.")

// Backend is the part of the REST API the cart uses.
type Backend interface {
	BadgeSource
	Cart(ctx context.Context, sid domain.SessionID) (*domain.Cart, error)
	AddItem(ctx context.Context, sid domain.SessionID, productID string, qty domain.Quantity) error
	UpdateItem(ctx context.Context, sid domain.SessionID, itemID string, qty domain.Quantity) error
	RemoveItem(ctx context.Context, sid domain.SessionID, itemID string) error
	Product(ctx context.Context, id string) (*domain.Product, error)
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error)
}

// Presenter shows cart outcomes to the user.
type Presenter interface {
	ShowCart(v *View)
	// ShowCartError replaces the cart with msg and a retry action.
	ShowCartError(msg string)
	ShowOrder(order domain.Order)
	Notify(msg string)
	Alert(msg string)
}

// UI is everything a browser renders cart operations into.
type UI interface {
	Presenter
	BadgeDisplay
}

type Service struct {
	backend Backend
	badge   *BadgeSynchronizer
	logger  *zap.Logger
}

func NewService(backend Backend, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		backend: backend,
		badge:   NewBadgeSynchronizer(backend, l),
		logger:  l,
	}
}

func (s *Service) Badge() *BadgeSynchronizer {
	return s.badge
}

// Load fetches the cart of sc, renders it into ui and refreshes the badge.
// Failures are shown with a retry action and returned.
func (s *Service) Load(ctx context.Context, sc *session.Context, ui UI) (*View, error) {
	sid := sc.SessionID(ctx)
	cart, err := s.backend.Cart(ctx, sid)
	if err != nil {
		ui.ShowCartError(domain.Describe(err, loadFallback))
		return nil, err
	}

	v := BuildView(cart, s.lookupProducts(ctx, cart), Prefill{Name: sc.Auth.Name, Email: sc.Auth.Email})
	ui.ShowCart(v)
	s.badge.Refresh(ctx, sc, ui)
	return v, nil
}

// lookupProducts fetches details for items that only carry a product id.
// Lookups are best effort; missing entries fall back to placeholders.
func (s *Service) lookupProducts(ctx context.Context, cart *domain.Cart) map[string]domain.Product {
	ids := make(map[string]struct{})
	for _, item := range cart.ValidItems() {
		if !item.Product.Populated && item.Product.ID != "" {
			ids[item.Product.ID] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	log := logger.FromContextOr(ctx, s.logger)
	results := make(chan domain.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichLimit)
	for id := range ids {
		g.Go(func() error {
			p, err := s.backend.Product(gctx, id)
			if err != nil {
				log.Debug("product lookup failed", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			results <- *p
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	products := make(map[string]domain.Product, len(ids))
	for p := range results {
		if p.ID == "" {
			continue
		}
		products[p.ID] = p
	}
	return products
}

// AddItem puts one unit of productID in the cart. name is used in the
// confirmation notice.
func (s *Service) AddItem(ctx context.Context, sc *session.Context, ui UI, productID, name string, a Affordance) error {
	if err := validation.Required(productID, invalidProductMessage); err != nil {
		ui.Alert(domain.Describe(err, ""))
		return err
	}
	return s.mutate(ctx, sc, ui, a, addFallback, func(sid domain.SessionID) error {
		return s.backend.AddItem(ctx, sid, productID, domain.NewQuantity(1))
	}, name+" added to cart!")
}

// SetQuantity sets the quantity of itemID. A quantity below one removes the
// item instead.
func (s *Service) SetQuantity(ctx context.Context, sc *session.Context, ui UI, itemID string, qty int, a Affordance) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, sc, ui, itemID, a)
	}
	if err := validation.Required(itemID, invalidItemMessage); err != nil {
		ui.Alert(domain.Describe(err, ""))
		return err
	}
	return s.mutate(ctx, sc, ui, a, updateFallback, func(sid domain.SessionID) error {
		return s.backend.UpdateItem(ctx, sid, itemID, domain.NewQuantity(qty))
	}, "")
}

// RemoveItem deletes itemID. Removing an item that is already gone is
// reported like any other backend error.
func (s *Service) RemoveItem(ctx context.Context, sc *session.Context, ui UI, itemID string, a Affordance) error {
	if err := validation.Required(itemID, invalidItemMessage); err != nil {
		ui.Alert(domain.Describe(err, ""))
		return err
	}
	return s.mutate(ctx, sc, ui, a, removeFallback, func(sid domain.SessionID) error {
		return s.backend.RemoveItem(ctx, sid, itemID)
	}, itemRemovedMessage)
}

func (s *Service) mutate(ctx context.Context, sc *session.Context, ui UI, a Affordance, fallback string, call func(domain.SessionID) error, notice string) error {
	a = affordanceOrNop(a)
	if !a.Begin() {
		return ErrBusy
	}

	if err := call(sc.SessionID(ctx)); err != nil {
		a.Fail()
		ui.Alert(domain.Describe(err, fallback))
		return err
	}
	a.Succeed()

	if _, err := s.Load(ctx, sc, ui); err != nil {
		logger.FromContextOr(ctx, s.logger).Warn("reload cart after change", zap.Error(err))
		s.badge.Refresh(ctx, sc, ui)
	}
	if notice != "" {
		ui.Notify(notice)
	}
	return nil
}

// Checkout validates the form, confirms the cart still has items and places
// the order.
func (s *Service) Checkout(ctx context.Context, sc *session.Context, ui UI, form validation.CheckoutForm, a Affordance) (*domain.Order, error) {
	if err := validation.Check(&form); err != nil {
		ui.Alert(domain.Describe(err, ""))
		return nil, err
	}

	a = affordanceOrNop(a)
	if !a.Begin() {
		return nil, ErrBusy
	}

	sid := sc.SessionID(ctx)
	cart, err := s.backend.Cart(ctx, sid)
	if err != nil {
		a.Fail()
		ui.Alert(domain.Describe(err, checkoutFallback))
		return nil, err
	}
	if cart.IsEmpty() {
		a.Fail()
		ui.Alert(domain.Describe(ErrEmptyCart, ""))
		return nil, ErrEmptyCart
	}

	resp, err := s.backend.PlaceOrder(ctx, domain.OrderRequest{
		CustomerName:  form.Name,
		CustomerEmail: form.Email,
		SessionID:     sid,
	})
	if err != nil {
		a.Fail()
		ui.Alert(domain.Describe(err, checkoutFallback))
		return nil, err
	}
	a.Succeed()

	ui.ShowOrder(resp.Order)
	s.badge.Refresh(ctx, sc, ui)
	return &resp.Order, nil
}
