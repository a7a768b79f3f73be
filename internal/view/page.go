package view

import (
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/session"
)

// Page collects what cart operations render during one request. It
// implements cart.UI.
type Page struct {
	*cart.Badge

	Cart      *cart.View
	CartError string
	Order     *domain.Order
	Notices   []string
	Alerts    []string
}

func NewPage() *Page {
	return &Page{Badge: cart.NewBadge()}
}

func (p *Page) ShowCart(v *cart.View) {
	p.Cart = v
	p.CartError = ""
}

func (p *Page) ShowCartError(msg string) {
	p.Cart = nil
	p.CartError = msg
}

func (p *Page) ShowOrder(order domain.Order) {
	p.Order = &order
}

func (p *Page) Notify(msg string) {
	p.Notices = append(p.Notices, msg)
}

func (p *Page) Alert(msg string) {
	p.Alerts = append(p.Alerts, msg)
}

// Header is the top bar shared by every page.
type Header struct {
	Badge cart.BadgeState
	Auth  session.Auth
}

type ProductsPage struct {
	Header
	Cards   []catalog.Card
	Message string
}

type CartPage struct {
	Header
	Cart      *cart.View
	CartError string
	Order     *domain.Order
	Notices   []string
	Alerts    []string
}

// CartPageOf renders what p collected under h. The header badge is taken from
// p, which the cart operations kept current.
func CartPageOf(h Header, p *Page) CartPage {
	h.Badge = p.State()
	return CartPage{
		Header:    h,
		Cart:      p.Cart,
		CartError: p.CartError,
		Order:     p.Order,
		Notices:   p.Notices,
		Alerts:    p.Alerts,
	}
}

type AdminPage struct {
	Header
	Products []domain.Product
	Message  string
}
