package cart

import (
	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	// TaxPercent is the display estimate added on top of the subtotal.
	TaxPercent = 10

	EmptyTitle = "Your cart is empty"
	EmptyHint  = "Add some products to get started!"

	itemPlaceholderImage = "https://via.placeholder.com/100"
	fallbackProductName  = "Product"
)

// Line is one displayed cart row.
type Line struct {
	ItemID    string
	ProductID string
	Name      string
	Image     string
	Price     domain.Amount
	Quantity  int
	Total     domain.Amount
}

// CanDecrease reports whether the "-" control is enabled. Going below one is
// done with Remove.
func (l Line) CanDecrease() bool {
	return l.Quantity > 1
}

// Prefill is what the checkout form starts with.
type Prefill struct {
	Name  string
	Email string
}

// View is the cart page model. It holds display estimates only; the backend
// computes the amount actually charged.
type View struct {
	Lines     []Line
	ItemCount int
	Subtotal  domain.Amount
	Tax       domain.Amount
	Total     domain.Amount
	Prefill   Prefill
}

func (v *View) Empty() bool {
	return len(v.Lines) == 0
}

// ShowCheckout reports whether the checkout form is offered.
func (v *View) ShowCheckout() bool {
	return !v.Empty()
}

// BuildView turns a cart snapshot into a page model. products holds details
// for items whose product reference was not populated.
func BuildView(cart *domain.Cart, products map[string]domain.Product, prefill Prefill) *View {
	v := &View{Prefill: prefill}
	var estimate domain.Amount
	for _, item := range cart.ValidItems() {
		line := Line{
			ItemID:    item.ID,
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Image:     item.Product.Image,
			Price:     item.Price,
			Quantity:  item.Quantity.Int(),
		}
		if p, ok := products[item.Product.ID]; ok && !item.Product.Populated {
			line.Name, line.Image = p.Name, p.Image
		}
		if line.Name == "" {
			line.Name = fallbackProductName
		}
		if line.Image == "" {
			line.Image = itemPlaceholderImage
		}
		line.Total = line.Price.Times(line.Quantity)

		estimate = estimate.Add(line.Total)
		v.ItemCount += line.Quantity
		v.Lines = append(v.Lines, line)
	}
	if v.Empty() {
		return v
	}

	v.Subtotal = estimate
	if !cart.Total.IsZero() {
		v.Subtotal = cart.Total
	}
	v.Tax = v.Subtotal.Percent(TaxPercent)
	v.Total = v.Subtotal.Add(v.Tax)
	return v
}
