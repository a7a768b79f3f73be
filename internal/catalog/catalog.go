// Package catalog builds the storefront product grid.
package catalog

import (
	"context"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	EmptyMessage = "No products available. Please seed the database."
	ErrorMessage = "Error loading products. Please check if the backend server is running."

	outOfStockLabel = "Out of Stock"
	addLabel        = "Add to Cart"
)

// ProductSource lists and fetches products.
type ProductSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id string) (*domain.Product, error)
}

// Card is one product tile.
type Card struct {
	ID          string
	Name        string
	Description string
	Price       domain.Amount
	Image       string
	InStock     bool
}

func (c Card) ButtonLabel() string {
	if !c.InStock {
		return outOfStockLabel
	}
	return addLabel
}

type Catalog struct {
	products ProductSource
}

func New(products ProductSource) *Catalog {
	return &Catalog{products: products}
}

// List returns the grid in backend order.
func (c *Catalog) List(ctx context.Context) ([]Card, error) {
	products, err := c.products.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	cards := make([]Card, len(products))
	for i, p := range products {
		cards[i] = toCard(p)
	}
	return cards, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (Card, error) {
	p, err := c.products.Product(ctx, id)
	if err != nil {
		return Card{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return toCard(*p), nil
}

func toCard(p domain.Product) Card {
	image := p.Image
	if image == "" {
		image = domain.PlaceholderImage
	}
	return Card{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Image:       image,
		InStock:     p.InStock(),
	}
}
