package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/remote"
)

type addItemBody struct {
	ProductID string          `json:"productId"`
	Quantity  domain.Quantity `json:"quantity"`
}

type quantityBody struct {
	Quantity domain.Quantity `json:"quantity"`
}

func cartPath(sid domain.SessionID) string {
	return "/cart/" + segment(sid.String())
}

func itemPath(sid domain.SessionID, itemID string) string {
	return cartPath(sid) + "/items/" + segment(itemID)
}

// Cart loads the cart for display, retrying transient failures.
func (c *Client) Cart(ctx context.Context, sid domain.SessionID) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.callJSON(ctx, http.MethodGet, cartPath(sid), nil, c.policies.CartLoad, remote.Surfaced, "", &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// BadgeCart loads the cart for the header badge: short budget, no retries,
// failures only logged.
func (c *Client) BadgeCart(ctx context.Context, sid domain.SessionID) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.callJSON(ctx, http.MethodGet, cartPath(sid), nil, c.policies.Badge, remote.Silent, "", &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem adds qty of productID. The backend creates the cart on first add.
func (c *Client) AddItem(ctx context.Context, sid domain.SessionID, productID string, qty domain.Quantity) error {
	body := addItemBody{ProductID: productID, Quantity: qty}
	return c.callJSON(ctx, http.MethodPost, cartPath(sid)+"/items", body, c.policies.Mutation, remote.Surfaced, "", nil)
}

func (c *Client) UpdateItem(ctx context.Context, sid domain.SessionID, itemID string, qty domain.Quantity) error {
	return c.callJSON(ctx, http.MethodPut, itemPath(sid, itemID), quantityBody{Quantity: qty}, c.policies.Mutation, remote.Surfaced, "", nil)
}

func (c *Client) RemoveItem(ctx context.Context, sid domain.SessionID, itemID string) error {
	return c.callJSON(ctx, http.MethodDelete, itemPath(sid, itemID), nil, c.policies.Mutation, remote.Surfaced, "", nil)
}

func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderResponse, error) {
	var resp domain.OrderResponse
	if err := c.callJSON(ctx, http.MethodPost, "/orders", order, c.policies.Mutation, remote.Surfaced, "", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
