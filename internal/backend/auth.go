package backend

import (
	"context"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/remote"
)

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.LoginResult, error) {
	var res domain.LoginResult
	if err := c.callJSON(ctx, http.MethodPost, "/auth/login", creds, c.policies.Mutation, remote.Surfaced, "", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) error {
	return c.callJSON(ctx, http.MethodPost, "/auth/register", reg, c.policies.Mutation, remote.Surfaced, "", nil)
}
