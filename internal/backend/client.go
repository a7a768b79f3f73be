// Package backend is a typed client for the storefront REST API.
package backend

import (
	"context"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/remote"
)

// Doer runs one logical remote call. *remote.Caller implements it.
type Doer interface {
	Do(ctx context.Context, req remote.Request, p remote.Policy) (*remote.Response, error)
}

type Client struct {
	doer     Doer
	policies config.Policies
}

func New(doer Doer, policies config.Policies) *Client {
	return &Client{doer: doer, policies: policies}
}

func (c *Client) call(ctx context.Context, req remote.Request, p remote.Policy, out any) error {
	resp, err := c.doer.Do(ctx, req, p)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(out)
}

func (c *Client) callJSON(ctx context.Context, method, path string, in any, p remote.Policy, mode remote.Mode, token string, out any) error {
	req, err := remote.JSON(method, path, in)
	if err != nil {
		return err
	}
	req.Mode = mode
	req.Token = token
	return c.call(ctx, req, p, out)
}

func segment(s string) string {
	return url.PathEscape(s)
}
