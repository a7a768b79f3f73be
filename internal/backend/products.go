package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/remote"
)

// Image is an uploaded product picture.
type Image struct {
	Filename string
	Data     []byte
}

// ProductUpload is a create or update request. With an Image the body is sent
// as multipart form data and Input.Image is ignored.
type ProductUpload struct {
	Input domain.ProductInput
	Image *Image
}

func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	return c.products(ctx, "")
}

// AdminProducts lists products with the admin's bearer token.
func (c *Client) AdminProducts(ctx context.Context, token string) ([]domain.Product, error) {
	return c.products(ctx, token)
}

func (c *Client) products(ctx context.Context, token string) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.callJSON(ctx, http.MethodGet, "/products", nil, c.policies.Default, remote.Surfaced, token, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches one product. Lookups are silent; callers fall back to
// placeholder data.
func (c *Client) Product(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := c.callJSON(ctx, http.MethodGet, "/products/"+segment(id), nil, c.policies.Default, remote.Silent, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveProduct creates the product when id is empty and updates it otherwise.
func (c *Client) SaveProduct(ctx context.Context, token, id string, up ProductUpload) error {
	method, path := http.MethodPost, "/products"
	if id != "" {
		method, path = http.MethodPut, "/products/"+segment(id)
	}

	if up.Image == nil {
		return c.callJSON(ctx, method, path, up.Input, c.policies.Mutation, remote.Surfaced, token, nil)
	}

	body, contentType, err := multipartBody(up)
	if err != nil {
		return err
	}
	req := remote.Request{
		Method:      method,
		Path:        path,
		Body:        body,
		ContentType: contentType,
		Token:       token,
		Mode:        remote.Surfaced,
	}
	return c.call(ctx, req, c.policies.Mutation, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.callJSON(ctx, http.MethodDelete, "/products/"+segment(id), nil, c.policies.Mutation, remote.Surfaced, token, nil)
}

func multipartBody(up ProductUpload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"name", up.Input.Name},
		{"description", up.Input.Description},
		{"price", strconv.FormatFloat(up.Input.Price, 'f', -1, 64)},
		{"category", up.Input.Category},
		{"stock", strconv.Itoa(up.Input.Stock)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	part, err := w.CreateFormFile("image", up.Image.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := part.Write(up.Image.Data); err != nil {
		return nil, "", fmt.Errorf("write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
