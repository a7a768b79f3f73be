package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/backend/backendtest"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCLI_ShoppingFlow(t *testing.T) {
	srv := backendtest.New(t)
	srv.AddProduct(domain.Product{ID: "p1", Name: "Mug", Price: domain.ParseAmount("1500"), Stock: 3})
	srv.AddUser("Ana", "ana@example.com", "secret2", domain.RoleUser)
	t.Setenv("LOG_LEVEL", "error")

	common := []string{"--api-url", srv.URL, "--state", filepath.Join(t.TempDir(), "state.yaml")}
	run := func(args ...string) (string, string, error) {
		return execute(t, append(common, args...)...)
	}

	out, _, err := run("products")
	require.NoError(t, err)
	assert.Contains(t, out, "₱1,500.00")
	assert.Contains(t, out, "Add to Cart")

	out, _, err = run("cart", "add", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, "Mug added to cart!")
	assert.Contains(t, out, "✓ Added!")

	out, _, err = run("cart", "badge")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart")
	assert.Contains(t, out, "1")

	out, _, err = run("cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "₱1,650.00")

	_, _, err = run("login", "--email", "ana@example.com", "--password", "secret2")
	require.NoError(t, err)

	out, _, err = run("checkout")
	require.NoError(t, err)
	assert.Contains(t, out, "ORD-0001")
	require.Len(t, srv.Orders(), 1)
	assert.Equal(t, "Ana", srv.Orders()[0].CustomerName)
	assert.Equal(t, "ana@example.com", srv.Orders()[0].CustomerEmail)

	out, _, err = run("cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, cart.EmptyTitle)
}

func TestCLI_AdminRequiresSignIn(t *testing.T) {
	srv := backendtest.New(t)
	t.Setenv("LOG_LEVEL", "error")

	_, errOut, err := execute(t, "--api-url", srv.URL, "--state", filepath.Join(t.TempDir(), "state.yaml"), "admin", "list")

	assert.ErrorIs(t, err, errShown)
	assert.Contains(t, errOut, "Please sign in as an administrator")
	assert.Equal(t, 0, srv.TotalCalls())
}

func TestTerminal_ShowCart(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(&out, &out)

	term.ShowCart(&cart.View{
		Lines:     []cart.Line{{ItemID: "i1", Name: "Mug", Price: domain.ParseAmount("150"), Quantity: 2, Total: domain.ParseAmount("300")}},
		ItemCount: 2,
		Subtotal:  domain.ParseAmount("300"),
		Tax:       domain.ParseAmount("30"),
		Total:     domain.ParseAmount("330"),
	})

	assert.Contains(t, out.String(), "Cart (2 items)")
	assert.Contains(t, out.String(), "₱330.00")
	assert.Contains(t, out.String(), "Tax (10%)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Mug", truncate("Mug", 5))
	assert.Equal(t, "Coff…", truncate("Coffee Mug", 5))
}
