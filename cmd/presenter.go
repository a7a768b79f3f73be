package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/view"
	"go.uber.org/zap"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87")).Bold(true)
	priceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C"))
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#FF5F87")).Padding(0, 1)
	summaryStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// terminal renders cart operations to the command line.
type terminal struct {
	*cart.Badge
	out, errOut io.Writer
	showBadge   bool
}

func newTerminal(out, errOut io.Writer) *terminal {
	return &terminal{Badge: cart.NewBadge(), out: out, errOut: errOut}
}

// Show records the badge and prints it when the terminal is watching it.
func (t *terminal) Show(count int, pulse time.Duration) {
	t.Badge.Show(count, pulse)
	if t.showBadge {
		t.printBadge()
	}
}

func (t *terminal) Hide() {
	t.Badge.Hide()
	if t.showBadge {
		t.printBadge()
	}
}

func (t *terminal) printBadge() {
	s := t.State()
	if !s.Visible {
		fmt.Fprintln(t.out, mutedStyle.Render("Cart is empty"))
		return
	}
	fmt.Fprintln(t.out, "Cart "+badgeStyle.Render(s.Text()))
}

func (t *terminal) ShowCart(v *cart.View) {
	if v.Empty() {
		fmt.Fprintln(t.out, titleStyle.Render(cart.EmptyTitle))
		fmt.Fprintln(t.out, mutedStyle.Render(cart.EmptyHint))
		return
	}

	fmt.Fprintln(t.out, titleStyle.Render(fmt.Sprintf("Cart (%d items)", v.ItemCount)))
	for _, l := range v.Lines {
		fmt.Fprintf(t.out, "  %-12s %-28s %3d x %12s = %s\n",
			l.ItemID, truncate(l.Name, 28), l.Quantity, view.Money(l.Price), priceStyle.Render(view.Money(l.Total)))
	}

	summary := strings.Join([]string{
		fmt.Sprintf("Subtotal   %s", view.Money(v.Subtotal)),
		fmt.Sprintf("Tax (%d%%)  %s", cart.TaxPercent, view.Money(v.Tax)),
		fmt.Sprintf("Total      %s", priceStyle.Render(view.Money(v.Total))),
	}, "\n")
	fmt.Fprintln(t.out, summaryStyle.Render(summary))
}

func (t *terminal) ShowCartError(msg string) {
	fmt.Fprintln(t.errOut, errorStyle.Render(msg))
	fmt.Fprintln(t.errOut, mutedStyle.Render("Retry with: storefront cart show"))
}

func (t *terminal) ShowOrder(order domain.Order) {
	fmt.Fprintln(t.out, noticeStyle.Render("Order placed!"))
	fmt.Fprintf(t.out, "Order number: %s\nTotal: %s\n", titleStyle.Render(order.OrderNumber), priceStyle.Render(view.Money(order.Total)))
}

func (t *terminal) Notify(msg string) {
	fmt.Fprintln(t.out, noticeStyle.Render(msg))
}

func (t *terminal) Alert(msg string) {
	fmt.Fprintln(t.errOut, errorStyle.Render(msg))
}

func (t *terminal) printProducts(cards []catalog.Card) {
	if len(cards) == 0 {
		fmt.Fprintln(t.out, mutedStyle.Render(catalog.EmptyMessage))
		return
	}
	for _, c := range cards {
		label := c.ButtonLabel()
		if !c.InStock {
			label = mutedStyle.Render(label)
		}
		fmt.Fprintf(t.out, "%-26s %-30s %14s  %s\n", c.ID, truncate(c.Name, 30), priceStyle.Render(view.Money(c.Price)), label)
	}
}

func (t *terminal) printAdminProducts(products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(t.out, mutedStyle.Render("No products yet."))
		return
	}
	fmt.Fprintln(t.out, titleStyle.Render(fmt.Sprintf("%-26s %-30s %-14s %12s %6s", "ID", "NAME", "CATEGORY", "PRICE", "STOCK")))
	for _, p := range products {
		fmt.Fprintf(t.out, "%-26s %-30s %-14s %12s %6d\n", p.ID, truncate(p.Name, 30), truncate(p.Category, 14), view.Money(p.Price), p.Stock)
	}
}

// buttonLogger reports button transitions at debug level.
func buttonLogger(name string) func(cart.ButtonState, string) {
	return func(s cart.ButtonState, label string) {
		log.Debug("button state", zap.String("button", name), zap.String("state", s.String()), zap.String("label", label))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
