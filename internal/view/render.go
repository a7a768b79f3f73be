// Package view renders storefront pages from the models produced by the
// catalog, cart and admin packages.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/fjod/go_cart/storefront/internal/cart"
)

const (
	PageProducts = "products"
	PageCart     = "cart"
	PageAdmin    = "admin"
)

//go:embed templates/*.html
var templates embed.FS

var funcs = template.FuncMap{
	"money":      Money,
	"taxPercent": func() int { return cart.TaxPercent },
	"emptyTitle": func() string { return cart.EmptyTitle },
	"emptyHint":  func() string { return cart.EmptyHint },
}

type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageProducts, PageCart, PageAdmin} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templates, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page filled with data to w.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
