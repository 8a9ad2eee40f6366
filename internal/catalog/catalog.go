// Package catalog holds the immutable product set the storefront sells.
// Catalog changes are a deployment-time concern; nothing mutates it at
// runtime.
package catalog

import (
	"github.com/shopspring/decimal"
)

// Product describes one sellable film product.
type Product struct {
	ID          string
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Colors      []string
}

// HasColor reports whether the product is offered in the given color.
func (p Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}

// Catalog resolves product identifiers to their attributes.
type Catalog struct {
	byID  map[string]Product
	order []string
}

// New seeds the catalog with the storefront's product line.
func New() *Catalog {
	products := []Product{
		{
			ID:          "premium-ppf",
			Name:        "Premium PPF",
			Description: "Self-healing topcoat, crystal clear finish",
			UnitPrice:   decimal.RequireFromString("899.99"),
			Colors:      []string{"blue", "red", "yellow"},
		},
		{
			ID:          "matte-ppf",
			Name:        "Matte PPF",
			Description: "Satin finish with full protection",
			UnitPrice:   decimal.RequireFromString("849.99"),
			Colors:      []string{"blue", "red", "yellow"},
		},
		{
			ID:          "color-ppf",
			Name:        "Color PPF",
			Description: "Protection meets customization",
			UnitPrice:   decimal.RequireFromString("949.99"),
			Colors:      []string{"blue", "red", "yellow"},
		},
	}

	c := &Catalog{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		c.byID[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c
}

// Lookup returns the product for the given identifier.
func (c *Catalog) Lookup(id string) (Product, bool) {
	p, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return p.copy(), true
}

// List returns every product in display order.
func (c *Catalog) List() []Product {
	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id].copy())
	}
	return out
}

func (p Product) copy() Product {
	colors := make([]string, len(p.Colors))
	copy(colors, p.Colors)
	p.Colors = colors
	return p
}
