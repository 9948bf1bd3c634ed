// Package catalog holds the in-memory product catalog, its search and
// pagination state, and the pure functions that derive the visible page.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a single upstream catalog record. It is never mutated after fetch.
type Product struct {
	ID       int             `json:"id"`
	Title    string          `json:"title"`
	Brand    string          `json:"brand"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
}

// DisplayPrice formats the price the way the product table shows it: the
// upstream number as-is, so 10 renders as "$10" and 9.5 as "$9.5".
func (p Product) DisplayPrice() string {
	return "$" + p.Price.String()
}

// matches reports whether needle (already trimmed and lowercased) is a
// substring of the title, brand or category.
func (p Product) matches(needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Brand), needle) ||
		strings.Contains(strings.ToLower(p.Category), needle)
}
