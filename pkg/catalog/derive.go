package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// PageSize is the number of rows shown per page.
type PageSize int

// Allowed page sizes.
const (
	PageSize25  PageSize = 25
	PageSize50  PageSize = 50
	PageSize100 PageSize = 100

	DefaultPageSize = PageSize25
)

// PageSizes lists the allowed sizes in display order.
var PageSizes = []PageSize{PageSize25, PageSize50, PageSize100}

// Valid reports whether s is one of the allowed page sizes.
func (s PageSize) Valid() bool {
	switch s {
	case PageSize25, PageSize50, PageSize100:
		return true
	default:
		return false
	}
}

// Next returns the following allowed size, wrapping around after the largest.
func (s PageSize) Next() PageSize {
	for i, size := range PageSizes {
		if size == s {
			return PageSizes[(i+1)%len(PageSizes)]
		}
	}
	return DefaultPageSize
}

// ParsePageSize parses and validates a page size.
func ParsePageSize(raw string) (PageSize, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPageSize, raw)
	}
	size := PageSize(n)
	if !size.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	return size, nil
}

// NormalizeTerm trims and lowercases a search term for matching.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

// Filter returns the products whose title, brand or category contain term,
// case-insensitively. Order is preserved. An empty term matches everything.
func Filter(products []Product, term string) []Product {
	needle := NormalizeTerm(term)
	if needle == "" {
		return products
	}

	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if p.matches(needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// TotalPages returns ceil(n/size), never less than 1.
func TotalPages(n int, size PageSize) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	pages := (n + int(size) - 1) / int(size)
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage bounds page to [1, totalPages].
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	switch {
	case page < 1:
		return 1
	case page > totalPages:
		return totalPages
	default:
		return page
	}
}

// Paginate returns the slice of products shown on page, starting at
// offset (page-1)*size. The page number is clamped first.
func Paginate(products []Product, page int, size PageSize) []Product {
	if size <= 0 {
		size = DefaultPageSize
	}
	page = ClampPage(page, TotalPages(len(products), size))

	start := (page - 1) * int(size)
	if start >= len(products) {
		return []Product{}
	}
	end := min(start+int(size), len(products))
	return products[start:end]
}
