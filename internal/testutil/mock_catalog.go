// Package testutil provides a mock collection source for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/Sternrassler/catalog-viewer/pkg/catalog"
	"github.com/shopspring/decimal"
)

// MockResponse overrides the response for one request number.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// RecordedRequest is what the mock saw for one request.
type RecordedRequest struct {
	Limit     int
	Skip      int
	Select    string
	UserAgent string
}

// MockCatalog is a configurable DummyJSON-style /products server.
type MockCatalog struct {
	server *httptest.Server

	mu        sync.RWMutex
	products  []catalog.Product
	path      string
	overrides map[int]MockResponse // keyed by 1-based request number
	headers   map[string]string
	hideTotal bool
	requests  []RecordedRequest
}

// NewMockCatalog starts a mock serving products at /products.
func NewMockCatalog(products []catalog.Product) *MockCatalog {
	mock := &MockCatalog{
		products:  products,
		path:      "/products",
		overrides: make(map[int]MockResponse),
		headers:   make(map[string]string),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the mock server base URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears recorded requests.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// SetProducts replaces the served collection.
func (m *MockCatalog) SetProducts(products []catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
}

// SetResponse overrides the response of the n-th request (1-based).
func (m *MockCatalog) SetResponse(n int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[n] = resp
}

// SetHeader adds a header to every default response.
func (m *MockCatalog) SetHeader(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[key] = value
}

// HideTotal makes responses report total 0, like a source that does not know its size.
func (m *MockCatalog) HideTotal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hideTotal = true
}

// Requests returns a copy of the recorded requests.
func (m *MockCatalog) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != m.path {
		http.NotFound(w, r)
		return
	}

	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	skip, _ := strconv.Atoi(query.Get("skip"))

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Limit:     limit,
		Skip:      skip,
		Select:    query.Get("select"),
		UserAgent: r.Header.Get("User-Agent"),
	})
	n := len(m.requests)
	override, hasOverride := m.overrides[n]
	products := m.products
	headers := make(map[string]string, len(m.headers))
	for k, v := range m.headers {
		headers[k] = v
	}
	hideTotal := m.hideTotal
	m.mu.Unlock()

	if hasOverride {
		for key, value := range override.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(override.StatusCode)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	start := min(skip, len(products))
	end := len(products)
	// limit=0 means "everything" upstream
	if limit > 0 {
		end = min(start+limit, len(products))
	}

	total := len(products)
	if hideTotal {
		total = 0
	}

	for key, value := range headers {
		w.Header().Set(key, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"products": products[start:end],
		"total":    total,
		"skip":     skip,
		"limit":    limit,
	})
}

// GenerateProducts builds n products with ids 1..n. Every third product is
// "Acme" brand and every fifth is in "footwear".
func GenerateProducts(n int) []catalog.Product {
	products := make([]catalog.Product, n)
	for i := range products {
		id := i + 1
		brand := "Generic"
		if id%3 == 0 {
			brand = "Acme"
		}
		category := "misc"
		if id%5 == 0 {
			category = "footwear"
		}
		products[i] = catalog.Product{
			ID:       id,
			Title:    fmt.Sprintf("Product %d", id),
			Brand:    brand,
			Category: category,
			Price:    decimal.NewFromFloat(float64(id) + 0.99),
		}
	}
	return products
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"message": "Internal server error"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"message": "Not found"}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewTooManyRequestsResponse creates a 429 response with an exhausted budget.
func NewTooManyRequestsResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"message": "Too many requests"}`,
		Headers: map[string]string{
			"Content-Type":          "application/json; charset=utf-8",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "1",
		},
	}
}

// NewMalformedResponse creates a 200 response whose body is not valid JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"products": [`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewMissingProductsResponse creates a 200 response without a products field.
func NewMissingProductsResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"total": 0}`,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}
