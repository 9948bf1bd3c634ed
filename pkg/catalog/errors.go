package catalog

import "errors"

var (
	// ErrLoadFailed wraps any failure of the underlying collection fetch.
	ErrLoadFailed = errors.New("failed to load products")

	// ErrInvalidPageSize is returned for page sizes outside 25, 50 and 100.
	ErrInvalidPageSize = errors.New("invalid page size")

	// ErrClosed is returned by Load after Close.
	ErrClosed = errors.New("catalog state closed")

	// ErrStaleLoad is returned by a Load whose result was discarded because the
	// state was closed or a newer load started while it was in flight.
	ErrStaleLoad = errors.New("load result discarded")
)
