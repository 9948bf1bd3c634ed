// Package pagination assembles a collection from a source that serves it in
// bounded pages addressed by offset and limit.
//
// The collector issues requests one after another, starting at offset 0.
// Each request asks for min(PerRequestCap, remaining) items, so the desired
// total is never overshot. Collection stops when:
//   - the desired total has been reached
//   - a page comes back shorter than requested, or empty
//   - the source reports a total and the offset has reached it
//   - the request ceiling (MaxRequests) is hit
//
// Example usage:
//
//	collector := pagination.NewCollector[catalog.Product](apiClient, pagination.DefaultConfig())
//	products, err := collector.FetchCollection(ctx, 500)
//
// Any failed request fails the whole collection with a *FetchError; partial
// results are discarded.
package pagination
