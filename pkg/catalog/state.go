package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLoadTarget is the number of products requested by Load.
const DefaultLoadTarget = 500

// Fetcher retrieves up to totalDesired products from the collection source.
// pagination.Collector[Product] satisfies it.
type Fetcher interface {
	FetchCollection(ctx context.Context, totalDesired int) ([]Product, error)
}

// Options configures a State.
type Options struct {
	// LoadTarget is the number of products Load asks for (default 500).
	LoadTarget int

	// PageSize is the initial page size (default 25).
	PageSize PageSize

	// Logger overrides the component logger.
	Logger *zerolog.Logger
}

// View is a read-only snapshot of everything a renderer needs.
type View struct {
	Products    []Product
	TotalPages  int
	PageNumber  int
	PageSize    PageSize
	SearchTerm  string
	Loading     bool
	Error       string
	Matches     int
	CatalogSize int
}

// State is the single owner of the loaded catalog, the search term and the
// page position. Derived views are recomputed on every read.
//
// State is safe for use from the goroutine running Load and the goroutine
// handling user input at the same time.
type State struct {
	fetcher    Fetcher
	loadTarget int
	logger     zerolog.Logger

	mu         sync.Mutex
	catalog    []Product
	searchTerm string
	pageNumber int
	pageSize   PageSize
	loading    bool
	err        error
	generation uint64
	closed     bool
}

// NewState creates an empty state bound to fetcher.
func NewState(fetcher Fetcher, opts Options) *State {
	if fetcher == nil {
		panic("catalog fetcher cannot be nil")
	}
	if opts.LoadTarget <= 0 {
		opts.LoadTarget = DefaultLoadTarget
	}
	if !opts.PageSize.Valid() {
		opts.PageSize = DefaultPageSize
	}

	logger := log.With().Str("component", "catalog-state").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &State{
		fetcher:    fetcher,
		loadTarget: opts.LoadTarget,
		logger:     logger,
		pageNumber: 1,
		pageSize:   opts.PageSize,
	}
}

// Load fetches the catalog and replaces the current one on success. On
// failure the previous catalog is kept and the error is exposed through
// View().Error. The loading flag is always cleared when Load returns, unless
// a newer Load has taken over.
func (s *State) Load(ctx context.Context) error {
	gen, err := s.beginLoad()
	if err != nil {
		return err
	}
	defer s.endLoad(gen)

	start := time.Now()
	products, fetchErr := s.fetcher.FetchCollection(ctx, s.loadTarget)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.generation {
		s.logger.Debug().
			Uint64("generation", gen).
			Uint64("current_generation", s.generation).
			Bool("closed", s.closed).
			Msg("Discarding load result")
		return ErrStaleLoad
	}

	if fetchErr != nil {
		s.err = fmt.Errorf("%w: %w", ErrLoadFailed, fetchErr)
		s.logger.Error().
			Err(fetchErr).
			Uint64("generation", gen).
			Int("catalog_size", len(s.catalog)).
			Msg("Catalog load failed")
		return s.err
	}

	s.catalog = products
	s.err = nil
	s.pageNumber = 1

	s.logger.Info().
		Uint64("generation", gen).
		Int("products", len(products)).
		Dur("duration", time.Since(start)).
		Msg("Catalog loaded")

	return nil
}

func (s *State) beginLoad() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	s.generation++
	s.loading = true
	s.err = nil
	return s.generation, nil
}

func (s *State) endLoad(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen == s.generation {
		s.loading = false
	}
}

// Close tears the state down. Any in-flight Load result is discarded.
func (s *State) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.generation++
	s.loading = false
	s.catalog = nil
}

// SetSearchTerm replaces the search term and returns to page 1.
func (s *State) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.searchTerm = term
	s.pageNumber = 1
}

// SetPageSize changes the page size and clamps the current page into range.
func (s *State) SetPageSize(size PageSize) error {
	if !size.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pageSize = size
	s.pageNumber = ClampPage(s.pageNumber, s.totalPagesLocked())
	return nil
}

// NextPage advances one page. It returns false at the last page.
func (s *State) NextPage() bool {
	return s.move(func(page, _ int) int { return page + 1 })
}

// PrevPage goes back one page. It returns false at page 1.
func (s *State) PrevPage() bool {
	return s.move(func(page, _ int) int { return page - 1 })
}

// FirstPage jumps to page 1.
func (s *State) FirstPage() bool {
	return s.move(func(_, _ int) int { return 1 })
}

// LastPage jumps to the last page.
func (s *State) LastPage() bool {
	return s.move(func(_, total int) int { return total })
}

// GoToPage jumps to page n, clamped into range.
func (s *State) GoToPage(n int) bool {
	return s.move(func(_, _ int) int { return n })
}

func (s *State) move(next func(page, total int) int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := s.totalPagesLocked()
	target := ClampPage(next(s.pageNumber, total), total)
	if target == s.pageNumber {
		return false
	}
	s.pageNumber = target
	return true
}

func (s *State) totalPagesLocked() int {
	return TotalPages(len(Filter(s.catalog, s.searchTerm)), s.pageSize)
}

// View derives the filtered and paginated output from the current state.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := Filter(s.catalog, s.searchTerm)
	total := TotalPages(len(filtered), s.pageSize)
	page := ClampPage(s.pageNumber, total)

	v := View{
		Products:    slices.Clone(Paginate(filtered, page, s.pageSize)),
		TotalPages:  total,
		PageNumber:  page,
		PageSize:    s.pageSize,
		SearchTerm:  s.searchTerm,
		Loading:     s.loading,
		Matches:     len(filtered),
		CatalogSize: len(s.catalog),
	}
	if s.err != nil {
		v.Error = s.err.Error()
	}
	return v
}

// Err returns the error from the last Load, if any.
func (s *State) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
