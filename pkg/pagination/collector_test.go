package pagination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeSource serves [0, size) as a collection of ints.
type fakeSource struct {
	size       int
	reportSize bool
	shortEvery bool // always return one less than asked
	failAt     int  // 1-based request number that fails, 0 for never
	overfill   int  // extra items appended to every page
	requests   []PageRequest
}

func (s *fakeSource) FetchPage(_ context.Context, req PageRequest) (Page[int], error) {
	s.requests = append(s.requests, req)
	if s.failAt > 0 && len(s.requests) == s.failAt {
		return Page[int]{}, errors.New("upstream 500")
	}

	end := min(req.Offset+req.Limit, s.size)
	if s.shortEvery && end > req.Offset {
		end--
	}
	items := []int{}
	for i := req.Offset; i < end; i++ {
		items = append(items, i)
	}
	for i := 0; i < s.overfill; i++ {
		items = append(items, -1)
	}

	page := Page[int]{Items: items}
	if s.reportSize {
		page.Total = s.size
	}
	return page, nil
}

func TestNewCollector_Defaults(t *testing.T) {
	c := NewCollector[int](&fakeSource{}, Config{PerRequestCap: -1, MaxRequests: -5})
	if c.config.PerRequestCap != 100 {
		t.Errorf("PerRequestCap = %d, want 100", c.config.PerRequestCap)
	}
	if c.config.MaxRequests != 0 {
		t.Errorf("MaxRequests = %d, want 0", c.config.MaxRequests)
	}

	if DefaultConfig().PerRequestCap != 100 {
		t.Errorf("DefaultConfig().PerRequestCap = %d, want 100", DefaultConfig().PerRequestCap)
	}
}

func TestFetchCollection(t *testing.T) {
	tests := []struct {
		name         string
		source       *fakeSource
		config       Config
		totalDesired int
		wantItems    int
		wantRequests []PageRequest
	}{
		{
			name:         "full pages reach desired total",
			source:       &fakeSource{size: 1000},
			config:       DefaultConfig(),
			totalDesired: 500,
			wantItems:    500,
			wantRequests: []PageRequest{
				{0, 100}, {100, 100}, {200, 100}, {300, 100}, {400, 100},
			},
		},
		{
			name:         "last request sized to remainder",
			source:       &fakeSource{size: 1000},
			config:       DefaultConfig(),
			totalDesired: 250,
			wantItems:    250,
			wantRequests: []PageRequest{{0, 100}, {100, 100}, {200, 50}},
		},
		{
			name:         "short page ends a small source",
			source:       &fakeSource{size: 194},
			config:       DefaultConfig(),
			totalDesired: 500,
			wantItems:    194,
			wantRequests: []PageRequest{{0, 100}, {100, 100}},
		},
		{
			name:         "empty page ends an exactly divisible source",
			source:       &fakeSource{size: 200},
			config:       DefaultConfig(),
			totalDesired: 500,
			wantItems:    200,
			wantRequests: []PageRequest{{0, 100}, {100, 100}, {200, 100}},
		},
		{
			name:         "reported total avoids the trailing empty request",
			source:       &fakeSource{size: 200, reportSize: true},
			config:       DefaultConfig(),
			totalDesired: 500,
			wantItems:    200,
			wantRequests: []PageRequest{{0, 100}, {100, 100}},
		},
		{
			name:         "empty source",
			source:       &fakeSource{size: 0},
			config:       DefaultConfig(),
			totalDesired: 10,
			wantItems:    0,
			wantRequests: []PageRequest{{0, 10}},
		},
		{
			name:         "source always short stops after first request",
			source:       &fakeSource{size: 1000, shortEvery: true},
			config:       DefaultConfig(),
			totalDesired: 500,
			wantItems:    99,
			wantRequests: []PageRequest{{0, 100}},
		},
		{
			name:         "request ceiling bounds the loop",
			source:       &fakeSource{size: 1000},
			config:       Config{PerRequestCap: 10, MaxRequests: 3},
			totalDesired: 100,
			wantItems:    30,
			wantRequests: []PageRequest{{0, 10}, {10, 10}, {20, 10}},
		},
		{
			name:         "huge desired total against a tiny source",
			source:       &fakeSource{size: 3},
			config:       DefaultConfig(),
			totalDesired: 1 << 50,
			wantItems:    3,
			wantRequests: []PageRequest{{0, 100}},
		},
		{
			name:         "huge desired total with a large request ceiling",
			source:       &fakeSource{size: 3, reportSize: true},
			config:       Config{PerRequestCap: 100, MaxRequests: 1 << 60},
			totalDesired: 1 << 62,
			wantItems:    3,
			wantRequests: []PageRequest{{0, 100}},
		},
		{
			name:         "overfilled page is truncated",
			source:       &fakeSource{size: 1000, overfill: 5},
			config:       DefaultConfig(),
			totalDesired: 100,
			wantItems:    100,
			wantRequests: []PageRequest{{0, 100}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollector[int](tt.source, tt.config)

			items, err := c.FetchCollection(context.Background(), tt.totalDesired)
			if err != nil {
				t.Fatalf("FetchCollection() error = %v", err)
			}

			if len(items) != tt.wantItems {
				t.Errorf("len(items) = %d, want %d", len(items), tt.wantItems)
			}
			if len(items) > tt.totalDesired {
				t.Errorf("len(items) = %d exceeds desired %d", len(items), tt.totalDesired)
			}
			for i, v := range items {
				if v != i {
					t.Fatalf("items[%d] = %d, want arrival order", i, v)
				}
			}

			if len(tt.source.requests) != len(tt.wantRequests) {
				t.Fatalf("requests = %v, want %v", tt.source.requests, tt.wantRequests)
			}
			for i, req := range tt.source.requests {
				if req != tt.wantRequests[i] {
					t.Errorf("request %d = %+v, want %+v", i, req, tt.wantRequests[i])
				}
			}
		})
	}
}

func TestFetchCollection_FailureIsAtomic(t *testing.T) {
	source := &fakeSource{size: 1000, failAt: 3}
	c := NewCollector[int](source, DefaultConfig())

	before := testutil.ToFloat64(collectionFetchesTotal.WithLabelValues("failure"))

	items, err := c.FetchCollection(context.Background(), 500)
	if err == nil {
		t.Fatal("expected error")
	}
	if items != nil {
		t.Errorf("items = %v, want nil on failure", items)
	}
	if !errors.Is(err, ErrFetchFailure) {
		t.Errorf("errors.Is(err, ErrFetchFailure) = false for %v", err)
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error is not a *FetchError: %T", err)
	}
	if fetchErr.Request != 3 || fetchErr.Offset != 200 || fetchErr.Limit != 100 {
		t.Errorf("FetchError = %+v, want request 3 at offset 200 limit 100", fetchErr)
	}

	after := testutil.ToFloat64(collectionFetchesTotal.WithLabelValues("failure"))
	if after != before+1 {
		t.Errorf("failure counter = %v, want %v", after, before+1)
	}
}

func TestFetchCollection_InvalidTotal(t *testing.T) {
	c := NewCollector[int](&fakeSource{size: 10}, DefaultConfig())

	for _, total := range []int{0, -1} {
		if _, err := c.FetchCollection(context.Background(), total); !errors.Is(err, ErrInvalidTotal) {
			t.Errorf("FetchCollection(%d) error = %v, want ErrInvalidTotal", total, err)
		}
	}
}

func TestFetchCollection_ContextCancelled(t *testing.T) {
	c := NewCollector[int](&fakeSource{size: 1000}, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchCollection(ctx, 100)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if !errors.Is(err, ErrFetchFailure) {
		t.Errorf("error = %v, want ErrFetchFailure", err)
	}
}

func TestFetchCollection_PerPageTimeout(t *testing.T) {
	source := PageSourceFunc[int](func(ctx context.Context, _ PageRequest) (Page[int], error) {
		<-ctx.Done()
		return Page[int]{}, ctx.Err()
	})
	c := NewCollector[int](source, Config{PerRequestCap: 10, Timeout: 10 * time.Millisecond})

	_, err := c.FetchCollection(context.Background(), 10)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{Request: 2, Offset: 100, Limit: 50, Err: errors.New("timeout")}
	want := "fetch failure on request 2 (offset 100, limit 50): timeout"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
