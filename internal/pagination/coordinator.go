// Package pagination drives paged list loading for infinite-scroll screens:
// one in-flight page advance per list, append versus replace, and the
// near-bottom trigger.
package pagination

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"leadflow/internal/domain"
)

// FirstPage is the number of the first page. Pages are 1-based both in the
// coordinator and on the wire.
const FirstPage = 1

const (
	DefaultPageSize  = 20
	DefaultThreshold = 400
)

// Fetcher loads one page of items.
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, page, pageSize int, filter domain.Filter) (domain.Page[T], error)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc[T any] func(ctx context.Context, page, pageSize int, filter domain.Filter) (domain.Page[T], error)

func (f FetchFunc[T]) FetchPage(ctx context.Context, page, pageSize int, filter domain.Filter) (domain.Page[T], error) {
	return f(ctx, page, pageSize, filter)
}

// Config tunes a Coordinator. Zero members take defaults.
type Config struct {
	PageSize int
	// Threshold is the distance from the bottom of the content under which
	// scrolling triggers the next page.
	Threshold float64
	// Timeout bounds each page fetch. Zero means no extra bound.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Viewport is a scroll position report from the list view.
type Viewport struct {
	Height        float64
	Offset        float64
	ContentHeight float64
}

// DistanceFromBottom is how far the bottom edge of the viewport is from the
// end of the content.
func (v Viewport) DistanceFromBottom() float64 {
	return v.ContentHeight - (v.Offset + v.Height)
}

// Cursor is a snapshot of the pagination state.
type Cursor struct {
	Page        int
	PageSize    int
	HasMore     bool
	TotalCount  *int
	TotalPages  *int
	Fetching    bool
	Triggered   bool
	Loading     bool
	LoadingMore bool
}

// Coordinator owns the item collection of one list screen.
type Coordinator[T any] struct {
	mu      sync.Mutex
	fetcher Fetcher[T]
	cfg     Config
	logger  *slog.Logger

	filter domain.Filter
	items  []T

	page        int
	hasMore     bool
	totalCount  *int
	totalPages  *int
	fetching    bool
	triggered   bool
	loading     bool
	loadingMore bool

	// generation advances on every replace load; results of older
	// generations are dropped.
	generation uint64
	closed     bool
}

// New creates a Coordinator with nothing loaded.
func New[T any](fetcher Fetcher[T], cfg Config) *Coordinator[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator[T]{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		hasMore: true,
	}
}

// Load fetches one page. With append the items are added after the current
// collection; otherwise they replace it and any older in-flight load is
// superseded.
func (c *Coordinator[T]) Load(ctx context.Context, page int, appendItems bool) error {
	if page < FirstPage {
		return ErrInvalidPage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !appendItems {
		c.generation++
	}
	gen := c.generation
	filter := c.filter
	c.fetching = true
	c.loading = !appendItems
	c.loadingMore = appendItems
	c.mu.Unlock()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	result, err := c.fetcher.FetchPage(ctx, page, c.cfg.PageSize, filter)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.generation {
		c.logger.Debug("dropping superseded page", "page", page, "closed", c.closed)
		return nil
	}
	c.fetching = false
	c.loading = false
	c.loadingMore = false

	if err != nil {
		c.logger.Warn("page fetch failed", "page", page, "error", err)
		return &FetchError{Page: page, Err: err}
	}

	if appendItems {
		items := make([]T, 0, len(c.items)+len(result.Items))
		items = append(items, c.items...)
		c.items = append(items, result.Items...)
	} else {
		c.items = append([]T{}, result.Items...)
	}
	c.page = page
	c.totalCount = result.TotalCount
	c.totalPages = result.TotalPages
	c.hasMore = hasMore(page, c.cfg.PageSize, result)
	return nil
}

// LoadMore advances to the next page. It reports false without fetching when
// a fetch is pending, an advance is already scheduled, or there is nothing
// more to load.
func (c *Coordinator[T]) LoadMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.closed || c.fetching || c.triggered || !c.hasMore {
		c.mu.Unlock()
		return false, nil
	}
	c.triggered = true
	next := c.page + 1
	if next < FirstPage {
		next = FirstPage
	}
	gen := c.generation
	c.mu.Unlock()

	err := c.Load(ctx, next, true)

	c.mu.Lock()
	if gen == c.generation {
		c.triggered = false
	}
	c.mu.Unlock()
	return true, err
}

// Refresh reloads the first page, replacing the collection. Used for
// pull-to-refresh and filter changes.
func (c *Coordinator[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.triggered = false
	c.hasMore = true
	c.mu.Unlock()
	return c.Load(ctx, FirstPage, false)
}

// SetFilter replaces the filter and refreshes.
func (c *Coordinator[T]) SetFilter(ctx context.Context, filter domain.Filter) error {
	c.mu.Lock()
	c.filter = filter
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// OnScroll evaluates the near-bottom trigger and loads the next page when it
// fires. It reports whether a page advance was started.
func (c *Coordinator[T]) OnScroll(ctx context.Context, v Viewport) (bool, error) {
	if v.DistanceFromBottom() >= c.cfg.Threshold {
		return false, nil
	}
	c.mu.Lock()
	ready := !c.fetching && c.hasMore
	c.mu.Unlock()
	if !ready {
		return false, nil
	}
	return c.LoadMore(ctx)
}

// Items returns a copy of the current collection.
func (c *Coordinator[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Filter returns the active filter.
func (c *Coordinator[T]) Filter() domain.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *Coordinator[T]) Cursor() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Cursor{
		Page:        c.page,
		PageSize:    c.cfg.PageSize,
		HasMore:     c.hasMore,
		TotalCount:  c.totalCount,
		TotalPages:  c.totalPages,
		Fetching:    c.fetching,
		Triggered:   c.triggered,
		Loading:     c.loading,
		LoadingMore: c.loadingMore,
	}
}

// Replace swaps the first item matching match for fn(item). It reports false
// when no item matches.
func (c *Coordinator[T]) Replace(match func(T) bool, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	for i := range c.items {
		if !match(c.items[i]) {
			continue
		}
		items := append([]T(nil), c.items...)
		items[i] = fn(items[i])
		c.items = items
		return true
	}
	return false
}

// Close detaches the coordinator from its screen. Loads that resolve later
// are discarded.
func (c *Coordinator[T]) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func hasMore[T any](page, pageSize int, result domain.Page[T]) bool {
	switch {
	case result.HasNextPage != nil:
		return *result.HasNextPage
	case result.TotalPages != nil:
		return page < *result.TotalPages
	case result.TotalCount != nil:
		return page*pageSize < *result.TotalCount
	default:
		return len(result.Items) == pageSize
	}
}
