package userlist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vango-dev/userpages/pkg/model"
	"github.com/vango-dev/userpages/pkg/resource"
)

// LoadState is the load lifecycle of the current page.
type LoadState = resource.State[model.UserPage]

// Snapshot is a consistent view of the controller for rendering.
type Snapshot struct {
	Load       LoadState `json:"load"`
	Page       int       `json:"page"`
	PerPage    int       `json:"perPage"`
	TotalPages int       `json:"totalPages"`
}

// Controller owns the current page index and the load state of that page.
type Controller struct {
	dir     model.UserDirectory
	perPage int
	logger  *slog.Logger

	retries    int
	retryDelay time.Duration

	res *resource.Resource[model.UserPage]

	// navMu serializes navigation so the page index and the issued load
	// always match.
	navMu sync.Mutex

	mu      sync.Mutex
	page    int
	total   int // from the last successful load
	settled <-chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithPerPage sets the page size. Values below 1 are ignored.
func WithPerPage(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetry retries a failed load count times, pausing delay between
// attempts, before the state settles to Error.
func WithRetry(count int, delay time.Duration) Option {
	return func(c *Controller) {
		c.retries = count
		c.retryDelay = delay
	}
}

// New creates a controller on page 1 and starts loading it.
func New(ctx context.Context, dir model.UserDirectory, opts ...Option) *Controller {
	c := &Controller{
		dir:     dir,
		perPage: model.DefaultPerPage,
		logger:  slog.Default(),
		page:    1,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.res = resource.New[model.UserPage](nil).
		Named("users").
		WithLogger(c.logger).
		RetryOnError(c.retries, c.retryDelay).
		OnSuccess(func(p model.UserPage) {
			c.mu.Lock()
			c.total = p.TotalCount
			c.mu.Unlock()
		})

	c.StartLoadPage(ctx, 1)
	return c
}

// LoadPage sets the page index to n and loads it, blocking until the load
// settles. n is not clamped.
func (c *Controller) LoadPage(ctx context.Context, n int) LoadState {
	<-c.StartLoadPage(ctx, n)
	return c.res.State()
}

// StartLoadPage is the asynchronous form of LoadPage.
func (c *Controller) StartLoadPage(ctx context.Context, n int) <-chan struct{} {
	c.navMu.Lock()
	defer c.navMu.Unlock()
	return c.startLocked(ctx, n)
}

// GoToPrevious loads max(1, page-1). At page 1 it reloads page 1.
func (c *Controller) GoToPrevious(ctx context.Context) LoadState {
	<-c.StartPrevious(ctx)
	return c.res.State()
}

// StartPrevious is the asynchronous form of GoToPrevious.
func (c *Controller) StartPrevious(ctx context.Context) <-chan struct{} {
	c.navMu.Lock()
	defer c.navMu.Unlock()
	return c.startLocked(ctx, max(1, c.Page()-1))
}

// GoToNext loads min(totalPages, page+1). At the last page it reloads it.
func (c *Controller) GoToNext(ctx context.Context) LoadState {
	<-c.StartNext(ctx)
	return c.res.State()
}

// StartNext is the asynchronous form of GoToNext.
func (c *Controller) StartNext(ctx context.Context) <-chan struct{} {
	c.navMu.Lock()
	defer c.navMu.Unlock()
	return c.startLocked(ctx, min(c.TotalPages(), c.Page()+1))
}

// Retry reloads the current page.
func (c *Controller) Retry(ctx context.Context) LoadState {
	<-c.StartRetry(ctx)
	return c.res.State()
}

// StartRetry is the asynchronous form of Retry.
func (c *Controller) StartRetry(ctx context.Context) <-chan struct{} {
	c.navMu.Lock()
	defer c.navMu.Unlock()
	return c.startLocked(ctx, c.Page())
}

// startLocked must be called with navMu held.
func (c *Controller) startLocked(ctx context.Context, n int) <-chan struct{} {
	c.mu.Lock()
	c.page = n
	c.mu.Unlock()

	perPage := c.perPage
	done := c.res.StartWith(ctx, func(ctx context.Context) (model.UserPage, error) {
		return c.dir.FetchUsers(ctx, n, perPage)
	})

	c.mu.Lock()
	c.settled = done
	c.mu.Unlock()

	c.logger.Debug("user list page requested", "page", n, "per_page", perPage)
	return done
}

// Settled returns a channel closed when the most recent load settles.
func (c *Controller) Settled() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// Page returns the current page index.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// PerPage returns the page size.
func (c *Controller) PerPage() int {
	return c.perPage
}

// TotalPages is max(1, ceil(total/perPage)) for the last successfully
// loaded total, or 1 when nothing was loaded yet.
func (c *Controller) TotalPages() int {
	return model.TotalPages(c.lastTotal(c.res.State()), c.perPage)
}

func (c *Controller) lastTotal(s LoadState) int {
	if v, ok := s.Get(); ok {
		return v.TotalCount
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Snapshot returns the current page state.
func (c *Controller) Snapshot() Snapshot {
	s := c.res.State()
	return Snapshot{
		Load:       s,
		Page:       c.Page(),
		PerPage:    c.perPage,
		TotalPages: model.TotalPages(c.lastTotal(s), c.perPage),
	}
}

// Subscribe calls fn with a fresh snapshot after every load transition.
// fn must not navigate synchronously.
func (c *Controller) Subscribe(fn func(Snapshot)) (cancel func()) {
	return c.res.Subscribe(func(LoadState) { fn(c.Snapshot()) })
}
