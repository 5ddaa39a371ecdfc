package listing

import (
	"context"
	"sync"
	"time"

	"github.com/isdelr/grandline-guide/internal/models"
	"github.com/rs/zerolog/log"
)

// View is the listing as it should be rendered.
type View struct {
	Search  string
	Region  string
	Page    Page
	Total   int
	Loading bool
	// Err is the last query failure. The list itself is empty in that case;
	// rendering the error is up to the caller.
	Err error
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce overrides the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithPageSize overrides the page size.
func WithPageSize(n int) Option {
	return func(c *Controller) { c.pageSize = n }
}

// OnChange registers a callback invoked with the new view after every state
// change. It runs outside the controller lock.
func OnChange(fn func(View)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// Controller owns the listing state. It is safe for concurrent use.
type Controller struct {
	dir       Directory
	debounce  time.Duration
	pageSize  int
	onChange  func(View)
	debouncer *Debouncer

	mu      sync.Mutex
	search  string
	region  string
	page    int
	results []models.Country
	err     error
	loading bool
	gen     uint64
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewController creates a Controller over dir. Call Start to load the
// initial list and Close when done.
func NewController(dir Directory, opts ...Option) *Controller {
	c := &Controller{
		dir:      dir,
		debounce: DefaultDebounce,
		pageSize: PageSize,
		region:   RegionAll,
		page:     1,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debouncer = NewDebouncer(c.debounce)
	return c
}

// Start runs the first query immediately.
func (c *Controller) Start() {
	c.query()
}

// SetSearch updates the search text, resets to page 1 and schedules a query.
func (c *Controller) SetSearch(search string) {
	c.mu.Lock()
	if c.closed || search == c.search {
		c.mu.Unlock()
		return
	}
	c.search = search
	c.page = 1
	c.mu.Unlock()

	c.notify()
	c.debouncer.Trigger(c.query)
}

// SetRegion updates the region filter, resets to page 1 and schedules a query.
func (c *Controller) SetRegion(region string) {
	if region == "" {
		region = RegionAll
	}
	c.mu.Lock()
	if c.closed || region == c.region {
		c.mu.Unlock()
		return
	}
	c.region = region
	c.page = 1
	c.mu.Unlock()

	c.notify()
	c.debouncer.Trigger(c.query)
}

// NextPage advances one page. It reports false on the last page.
func (c *Controller) NextPage() bool {
	c.mu.Lock()
	total := TotalPages(len(c.results), c.pageSize)
	if c.page >= total {
		c.mu.Unlock()
		return false
	}
	c.page++
	c.mu.Unlock()

	c.notify()
	return true
}

// PrevPage goes back one page. It reports false on page 1.
func (c *Controller) PrevPage() bool {
	c.mu.Lock()
	if c.page <= 1 {
		c.mu.Unlock()
		return false
	}
	c.page--
	c.mu.Unlock()

	c.notify()
	return true
}

// View returns the current view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Close stops pending and in-flight queries and waits for them to finish.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	c.debouncer.Stop()
	c.wg.Wait()
}

func (c *Controller) viewLocked() View {
	return View{
		Search:  c.search,
		Region:  c.region,
		Page:    Paginate(c.results, c.page, c.pageSize),
		Total:   len(c.results),
		Loading: c.loading,
		Err:     c.err,
	}
}

// query starts the lookup for the current input. A newer query cancels the
// older one and the older result is dropped even if it arrives later.
func (c *Controller) query() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	strategy := ChooseStrategy(c.search, c.region)
	c.loading = true
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify()

	go func() {
		defer c.wg.Done()
		defer cancel()

		items, err := Execute(ctx, c.dir, strategy)

		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			log.Debug().Stringer("strategy", strategy.Kind).Str("arg", strategy.Arg).Msg("Discarding stale listing result")
			return
		}
		c.loading = false
		c.err = err
		c.results = items
		if err != nil {
			c.results = nil
			log.Error().Err(err).Stringer("strategy", strategy.Kind).Str("arg", strategy.Arg).Msg("Country lookup failed")
		}
		c.mu.Unlock()

		c.notify()
	}()
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.onChange(c.View())
}
