// Package orchestrator serializes feed triggers (mount, infinite scroll,
// manual refresh) into at most one in-flight fetch against the upstream
// content provider, applying results to the owned article cache.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NicolasAcosta04/SCR/internal/category"
	"github.com/NicolasAcosta04/SCR/internal/feedcache"
	"github.com/NicolasAcosta04/SCR/internal/newsapi"
)

// DefaultTimeout bounds one fetch; expiry is treated as a fetch failure.
const DefaultTimeout = 10 * time.Second

// DefaultPageSize matches the provider's default page size.
const DefaultPageSize = 10

// Fetcher issues one page request against the upstream provider.
// *newsapi.Client satisfies it.
type Fetcher interface {
	FetchArticles(ctx context.Context, req newsapi.FetchRequest) ([]feedcache.Article, error)
}

// PreferenceSource supplies the ordered category list the desired query
// is composed from. *prefs.Model satisfies it.
type PreferenceSource interface {
	Preferences() []category.Category
}

// Orchestrator drives one feed view. It owns the cache for its lifetime:
// nothing else writes to it, and after Close nothing does at all.
type Orchestrator struct {
	logger   *zap.Logger
	fetcher  Fetcher
	source   PreferenceSource
	cache    *feedcache.Cache
	pageSize int
	sortBy   string
	timeout  time.Duration

	mu      sync.Mutex
	state   State
	lastErr error
	closed  bool
	gen     uint64

	inflight sync.WaitGroup
}

// Option mutates orchestrator configuration at construction time.
type Option func(*Orchestrator)

// WithLogger injects the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPageSize sets how many articles each fetch requests.
func WithPageSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithSortBy sets the provider sort order (relevancy, popularity, publishedAt).
func WithSortBy(sortBy string) Option {
	return func(o *Orchestrator) {
		if sortBy != "" {
			o.sortBy = sortBy
		}
	}
}

// WithTimeout bounds each fetch.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// New creates an orchestrator for one feed view. The cache must be owned
// exclusively by this orchestrator until Close.
func New(fetcher Fetcher, source PreferenceSource, cache *feedcache.Cache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:   zap.NewNop(),
		fetcher:  fetcher,
		source:   source,
		cache:    cache,
		pageSize: DefaultPageSize,
		sortBy:   "relevancy",
		timeout:  DefaultTimeout,
		state:    Idle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Err returns the failure that put the orchestrator into Error, or nil.
func (o *Orchestrator) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// Articles returns the cache contents and the hasMore flag, read under
// the orchestrator's lock so no completion handler races the caller.
func (o *Orchestrator) Articles() ([]feedcache.Article, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.Get()
}

// Fingerprint returns the query that produced the current cache contents.
func (o *Orchestrator) Fingerprint() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cache.Fingerprint()
}

// Init handles the feed view mounting: serve the cache when it is still
// fresh for the desired query, otherwise fetch page 1. Returns whether a
// fetch was issued.
func (o *Orchestrator) Init(ctx context.Context) bool {
	return o.trigger(ctx, EventInit)
}

// Scroll handles a scroll-threshold crossing: fetch the next page when
// idle and more content is believed to exist; dropped otherwise.
func (o *Orchestrator) Scroll(ctx context.Context) bool {
	return o.trigger(ctx, EventScroll)
}

// Refresh handles a manual refresh: invalidate the cache and fetch page 1
// regardless of freshness. Recovers from Error; dropped while Loading.
func (o *Orchestrator) Refresh(ctx context.Context) bool {
	return o.trigger(ctx, EventRefresh)
}

func (o *Orchestrator) trigger(ctx context.Context, ev Event) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}

	// The desired query is recomputed at every trigger; a preference
	// change shows up as a fingerprint mismatch and forces a cold cache.
	query := category.ComposeQuery(o.source.Preferences())
	snap := Snapshot{
		State:   o.state,
		Fresh:   o.cache.IsFresh(query),
		HasMore: o.cache.HasMore(),
		Cursor:  o.cache.Cursor(),
	}
	d := Transition(snap, ev)
	if d.Fetch == nil {
		o.state = d.Next
		o.mu.Unlock()
		o.logger.Debug("trigger dropped",
			zap.Stringer("event", ev),
			zap.Stringer("state", snap.State),
			zap.Bool("fresh", snap.Fresh),
			zap.Bool("has_more", snap.HasMore))
		return false
	}

	if d.Fetch.Invalidate {
		o.cache.Invalidate()
	}
	o.state = d.Next
	o.lastErr = nil
	o.gen++
	gen := o.gen
	req := newsapi.FetchRequest{
		Query:        query,
		Page:         d.Fetch.Page,
		PageSize:     o.pageSize,
		SortBy:       o.sortBy,
		ForceRefresh: d.Fetch.ForceRefresh,
	}
	replace := d.Fetch.Page == 1 && d.Fetch.ForceRefresh
	o.inflight.Add(1)
	o.mu.Unlock()

	o.logger.Debug("issuing fetch",
		zap.Stringer("event", ev),
		zap.String("query", query),
		zap.Int("page", req.Page),
		zap.Bool("force_refresh", req.ForceRefresh))

	go o.fetch(ctx, gen, req, replace)
	return true
}

func (o *Orchestrator) fetch(ctx context.Context, gen uint64, req newsapi.FetchRequest, replace bool) {
	defer o.inflight.Done()
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	articles, err := o.fetcher.FetchArticles(ctx, req)
	o.complete(gen, req, replace, articles, err)
}

// complete applies a fetch outcome. It becomes a no-op when the owning
// feed view has been closed or the fetch was superseded, so a straggling
// response can never write into a disposed cache.
func (o *Orchestrator) complete(gen uint64, req newsapi.FetchRequest, replace bool, articles []feedcache.Article, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || gen != o.gen {
		o.logger.Debug("stale completion discarded", zap.Int("page", req.Page))
		return
	}

	if err != nil {
		// The cache keeps its last-known-good contents; no partial writes.
		o.state = Error
		o.lastErr = err
		o.logger.Warn("fetch failed", zap.Int("page", req.Page), zap.Error(err))
		return
	}

	switch {
	case len(articles) == 0:
		o.cache.MarkExhausted()
	case replace:
		o.cache.Replace(articles, req.Query)
	default:
		o.cache.Append(articles)
		o.cache.Touch(req.Query)
	}
	o.state = Idle
	o.logger.Debug("fetch applied",
		zap.Int("page", req.Page),
		zap.Int("received", len(articles)),
		zap.Int("cached", o.cache.Len()),
		zap.Bool("has_more", o.cache.HasMore()))
}

// Wait blocks until any in-flight fetch has settled.
func (o *Orchestrator) Wait() {
	o.inflight.Wait()
}

// Close marks the feed view disposed. The in-flight request, if any, is
// not cancelled; its completion handler sees the closed flag and becomes
// a no-op, leaving the cache untouched.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
}
