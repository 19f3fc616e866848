package feedcache

import "time"

// DefaultTTL is how long cache contents stay fresh for a matching query.
const DefaultTTL = 5 * time.Minute

// Cache is the single source of truth for what a feed view renders, and
// the only place dedup and freshness decisions are made.
//
// Cache is not safe for concurrent use; the owning orchestrator serializes
// all access within one session.
type Cache struct {
	ttl   time.Duration
	clock func() time.Time

	articles    []Article
	seen        map[string]struct{}
	cursor      int
	hasMore     bool
	lastFetch   time.Time
	fingerprint string
}

// Option mutates cache configuration at construction time.
type Option func(*Cache)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects a clock, so TTL boundaries can be tested deterministically.
func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New creates an empty cache. The initial state always reports cold.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:     DefaultTTL,
		clock:   time.Now,
		seen:    make(map[string]struct{}),
		hasMore: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the current article sequence and whether more
// pages are believed to exist upstream.
func (c *Cache) Get() ([]Article, bool) {
	out := make([]Article, len(c.articles))
	copy(out, c.articles)
	return out, c.hasMore
}

// Len returns the number of cached articles.
func (c *Cache) Len() int { return len(c.articles) }

// HasMore reports whether the upstream provider is believed to have
// additional pages for the current query.
func (c *Cache) HasMore() bool { return c.hasMore }

// Cursor returns the last successfully fetched page number.
func (c *Cache) Cursor() int { return c.cursor }

// Fingerprint identifies the query that produced the current contents.
func (c *Cache) Fingerprint() string { return c.fingerprint }

// LastFetch returns when the cache last absorbed a successful fetch.
func (c *Cache) LastFetch() time.Time { return c.lastFetch }

// IsFresh reports whether the cache can serve the desired query without a
// network call: the contents must come from the same query and be younger
// than the TTL. Either condition failing means cold.
func (c *Cache) IsFresh(fingerprint string) bool {
	if c.lastFetch.IsZero() {
		return false
	}
	if c.fingerprint != fingerprint {
		return false
	}
	return c.clock().Sub(c.lastFetch) < c.ttl
}

// Append filters articles against the seen-id set and appends survivors at
// the tail in arrival order. The cursor advances only when at least one
// article is admitted. Append never flips hasMore: a fully-duplicate page
// still means more content may exist upstream, so exhaustion is signaled
// by the caller via MarkExhausted only when the upstream page itself was
// empty. Returns the number of articles admitted.
func (c *Cache) Append(articles []Article) int {
	admitted := 0
	for _, a := range articles {
		if _, dup := c.seen[a.ID]; dup {
			continue
		}
		c.seen[a.ID] = struct{}{}
		c.articles = append(c.articles, a)
		admitted++
	}
	if admitted > 0 {
		c.cursor++
	}
	return admitted
}

// Replace reseeds the cache from a fresh page-1 payload: contents and the
// seen-id set are rebuilt from articles, the cursor resets to 1, and the
// freshness window restarts for the given fingerprint. An empty payload
// leaves the cache exhausted.
func (c *Cache) Replace(articles []Article, fingerprint string) {
	c.articles = make([]Article, 0, len(articles))
	c.seen = make(map[string]struct{}, len(articles))
	for _, a := range articles {
		if _, dup := c.seen[a.ID]; dup {
			continue
		}
		c.seen[a.ID] = struct{}{}
		c.articles = append(c.articles, a)
	}
	c.cursor = 1
	c.fingerprint = fingerprint
	c.lastFetch = c.clock()
	c.hasMore = len(articles) > 0
}

// Touch records a successful fetch without changing contents: the
// freshness window restarts and the fingerprint is updated. Used after an
// Append so pagination keeps the cache warm.
func (c *Cache) Touch(fingerprint string) {
	c.lastFetch = c.clock()
	c.fingerprint = fingerprint
}

// MarkExhausted records that the upstream provider has no further pages
// for the current query. Terminal until Replace or Invalidate.
func (c *Cache) MarkExhausted() { c.hasMore = false }

// Invalidate resets the cache to its empty initial state; the next
// freshness check always reports cold.
func (c *Cache) Invalidate() {
	c.articles = nil
	c.seen = make(map[string]struct{})
	c.cursor = 0
	c.hasMore = true
	c.lastFetch = time.Time{}
	c.fingerprint = ""
}
