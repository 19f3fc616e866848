package prefs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/NicolasAcosta04/SCR/internal/category"
)

// MaxCategories is the most preferences a user may hold. Enforced
// client-side before any network call.
const MaxCategories = 5

var (
	// ErrTooManyCategories rejects preference updates above MaxCategories.
	ErrTooManyCategories = errors.New("at most 5 category preferences allowed")
	// ErrUnknownCategory rejects preference updates naming a code the
	// classifier does not produce.
	ErrUnknownCategory = errors.New("unknown category")
)

// Stats holds the interaction counters for one category. Count and
// LastInteraction only ever move forward.
type Stats struct {
	Count           int
	TotalConfidence float64
	LastInteraction time.Time
}

// Persister stores preference state with the backend collaborators.
type Persister interface {
	SavePreferences(ctx context.Context, categories []string) error
	RecordInteraction(ctx context.Context, articleID, category string, confidence float64) error
}

// Model tracks per-category interest derived from observed reading
// behavior, plus the set of articles the user has opened. One Model lives
// for one user session.
type Model struct {
	logger  *zap.Logger
	store   Persister
	clock   func() time.Time
	timeout time.Duration

	mu      sync.Mutex
	ordered []category.Category
	stats   map[category.Category]*Stats
	read    map[string]struct{}

	persists sync.WaitGroup
}

// Option mutates model configuration at construction time.
type Option func(*Model)

// WithLogger injects the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock injects a clock for deterministic LastInteraction stamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Model) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithPersistTimeout bounds each best-effort persistence call.
func WithPersistTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewModel creates an empty preference model. store may be nil, in which
// case nothing is persisted and the model is purely local.
func NewModel(store Persister, opts ...Option) *Model {
	m := &Model{
		logger:  zap.NewNop(),
		store:   store,
		clock:   time.Now,
		timeout: 10 * time.Second,
		stats:   make(map[category.Category]*Stats),
		read:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Seed replaces the local ordered preference list without persisting,
// used at session start with the list the backend reports. Entries beyond
// MaxCategories are discarded.
func (m *Model) Seed(categories []category.Category) {
	if len(categories) > MaxCategories {
		categories = categories[:MaxCategories]
	}
	m.mu.Lock()
	m.ordered = append([]category.Category(nil), categories...)
	m.mu.Unlock()
}

// Preferences returns a copy of the ordered category list.
func (m *Model) Preferences() []category.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]category.Category(nil), m.ordered...)
}

// RecordInteraction folds one article read into the category statistics
// and the read set, then persists the interaction asynchronously on a
// best-effort basis (failures are logged, never surfaced).
//
// Repeat reads of the same article keep incrementing the counters; only
// the read-set membership is deduplicated. That mirrors the behavior the
// backend learned against, so it is kept rather than "fixed".
func (m *Model) RecordInteraction(cat category.Category, confidence float64, articleID string) {
	m.mu.Lock()
	s, ok := m.stats[cat]
	if !ok {
		s = &Stats{}
		m.stats[cat] = s
	}
	s.Count++
	s.TotalConfidence += confidence
	s.LastInteraction = m.clock()
	m.read[articleID] = struct{}{}
	m.mu.Unlock()

	if m.store == nil {
		return
	}
	m.persists.Add(1)
	go func() {
		defer m.persists.Done()
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if err := m.store.RecordInteraction(ctx, articleID, string(cat), confidence); err != nil {
			m.logger.Warn("persisting interaction",
				zap.String("article_id", articleID),
				zap.String("category", string(cat)),
				zap.Error(err))
		}
	}()
}

// UpdatePreferences validates and persists a new ordered category list.
// The local list is replaced only after the backend accepts it; on any
// failure the local list is unchanged and the error is surfaced.
func (m *Model) UpdatePreferences(ctx context.Context, categories []category.Category) error {
	if len(categories) > MaxCategories {
		return fmt.Errorf("%w, got %d", ErrTooManyCategories, len(categories))
	}
	for _, c := range categories {
		if !category.Valid(c) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
		}
	}

	if m.store != nil {
		codes := make([]string, len(categories))
		for i, c := range categories {
			codes[i] = string(c)
		}
		if err := m.store.SavePreferences(ctx, codes); err != nil {
			return fmt.Errorf("persisting preferences: %w", err)
		}
	}

	m.mu.Lock()
	m.ordered = append([]category.Category(nil), categories...)
	m.mu.Unlock()
	return nil
}

// Stats returns a copy of the counters for cat.
func (m *Model) Stats(cat category.Category) (Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[cat]
	if !ok {
		return Stats{}, false
	}
	return *s, true
}

// HasRead reports whether the user has opened the article this session.
func (m *Model) HasRead(articleID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.read[articleID]
	return ok
}

// ReadCount returns the size of the read set.
func (m *Model) ReadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.read)
}

// Close drains in-flight best-effort persists. Call on session teardown.
func (m *Model) Close() {
	m.persists.Wait()
}
