package prefs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/NicolasAcosta04/SCR/internal/category"
)

type fakePersister struct {
	mu           sync.Mutex
	saved        [][]string
	interactions []string
	saveErr      error
	recordErr    error
}

func (f *fakePersister) SavePreferences(ctx context.Context, categories []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, append([]string(nil), categories...))
	return nil
}

func (f *fakePersister) RecordInteraction(ctx context.Context, articleID, cat string, confidence float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.interactions = append(f.interactions, articleID)
	return nil
}

func (f *fakePersister) interactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.interactions)
}

func TestRecordInteractionRepeatReadsInflateStats(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	m := NewModel(nil, WithClock(func() time.Time { return now }))

	m.RecordInteraction(category.Tech, 0.9, "article-1")
	m.RecordInteraction(category.Tech, 0.8, "article-1")

	s, ok := m.Stats(category.Tech)
	if !ok {
		t.Fatal("expected stats for tech")
	}
	if s.Count != 2 {
		t.Errorf("count = %d, want 2 (repeat reads are not deduplicated)", s.Count)
	}
	if s.TotalConfidence != 1.7 {
		t.Errorf("total confidence = %v, want 1.7", s.TotalConfidence)
	}
	if !s.LastInteraction.Equal(now) {
		t.Errorf("last interaction = %v, want %v", s.LastInteraction, now)
	}
	if m.ReadCount() != 1 {
		t.Errorf("read set size = %d, want 1 (read set is deduplicated)", m.ReadCount())
	}
	if !m.HasRead("article-1") {
		t.Error("expected article-1 in read set")
	}
}

func TestRecordInteractionCreatesEntry(t *testing.T) {
	m := NewModel(nil)
	if _, ok := m.Stats(category.Sport); ok {
		t.Fatal("unexpected stats before any interaction")
	}
	m.RecordInteraction(category.Sport, 0.5, "a1")
	s, ok := m.Stats(category.Sport)
	if !ok || s.Count != 1 || s.TotalConfidence != 0.5 {
		t.Errorf("stats = %+v ok=%v", s, ok)
	}
}

func TestRecordInteractionPersistsAsync(t *testing.T) {
	store := &fakePersister{}
	m := NewModel(store)

	m.RecordInteraction(category.Tech, 0.9, "a1")
	m.RecordInteraction(category.Business, 0.7, "a2")
	m.Close()

	if got := store.interactionCount(); got != 2 {
		t.Errorf("persisted %d interactions, want 2", got)
	}
}

func TestRecordInteractionPersistFailureIsSwallowed(t *testing.T) {
	store := &fakePersister{recordErr: errors.New("backend down")}
	m := NewModel(store)

	m.RecordInteraction(category.Tech, 0.9, "a1")
	m.Close()

	// Local state must still have advanced.
	if s, ok := m.Stats(category.Tech); !ok || s.Count != 1 {
		t.Errorf("stats = %+v ok=%v, want count 1", s, ok)
	}
}

func TestUpdatePreferencesTooMany(t *testing.T) {
	store := &fakePersister{}
	m := NewModel(store)
	m.Seed([]category.Category{category.Tech})

	six := []category.Category{
		category.Tech, category.Business, category.Politics,
		category.Entertainment, category.Sport, category.Science,
	}
	err := m.UpdatePreferences(context.Background(), six)
	if !errors.Is(err, ErrTooManyCategories) {
		t.Fatalf("expected ErrTooManyCategories, got %v", err)
	}
	// Rejected client-side: no network call, local list untouched.
	if len(store.saved) != 0 {
		t.Error("validation failure must not reach the backend")
	}
	if got := m.Preferences(); len(got) != 1 || got[0] != category.Tech {
		t.Errorf("local list changed on validation failure: %v", got)
	}
}

func TestUpdatePreferencesUnknownCode(t *testing.T) {
	m := NewModel(&fakePersister{})
	err := m.UpdatePreferences(context.Background(), []category.Category{"crypto"})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestUpdatePreferencesReplacesAtomically(t *testing.T) {
	store := &fakePersister{}
	m := NewModel(store)
	m.Seed([]category.Category{category.Health})

	want := []category.Category{category.Tech, category.Business}
	if err := m.UpdatePreferences(context.Background(), want); err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	got := m.Preferences()
	if len(got) != 2 || got[0] != category.Tech || got[1] != category.Business {
		t.Errorf("preferences = %v, want %v", got, want)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(store.saved))
	}
}

func TestUpdatePreferencesFailureLeavesListUnchanged(t *testing.T) {
	store := &fakePersister{saveErr: errors.New("503")}
	m := NewModel(store)
	m.Seed([]category.Category{category.Health})

	err := m.UpdatePreferences(context.Background(), []category.Category{category.Tech})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := m.Preferences(); len(got) != 1 || got[0] != category.Health {
		t.Errorf("local list must be unchanged on failure, got %v", got)
	}
}

func TestSeedCapsAtMax(t *testing.T) {
	m := NewModel(nil)
	m.Seed([]category.Category{
		category.Tech, category.Business, category.Politics,
		category.Entertainment, category.Sport, category.Science, category.Health,
	})
	if got := len(m.Preferences()); got != MaxCategories {
		t.Errorf("seeded %d preferences, want %d", got, MaxCategories)
	}
}

func TestPreferencesReturnsCopy(t *testing.T) {
	m := NewModel(nil)
	m.Seed([]category.Category{category.Tech, category.Sport})
	got := m.Preferences()
	got[0] = category.Health
	if again := m.Preferences(); again[0] != category.Tech {
		t.Error("Preferences must return a copy")
	}
}
