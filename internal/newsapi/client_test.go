package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		ModelAPIURL: srv.URL,
		AuthAPIURL:  srv.URL,
		Token:       "test-token",
		UserID:      "user-1",
	})
}

func TestFetchArticlesRequestShape(t *testing.T) {
	var got map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/articles/fetch" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("unexpected auth header: %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Write([]byte("[]")) //nolint:errcheck
	}))

	_, err := c.FetchArticles(context.Background(), FetchRequest{
		Query:        "Technology OR Business",
		Page:         2,
		PageSize:     10,
		SortBy:       "relevancy",
		ForceRefresh: true,
	})
	if err != nil {
		t.Fatalf("FetchArticles: %v", err)
	}

	if got["query"] != "Technology OR Business" {
		t.Errorf("query = %v", got["query"])
	}
	if got["page"] != float64(2) {
		t.Errorf("page = %v", got["page"])
	}
	if got["page_size"] != float64(10) {
		t.Errorf("page_size = %v", got["page_size"])
	}
	if got["sort_by"] != "relevancy" {
		t.Errorf("sort_by = %v", got["sort_by"])
	}
	if got["force_refresh"] != true {
		t.Errorf("force_refresh = %v", got["force_refresh"])
	}
	if got["randomize_sources"] != false {
		t.Errorf("randomize_sources = %v", got["randomize_sources"])
	}
	ts, ok := got["timestamp"].(float64)
	if !ok || ts <= 0 {
		t.Errorf("timestamp nonce missing or zero: %v", got["timestamp"])
	}
}

func TestFetchArticlesDecodesWireShape(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{
			"article_id": "abc",
			"title": "Chip makers rally",
			"content": "Long body",
			"source": "BBC News",
			"url": "https://example.com/abc",
			"published_at": "2025-05-30T08:15:00+00:00",
			"image_url": "https://example.com/abc.jpg",
			"category": "TECH",
			"subcategory": "hardware",
			"confidence": 0.93
		}]`))
	}))

	articles, err := c.FetchArticles(context.Background(), FetchRequest{Query: "Technology", Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("FetchArticles: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}
	a := articles[0]
	if a.ID != "abc" || a.Title != "Chip makers rally" || a.Source != "BBC News" {
		t.Errorf("unexpected article: %+v", a)
	}
	if a.Category != "tech" {
		t.Errorf("category should be normalized to code form, got %q", a.Category)
	}
	want := time.Date(2025, 5, 30, 8, 15, 0, 0, time.UTC)
	if !a.PublishedAt.Equal(want) {
		t.Errorf("published_at = %v, want %v", a.PublishedAt, want)
	}
	if a.Confidence != 0.93 {
		t.Errorf("confidence = %v", a.Confidence)
	}
}

func TestFetchArticlesEmptyIsNotAnError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]")) //nolint:errcheck
	}))
	articles, err := c.FetchArticles(context.Background(), FetchRequest{Query: "general", Page: 7, PageSize: 10})
	if err != nil {
		t.Fatalf("expected nil error for empty payload, got %v", err)
	}
	if len(articles) != 0 {
		t.Fatalf("expected empty slice, got %d", len(articles))
	}
}

func TestAPIErrorCarriesDetail(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "Invalid category"}`)) //nolint:errcheck
	}))

	_, err := c.FetchArticles(context.Background(), FetchRequest{Query: "x", Page: 1, PageSize: 10})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if apiErr.Detail != "Invalid category" {
		t.Errorf("detail = %q", apiErr.Detail)
	}
}

func TestPreferencesRoundTrip(t *testing.T) {
	var savedBody preferencesRequest
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me/preferences" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"preferences": ["tech", "business"]}`)) //nolint:errcheck
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&savedBody); err != nil {
				t.Errorf("decoding save body: %v", err)
			}
			w.Write([]byte(`{"preferences": ["sport"]}`)) //nolint:errcheck
		}
	}))

	prefs, err := c.Preferences(context.Background())
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if len(prefs) != 2 || prefs[0] != "tech" || prefs[1] != "business" {
		t.Errorf("unexpected preferences: %v", prefs)
	}

	if err := c.SavePreferences(context.Background(), []string{"sport"}); err != nil {
		t.Fatalf("SavePreferences: %v", err)
	}
	if len(savedBody.Categories) != 1 || savedBody.Categories[0] != "sport" {
		t.Errorf("unexpected save body: %v", savedBody.Categories)
	}
}

func TestRecommendationsURL(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/articles/recommendations/user-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("num_recommendations") != "5" || q.Get("page") != "2" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte("[]")) //nolint:errcheck
	}))
	if _, err := c.Recommendations(context.Background(), 5, 2); err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
}

func TestRecordInteractionParams(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/articles/update-preferences/user-1" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("article_id") != "abc" || q.Get("category") != "tech" || q.Get("confidence") != "0.9" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"message": "ok"}`)) //nolint:errcheck
	}))
	if err := c.RecordInteraction(context.Background(), "abc", "tech", 0.9); err != nil {
		t.Fatalf("RecordInteraction: %v", err)
	}
}

func TestParsePublishedFallbacks(t *testing.T) {
	tests := []struct {
		input string
		zero  bool
	}{
		{"2025-05-30T08:15:00Z", false},
		{"2025-05-30T08:15:00.123456+00:00", false},
		{"2025-05-30T08:15:00", false},
		{"2025-05-30 08:15:00", false},
		{"", true},
		{"yesterday", true},
	}
	for _, tt := range tests {
		got := parsePublished(tt.input)
		if got.IsZero() != tt.zero {
			t.Errorf("parsePublished(%q).IsZero() = %v, want %v", tt.input, got.IsZero(), tt.zero)
		}
	}
}
