package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/NicolasAcosta04/SCR/internal/feedcache"
)

// DefaultTimeout bounds every collaborator call; expiry surfaces as a
// normal transport failure.
const DefaultTimeout = 10 * time.Second

// Config holds the collaborator endpoints and credentials.
type Config struct {
	ModelAPIURL string        // content provider (fetch, recommendations, interactions)
	AuthAPIURL  string        // preference persistence
	Token       string        // bearer token, optional
	UserID      string        // user the recommendation/interaction endpoints act for
	Timeout     time.Duration // per-request; DefaultTimeout when zero
}

// Client talks to the upstream content provider and the preference store.
type Client struct {
	modelURL string
	authURL  string
	token    string
	userID   string
	http     *http.Client
	now      func() time.Time
}

// New creates a client from the given config.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		modelURL: strings.TrimRight(cfg.ModelAPIURL, "/"),
		authURL:  strings.TrimRight(cfg.AuthAPIURL, "/"),
		token:    cfg.Token,
		userID:   cfg.UserID,
		http:     &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

// UserID returns the user the client acts for.
func (c *Client) UserID() string { return c.userID }

// FetchRequest describes one page request against the content provider.
type FetchRequest struct {
	Query            string
	Page             int
	PageSize         int
	SortBy           string
	RandomizeSources bool
	ForceRefresh     bool
}

type fetchBody struct {
	Query            string `json:"query"`
	PageSize         int    `json:"page_size"`
	SortBy           string `json:"sort_by"`
	Page             int    `json:"page"`
	RandomizeSources bool   `json:"randomize_sources"`
	ForceRefresh     bool   `json:"force_refresh"`
	Timestamp        int64  `json:"timestamp"`
}

// FetchArticles requests one page of classified articles. An empty result
// is not an error: it is the provider's exhaustion signal. The timestamp
// field carries a Unix-millisecond nonce so intermediary caches never
// serve a stale page.
func (c *Client) FetchArticles(ctx context.Context, req FetchRequest) ([]feedcache.Article, error) {
	body := fetchBody{
		Query:            req.Query,
		PageSize:         req.PageSize,
		SortBy:           req.SortBy,
		Page:             req.Page,
		RandomizeSources: req.RandomizeSources,
		ForceRefresh:     req.ForceRefresh,
		Timestamp:        c.now().UnixMilli(),
	}
	var wire []wireArticle
	if err := c.do(ctx, http.MethodPost, c.modelURL+"/articles/fetch", body, &wire); err != nil {
		return nil, err
	}
	return toArticles(wire), nil
}

// Recommendations requests server-ranked articles for the client's user;
// no query string is involved.
func (c *Client) Recommendations(ctx context.Context, n, page int) ([]feedcache.Article, error) {
	u := fmt.Sprintf("%s/articles/recommendations/%s?num_recommendations=%d&page=%d",
		c.modelURL, url.PathEscape(c.userID), n, page)
	var wire []wireArticle
	if err := c.do(ctx, http.MethodGet, u, nil, &wire); err != nil {
		return nil, err
	}
	return toArticles(wire), nil
}

// RecordInteraction reports one article read to the content provider so
// server-side ranking can learn from it.
func (c *Client) RecordInteraction(ctx context.Context, articleID, category string, confidence float64) error {
	q := url.Values{}
	q.Set("article_id", articleID)
	q.Set("category", category)
	q.Set("confidence", strconv.FormatFloat(confidence, 'f', -1, 64))
	u := fmt.Sprintf("%s/articles/update-preferences/%s?%s", c.modelURL, url.PathEscape(c.userID), q.Encode())
	return c.do(ctx, http.MethodPost, u, nil, nil)
}

type preferencesResponse struct {
	Preferences []string `json:"preferences"`
}

type preferencesRequest struct {
	Categories []string `json:"categories"`
}

// Preferences returns the persisted ordered category list.
func (c *Client) Preferences(ctx context.Context) ([]string, error) {
	var resp preferencesResponse
	if err := c.do(ctx, http.MethodGet, c.authURL+"/users/me/preferences", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Preferences, nil
}

// SavePreferences replaces the persisted category list.
func (c *Client) SavePreferences(ctx context.Context, categories []string) error {
	return c.do(ctx, http.MethodPost, c.authURL+"/users/me/preferences", preferencesRequest{Categories: categories}, nil)
}

// Health pings the preference store. Best-effort callers treat any error
// as "unreachable".
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.authURL+"/health", nil, nil)
}

// do issues one request and decodes a 2xx body into out (when non-nil).
// Non-2xx responses become an *APIError carrying the upstream detail.
func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
