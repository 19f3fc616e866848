package newsapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/NicolasAcosta04/SCR/internal/feedcache"
)

// wireArticle mirrors the provider's JSON article shape.
type wireArticle struct {
	ArticleID   string  `json:"article_id"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Source      string  `json:"source"`
	URL         string  `json:"url"`
	PublishedAt string  `json:"published_at"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Confidence  float64 `json:"confidence"`
}

func toArticles(wire []wireArticle) []feedcache.Article {
	out := make([]feedcache.Article, 0, len(wire))
	for _, w := range wire {
		out = append(out, feedcache.Article{
			ID:          w.ArticleID,
			Title:       w.Title,
			Content:     w.Content,
			Source:      w.Source,
			URL:         w.URL,
			PublishedAt: parsePublished(w.PublishedAt),
			ImageURL:    w.ImageURL,
			Category:    strings.ToLower(w.Category),
			Subcategory: w.Subcategory,
			Confidence:  w.Confidence,
		})
	}
	return out
}

// parsePublished tolerates the timestamp variants the provider emits;
// anything unparseable becomes the zero time rather than failing the page.
func parsePublished(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// APIError is a non-2xx response from a collaborator.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("upstream returned %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Detail)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var body struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Detail = body.Detail
		}
	}
	return apiErr
}
