package feedcache

import "time"

// Article is one classified news item as delivered by the upstream
// provider. Immutable once received.
type Article struct {
	ID          string
	Title       string
	Content     string
	Source      string
	URL         string
	PublishedAt time.Time
	ImageURL    string
	Category    string
	Subcategory string
	Confidence  float64
}
