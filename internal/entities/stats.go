package entities

import "time"

// MostViewedEntry is one row of a "top N by views" ranking.
type MostViewedEntry struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	ViewsCount int64  `json:"views_count"`
}

// ContentStats aggregates per-content-type counters.
type ContentStats struct {
	Total      int64             `json:"total"`
	Views      int64             `json:"views"`
	Chapters   int64             `json:"chapters,omitempty"`
	Recent     int64             `json:"recent"`
	MostViewed []MostViewedEntry `json:"most_viewed"`
}

type UserStats struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

type GeneralStats struct {
	TotalContent int64 `json:"total_content"`
	TotalViews   int64 `json:"total_views"`
}

// Statistics is the global statistics snapshot returned by the backend.
type Statistics struct {
	Articles  ContentStats `json:"articles"`
	Books     ContentStats `json:"books"`
	Mangas    ContentStats `json:"mangas"`
	Users     UserStats    `json:"users"`
	General   GeneralStats `json:"general"`
	Timestamp time.Time    `json:"timestamp"`
}

// ViewResult is returned by increment-views calls. Best-effort semantics:
// a failed call yields a zero value, never an error.
type ViewResult struct {
	ViewsCount int64 `json:"views_count"`
}

// FavoriteResult is returned by toggle-favorite calls, also best-effort.
type FavoriteResult struct {
	IsFavorite     bool  `json:"is_favorite"`
	FavoritesCount int64 `json:"favorites_count"`
}
