package store

import (
	"time"
)

// Source is a configured feed or site to poll. The pipeline never creates or
// deletes sources; it only advances last_checked.
type Source struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Kind        string     `json:"kind"` // rss | youtube | googlenews | site
	ZooID       *string    `json:"zoo_id"`
	Enabled     bool       `json:"enabled"`
	LastChecked *time.Time `json:"last_checked"`
}

// Zoo is a reference entity consumed by the resolver's zoo-guessing step.
type Zoo struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	OfficialSite *string `json:"official_site"`
}

// Fingerprint is a dedup marker: once present, the same content is never
// reprocessed as new. Hash is unique per kind.
type Fingerprint struct {
	FP   string `json:"fp"`
	Kind string `json:"kind"` // news | baby
}

// BabyEvent is one observed mention of a possible birth or naming, one row
// per distinct normalized URL. ProcessedAt is null until the resolver has
// acted on it; the transition to non-null is one-way.
//
// Optional columns serialize even when empty: the store rejects bulk writes
// whose rows carry different object keys, so every row in a batch must list
// the same columns. Only ID and ProcessedAt are omitted, uniformly, because
// no ingestion row ever sets them.
type BabyEvent struct {
	ID            string     `json:"id,omitempty"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	PublishedAt   *time.Time `json:"published_at"`
	ThumbnailURL  string     `json:"thumbnail_url"`
	ZooID         *string    `json:"zoo_id"`
	Species       *string    `json:"species"`
	SourceID      string     `json:"source_id"`
	SourceKind    string     `json:"source_kind"`
	SignalBirth   bool       `json:"signal_birth"`
	SignalName    string     `json:"signal_name"`
	SignalAgeDays *int       `json:"signal_age_days"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// Baby is the resolved, publicly displayed entity.
type Baby struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Species      *string `json:"species,omitempty"`
	Birthday     *string `json:"birthday,omitempty"` // YYYY-MM-DD
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	ZooID        *string `json:"zoo_id,omitempty"`
}

// BabyLink ties a candidate event to the canonical animal it resolved to.
// Append-only, created exactly once per event.
type BabyLink struct {
	EventID string `json:"event_id"`
	BabyID  string `json:"baby_id"`
}

// NewsItem is a display-only news row, upserted on URL. All columns
// serialize unconditionally so batch rows keep uniform keys.
type NewsItem struct {
	Title        string     `json:"title"`
	URL          string     `json:"url"`
	PublishedAt  *time.Time `json:"published_at"`
	ThumbnailURL string     `json:"thumbnail_url"`
	SourceName   string     `json:"source_name"`
	SourceURL    string     `json:"source_url"`
	SourceID     string     `json:"source_id"`
}

// CrawlLog is append-only run telemetry.
type CrawlLog struct {
	Job        string    `json:"job"`
	OK         bool      `json:"ok"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Total      int       `json:"total"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}
