package feed

import (
	"time"
)

// Item is the uniform shape every parser produces, regardless of whether the
// bytes came from an RSS/Atom feed, a YouTube channel feed, or a scraped
// article page. Downstream signal extraction is source-agnostic.
type Item struct {
	Title       string
	URL         string // normalized canonical URL
	PublishedAt *time.Time
	Thumbnail   string
	SourceName  string // hostname label, e.g. "example.co.jp"
}

// Link is one anchor harvested from a listing page.
type Link struct {
	URL  string // normalized canonical URL
	Text string // anchor text, whitespace-trimmed
}
