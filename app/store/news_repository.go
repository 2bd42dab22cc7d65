package store

import (
	"context"
	"fmt"
	"net/url"
)

// NewsRepo handles store operations for the display-only news_items table.
type NewsRepo struct {
	client *Client
}

func NewNewsRepo(client *Client) *NewsRepo {
	return &NewsRepo{client: client}
}

// UpsertNews writes news rows in batches, conflict target URL. The count is
// an approximation: already-seen URLs are ignored by the store.
func (r *NewsRepo) UpsertNews(ctx context.Context, items []NewsItem) (int, error) {
	query := url.Values{}
	query.Set("on_conflict", "url")

	written := 0
	for _, part := range chunk(items, 500) {
		if err := r.client.Post(ctx, "news_items", query, part, PreferIgnoreDuplicates, nil); err != nil {
			return written, fmt.Errorf("failed to upsert news items: %w", err)
		}
		written += len(part)
	}
	return written, nil
}
