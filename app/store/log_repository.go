package store

import (
	"context"
	"fmt"
	"net/url"
)

// LogRepo handles store operations for the append-only crawl_logs table.
type LogRepo struct {
	client *Client
}

func NewLogRepo(client *Client) *LogRepo {
	return &LogRepo{client: client}
}

func (r *LogRepo) InsertCrawlLog(ctx context.Context, row CrawlLog) error {
	if err := r.client.Post(ctx, "crawl_logs", url.Values{}, []CrawlLog{row}, PreferMinimal, nil); err != nil {
		return fmt.Errorf("failed to insert crawl log: %w", err)
	}
	return nil
}
