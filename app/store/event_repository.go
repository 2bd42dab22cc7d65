package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// EventRepo handles store operations for the baby_events table. URL is the
// natural key: every write is an upsert on it, so re-fetching a source never
// produces duplicate rows.
type EventRepo struct {
	client *Client
}

func NewEventRepo(client *Client) *EventRepo {
	return &EventRepo{client: client}
}

// UpsertEvents writes candidate events in batches, conflict target URL.
// Absent columns (notably processed_at) are untouched on conflict, so an
// already-processed event re-seen in a feed keeps its processed stamp.
func (r *EventRepo) UpsertEvents(ctx context.Context, events []BabyEvent) (int, error) {
	query := url.Values{}
	query.Set("on_conflict", "url")

	written := 0
	for _, part := range chunk(events, 500) {
		if err := r.client.Post(ctx, "baby_events", query, part, PreferMergeDuplicates, nil); err != nil {
			return written, fmt.Errorf("failed to upsert events: %w", err)
		}
		written += len(part)
	}
	return written, nil
}

// GetUnprocessed returns events the resolver has not acted on yet, newest
// signals first.
func (r *EventRepo) GetUnprocessed(ctx context.Context, limit int) ([]BabyEvent, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("processed_at", "is.null")
	query.Set("order", "published_at.desc.nullslast")
	query.Set("limit", strconv.Itoa(limit))

	var events []BabyEvent
	if err := r.client.Get(ctx, "baby_events", query, &events); err != nil {
		return nil, fmt.Errorf("failed to get unprocessed events: %w", err)
	}
	return events, nil
}

// MarkProcessed stamps processed_at for the given events in bounded chunks.
// The transition is one-way; nothing in the pipeline ever clears it.
func (r *EventRepo) MarkProcessed(ctx context.Context, ids []string, at time.Time) error {
	body := map[string]string{"processed_at": at.UTC().Format(time.RFC3339)}

	for _, part := range chunk(ids, 50) {
		query := url.Values{}
		query.Set("id", "in.("+strings.Join(part, ",")+")")
		query.Set("processed_at", "is.null")

		if err := r.client.Patch(ctx, "baby_events", query, body); err != nil {
			return fmt.Errorf("failed to mark events processed: %w", err)
		}
	}
	return nil
}

func (r *EventRepo) GetUnprocessedCount(ctx context.Context) (int, error) {
	query := url.Values{}
	query.Set("processed_at", "is.null")

	count, err := r.client.Count(ctx, "baby_events", query)
	if err != nil {
		return 0, fmt.Errorf("failed to count unprocessed events: %w", err)
	}
	return count, nil
}
