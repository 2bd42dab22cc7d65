package store

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SourceRepo handles store operations for the sources table.
type SourceRepo struct {
	client *Client
}

func NewSourceRepo(client *Client) *SourceRepo {
	return &SourceRepo{client: client}
}

// GetDueSources returns enabled sources of the given kinds, least recently
// checked first, capped at limit. Never-checked sources sort first so new
// registrations get picked up promptly.
func (r *SourceRepo) GetDueSources(ctx context.Context, kinds []string, limit int) ([]Source, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("enabled", "eq.true")
	query.Set("kind", "in.("+strings.Join(kinds, ",")+")")
	query.Set("order", "last_checked.asc.nullsfirst")
	query.Set("limit", strconv.Itoa(limit))

	var sources []Source
	if err := r.client.Get(ctx, "sources", query, &sources); err != nil {
		return nil, fmt.Errorf("failed to get due sources: %w", err)
	}
	return sources, nil
}

// GetZooSites returns site-kind sources with a known zoo association, used to
// seed the resolver's hostname index.
func (r *SourceRepo) GetZooSites(ctx context.Context) ([]Source, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("kind", "eq.site")
	query.Set("zoo_id", "not.is.null")

	var sources []Source
	if err := r.client.Get(ctx, "sources", query, &sources); err != nil {
		return nil, fmt.Errorf("failed to get zoo sites: %w", err)
	}
	return sources, nil
}

// MarkChecked advances last_checked for exactly the given sources in one
// batched call.
func (r *SourceRepo) MarkChecked(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := url.Values{}
	query.Set("id", "in.("+strings.Join(ids, ",")+")")

	body := map[string]string{"last_checked": at.UTC().Format(time.RFC3339)}
	if err := r.client.Patch(ctx, "sources", query, body); err != nil {
		return fmt.Errorf("failed to mark sources checked: %w", err)
	}
	return nil
}

func (r *SourceRepo) GetSourceCount(ctx context.Context) (int, error) {
	count, err := r.client.Count(ctx, "sources", url.Values{})
	if err != nil {
		return 0, fmt.Errorf("failed to count sources: %w", err)
	}
	return count, nil
}
