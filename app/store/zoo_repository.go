package store

import (
	"context"
	"fmt"
	"net/url"
)

// ZooRepo handles store operations for the zoos table.
type ZooRepo struct {
	client *Client
}

func NewZooRepo(client *Client) *ZooRepo {
	return &ZooRepo{client: client}
}

func (r *ZooRepo) GetZoos(ctx context.Context) ([]Zoo, error) {
	query := url.Values{}
	query.Set("select", "*")

	var zoos []Zoo
	if err := r.client.Get(ctx, "zoos", query, &zoos); err != nil {
		return nil, fmt.Errorf("failed to get zoos: %w", err)
	}
	return zoos, nil
}

// UpsertZoos inserts new zoo names, ignoring ones already present.
func (r *ZooRepo) UpsertZoos(ctx context.Context, names []string) (int, error) {
	rows := make([]map[string]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, map[string]string{"name": name})
	}

	query := url.Values{}
	query.Set("on_conflict", "name")

	inserted := 0
	for _, part := range chunk(rows, 500) {
		if err := r.client.Post(ctx, "zoos", query, part, PreferIgnoreDuplicates, nil); err != nil {
			return inserted, fmt.Errorf("failed to upsert zoos: %w", err)
		}
		inserted += len(part)
	}
	return inserted, nil
}
