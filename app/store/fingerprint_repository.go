package store

import (
	"context"
	"fmt"
	"net/url"
)

// FingerprintRepo handles store operations for the fingerprints table.
type FingerprintRepo struct {
	client *Client
}

func NewFingerprintRepo(client *Client) *FingerprintRepo {
	return &FingerprintRepo{client: client}
}

// UpsertFingerprints records content hashes for a kind, ignoring ones already
// seen. Fingerprints are never mutated or deleted.
func (r *FingerprintRepo) UpsertFingerprints(ctx context.Context, kind string, hashes []string) error {
	rows := make([]Fingerprint, 0, len(hashes))
	for _, hash := range hashes {
		rows = append(rows, Fingerprint{FP: hash, Kind: kind})
	}

	query := url.Values{}
	query.Set("on_conflict", "fp")

	for _, part := range chunk(rows, 1000) {
		if err := r.client.Post(ctx, "fingerprints", query, part, PreferIgnoreDuplicates, nil); err != nil {
			return fmt.Errorf("failed to upsert fingerprints: %w", err)
		}
	}
	return nil
}
