package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const fetchTimeout = 30 * time.Second

// Outbound response bodies are read through a cap; a misbehaving feed must
// not exhaust memory.
const maxFetchBytes = 10 << 20

func fetchURL(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s -> %d %s", url, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// fetchWithRetry retries once after a rejection status, for APIs that
// throttle by user agent or rate.
func fetchWithRetry(ctx context.Context, client *http.Client, url, userAgent string) ([]byte, error) {
	data, err := fetchURL(ctx, client, url, userAgent)
	if err == nil {
		return data, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(2 * time.Second):
	}

	return fetchURL(ctx, client, url, userAgent)
}
