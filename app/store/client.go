package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Prefer header values understood by the PostgREST-style store.
const (
	PreferIgnoreDuplicates = "resolution=ignore-duplicates"
	PreferMergeDuplicates  = "resolution=merge-duplicates"
	PreferRepresentation   = "return=representation"
	PreferMinimal          = "return=minimal"
)

// Client is a thin wrapper over the hosted store's REST surface. Every call
// is its own atomic request; cross-call consistency comes from natural-key
// upserts, not transactions.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Get fetches rows matching the filter query and decodes them into out.
func (c *Client) Get(ctx context.Context, table string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, table, query, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", table, err)
	}
	return nil
}

// Count returns the exact row count for the filter query without fetching
// rows, via the Content-Range header.
func (c *Client) Count(ctx context.Context, table string, query url.Values) (int, error) {
	req, err := c.newRequest(ctx, http.MethodHead, table, query, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Prefer", "count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("store HEAD %s failed: %w", table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("store HEAD %s -> %d", table, resp.StatusCode)
	}

	// Content-Range looks like "0-24/3573"
	parts := strings.SplitN(resp.Header.Get("Content-Range"), "/", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("store HEAD %s: missing Content-Range", table)
	}
	count, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("store HEAD %s: bad Content-Range %q", table, resp.Header.Get("Content-Range"))
	}
	return count, nil
}

// Post inserts or upserts rows. The prefer value selects conflict handling;
// pass out to decode a return=representation response.
func (c *Client) Post(ctx context.Context, table string, query url.Values, body any, prefer string, out any) error {
	resp, err := c.do(ctx, http.MethodPost, table, query, body, prefer)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", table, err)
		}
	}
	return nil
}

// Patch updates rows matching the filter query.
func (c *Client) Patch(ctx context.Context, table string, query url.Values, body any) error {
	resp, err := c.do(ctx, http.MethodPatch, table, query, body, PreferMinimal)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body any, prefer string) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s body: %w", table, err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, table, query, payload)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store %s %s failed: %w", method, table, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("store %s %s -> %d: %s", method, table, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, table string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + "/rest/v1/" + table
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", table, err)
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// chunk splits rows into batches so a single oversized write cannot blow the
// store's request-size limits.
func chunk[T any](rows []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}
