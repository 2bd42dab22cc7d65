package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"
)

func TestClientRequestHeaders(t *testing.T) {
	var gotAPIKey, gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key")
	var out []Source
	if err := client.Get(context.Background(), "sources", url.Values{}, &out); err != nil {
		t.Fatal(err)
	}

	if gotAPIKey != "secret-key" {
		t.Errorf("Expected apikey header 'secret-key', got '%s'", gotAPIKey)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Expected bearer auth, got '%s'", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Expected JSON accept header, got '%s'", gotAccept)
	}
}

func TestClientGetPath(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`[{"id":"s1","url":"https://zoo.example.jp/feed","kind":"rss","enabled":true}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "key")
	query := url.Values{}
	query.Set("enabled", "eq.true")

	var out []Source
	if err := client.Get(context.Background(), "sources", query, &out); err != nil {
		t.Fatal(err)
	}

	if gotPath != "/rest/v1/sources" {
		t.Errorf("Expected path '/rest/v1/sources', got '%s'", gotPath)
	}
	if !strings.Contains(gotQuery, "enabled=eq.true") {
		t.Errorf("Expected filter in query, got '%s'", gotQuery)
	}
	if len(out) != 1 || out[0].ID != "s1" {
		t.Errorf("Expected decoded source, got %v", out)
	}
}

func TestClientPostPreferHeader(t *testing.T) {
	var gotPrefer, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	rows := []Fingerprint{{FP: "abc", Kind: "news"}}
	query := url.Values{}
	query.Set("on_conflict", "fp")

	if err := client.Post(context.Background(), "fingerprints", query, rows, PreferIgnoreDuplicates, nil); err != nil {
		t.Fatal(err)
	}

	if gotPrefer != "resolution=ignore-duplicates" {
		t.Errorf("Expected ignore-duplicates prefer, got '%s'", gotPrefer)
	}
	if gotContentType != "application/json" {
		t.Errorf("Expected JSON content type, got '%s'", gotContentType)
	}

	var decoded []Fingerprint
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 1 || decoded[0].FP != "abc" {
		t.Errorf("Expected encoded fingerprint row, got %v", decoded)
	}
}

func TestClientPostDecodesRepresentation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`[{"id":"baby-1","name":"さくら"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	var out []Baby
	err := client.Post(context.Background(), "babies", url.Values{}, []Baby{{Name: "さくら"}}, PreferRepresentation, &out)
	if err != nil {
		t.Fatal(err)
	}

	if len(out) != 1 || out[0].ID != "baby-1" {
		t.Errorf("Expected returned representation, got %v", out)
	}
}

func TestClientPatch(t *testing.T) {
	var gotMethod, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	query := url.Values{}
	query.Set("id", "in.(a,b)")

	body := map[string]string{"last_checked": "2025-06-01T00:00:00Z"}
	if err := client.Patch(context.Background(), "sources", query, body); err != nil {
		t.Fatal(err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("Expected PATCH, got '%s'", gotMethod)
	}
	if !strings.Contains(gotQuery, "in.%28a%2Cb%29") {
		t.Errorf("Expected id filter in query, got '%s'", gotQuery)
	}
}

func TestClientCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD, got '%s'", r.Method)
		}
		if r.Header.Get("Prefer") != "count=exact" {
			t.Errorf("Expected count=exact prefer, got '%s'", r.Header.Get("Prefer"))
		}
		w.Header().Set("Content-Range", "0-24/3573")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	count, err := client.Count(context.Background(), "sources", url.Values{})
	if err != nil {
		t.Fatal(err)
	}
	if count != 3573 {
		t.Errorf("Expected count 3573, got %d", count)
	}
}

func TestClientErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"duplicate key value"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	err := client.Post(context.Background(), "babies", url.Values{}, []Baby{{Name: "x"}}, PreferMinimal, nil)
	if err == nil {
		t.Fatal("Expected error for 409 response")
	}
	if !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "duplicate key value") {
		t.Errorf("Expected status and body detail in error, got '%s'", err.Error())
	}
}

func TestEventRepoUpsertEvents(t *testing.T) {
	var gotQuery url.Values
	var gotPrefer string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotPrefer = r.Header.Get("Prefer")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	repo := NewEventRepo(NewClient(server.URL, "key"))
	published := time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC)
	written, err := repo.UpsertEvents(context.Background(), []BabyEvent{{
		URL:         "https://zoo.example.jp/news/1",
		Title:       "赤ちゃん誕生",
		PublishedAt: &published,
		SignalBirth: true,
	}})
	if err != nil {
		t.Fatal(err)
	}

	if written != 1 {
		t.Errorf("Expected 1 written, got %d", written)
	}
	if gotQuery.Get("on_conflict") != "url" {
		t.Errorf("Expected conflict target url, got '%s'", gotQuery.Get("on_conflict"))
	}
	if gotPrefer != "resolution=merge-duplicates" {
		t.Errorf("Expected merge-duplicates, got '%s'", gotPrefer)
	}
	// processed_at must never appear in an ingestion upsert, or a merge
	// would clear the resolver's stamp.
	if strings.Contains(string(gotBody), "processed_at") {
		t.Errorf("Expected processed_at omitted from upsert body, got %s", gotBody)
	}
}

// batchKeys decodes a bulk-write body and returns the sorted key set of
// each row.
func batchKeys(t *testing.T, body []byte) [][]string {
	t.Helper()
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		t.Fatalf("Failed to decode batch body: %v", err)
	}
	keys := make([][]string, len(rows))
	for i, row := range rows {
		for k := range row {
			keys[i] = append(keys[i], k)
		}
		sort.Strings(keys[i])
	}
	return keys
}

func TestEventRepoUpsertEventsUniformKeys(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	repo := NewEventRepo(NewClient(server.URL, "key"))
	published := time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC)
	species := "ジャイアントパンダ"
	full := BabyEvent{
		URL:         "https://zoo.example.jp/news/1",
		Title:       "赤ちゃん「さくら」誕生",
		PublishedAt: &published,
		Species:     &species,
		SignalBirth: true,
		SignalName:  "さくら",
	}
	bare := BabyEvent{
		URL:   "https://zoo.example.jp/news/2",
		Title: "赤ちゃん誕生",
	}
	if _, err := repo.UpsertEvents(context.Background(), []BabyEvent{full, bare}); err != nil {
		t.Fatal(err)
	}

	// The store rejects batches whose rows carry different object keys, so
	// a row without species or a name must still list those columns.
	keys := batchKeys(t, gotBody)
	if len(keys) != 2 {
		t.Fatalf("Expected 2 rows in batch, got %d", len(keys))
	}
	if !reflect.DeepEqual(keys[0], keys[1]) {
		t.Errorf("Expected identical key sets, got %v vs %v", keys[0], keys[1])
	}
	for _, k := range keys[0] {
		if k == "id" || k == "processed_at" {
			t.Errorf("Expected '%s' absent from every ingestion row", k)
		}
	}
}

func TestNewsRepoUpsertNewsUniformKeys(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	repo := NewNewsRepo(NewClient(server.URL, "key"))
	published := time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC)
	items := []NewsItem{
		{Title: "開園のお知らせ", URL: "https://zoo.example.jp/news/3", PublishedAt: &published, ThumbnailURL: "https://zoo.example.jp/a.jpg"},
		{Title: "休園日", URL: "https://zoo.example.jp/news/4"},
	}
	if _, err := repo.UpsertNews(context.Background(), items); err != nil {
		t.Fatal(err)
	}

	keys := batchKeys(t, gotBody)
	if len(keys) != 2 {
		t.Fatalf("Expected 2 rows in batch, got %d", len(keys))
	}
	if !reflect.DeepEqual(keys[0], keys[1]) {
		t.Errorf("Expected identical key sets, got %v vs %v", keys[0], keys[1])
	}
}

func TestEventRepoMarkProcessedGuard(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	repo := NewEventRepo(NewClient(server.URL, "key"))
	at := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	if err := repo.MarkProcessed(context.Background(), []string{"ev-1", "ev-2"}, at); err != nil {
		t.Fatal(err)
	}

	if gotQuery.Get("id") != "in.(ev-1,ev-2)" {
		t.Errorf("Expected id filter, got '%s'", gotQuery.Get("id"))
	}
	if gotQuery.Get("processed_at") != "is.null" {
		t.Errorf("Expected null guard to keep the transition one-way, got '%s'", gotQuery.Get("processed_at"))
	}
}

func TestSourceRepoGetDueSources(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	repo := NewSourceRepo(NewClient(server.URL, "key"))
	if _, err := repo.GetDueSources(context.Background(), []string{"rss", "youtube"}, 25); err != nil {
		t.Fatal(err)
	}

	if gotQuery.Get("kind") != "in.(rss,youtube)" {
		t.Errorf("Expected kind filter, got '%s'", gotQuery.Get("kind"))
	}
	if gotQuery.Get("enabled") != "eq.true" {
		t.Errorf("Expected enabled filter, got '%s'", gotQuery.Get("enabled"))
	}
	if gotQuery.Get("order") != "last_checked.asc.nullsfirst" {
		t.Errorf("Expected rotation order, got '%s'", gotQuery.Get("order"))
	}
	if gotQuery.Get("limit") != "25" {
		t.Errorf("Expected limit 25, got '%s'", gotQuery.Get("limit"))
	}
}

func TestChunk(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}

	parts := chunk(rows, 2)
	if len(parts) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(parts))
	}
	if len(parts[0]) != 2 || len(parts[2]) != 1 {
		t.Errorf("Expected sizes 2,2,1, got %v", parts)
	}

	if parts = chunk([]int{}, 2); parts != nil {
		t.Errorf("Expected nil for empty input, got %v", parts)
	}
}
