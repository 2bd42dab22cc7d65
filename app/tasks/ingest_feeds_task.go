package tasks

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sobako/babywatch/app/feed"
	"github.com/sobako/babywatch/app/signal"
	"github.com/sobako/babywatch/app/store"
)

const maxNewsTitleRunes = 300

var feedSourceKinds = []string{"rss", "youtube", "googlenews"}

// IngestFeedsTask polls the least-recently-checked feed sources, extracts
// signals from every item (not just keyword matches, so trend data is
// preserved), and upserts candidate events plus display news rows. One broken
// source never aborts the run.
type IngestFeedsTask struct {
	Task
	sources      store.SourceRepository
	events       store.EventRepository
	news         store.NewsRepository
	fingerprints store.FingerprintRepository
	logs         store.LogRepository
	parser       *feed.Parser
	httpClient   *http.Client
	userAgent    string
	maxSources   int
}

func NewIngestFeedsTask(sources store.SourceRepository, events store.EventRepository,
	news store.NewsRepository, fingerprints store.FingerprintRepository, logs store.LogRepository,
	parser *feed.Parser, httpClient *http.Client, userAgent string, maxSources int) *IngestFeedsTask {
	return &IngestFeedsTask{
		Task:         NewTask(JobNews),
		sources:      sources,
		events:       events,
		news:         news,
		fingerprints: fingerprints,
		logs:         logs,
		parser:       parser,
		httpClient:   httpClient,
		userAgent:    userAgent,
		maxSources:   maxSources,
	}
}

func (t *IngestFeedsTask) Execute(ctx context.Context) error {
	started := time.Now().UTC()
	counters := runCounters{}

	sources, err := t.sources.GetDueSources(ctx, feedSourceKinds, t.maxSources)
	if err != nil {
		logJob(ctx, t.logs, failedLog(JobNews, started, err))
		return err
	}

	// Buffers for the batched write phase; per-run dedup is by URL,
	// last value wins
	eventRows := make(map[string]store.BabyEvent)
	newsRows := make(map[string]store.NewsItem)
	fingerprintSet := make(map[string]bool)
	processedIDs := make([]string, 0, len(sources))

	for _, source := range sources {
		// Recorded before the fetch so a permanently broken source still
		// rotates out of the front of the queue
		processedIDs = append(processedIDs, source.ID)

		data, err := fetchURL(ctx, t.httpClient, source.URL, t.userAgent)
		if err != nil {
			slog.Warn("Feed source fetch failed", "url", source.URL, "error", err)
			counters.skipped++
			continue
		}

		items, err := t.parser.Run(data)
		if err != nil {
			slog.Warn("Feed source parse failed", "url", source.URL, "error", err)
			counters.skipped++
			continue
		}

		counters.total += len(items)

		for _, item := range items {
			eventRows[item.URL] = buildEvent(item, source)
			newsRows[item.URL] = buildNewsItem(item, source)
			fingerprintSet[feed.Fingerprint(item.URL)] = true
		}
	}

	t.flush(ctx, eventRows, newsRows, fingerprintSet, &counters)

	if err := t.sources.MarkChecked(ctx, processedIDs, time.Now().UTC()); err != nil {
		slog.Error("Failed to mark sources checked", "count", len(processedIDs), "error", err)
	}

	logJob(ctx, t.logs, successLog(JobNews, started, counters))

	slog.Info("Task completed",
		"job", JobNews,
		"duration", t.GetDuration(),
		"sources", len(sources),
		"total", counters.total,
		"inserted", counters.inserted,
		"skipped", counters.skipped)

	return nil
}

// flush performs the batched writes. Each write failure is logged and the
// rest continue best-effort: lost rows are re-fetched on the next rotation.
func (t *IngestFeedsTask) flush(ctx context.Context, eventRows map[string]store.BabyEvent,
	newsRows map[string]store.NewsItem, fingerprintSet map[string]bool, counters *runCounters) {

	if len(fingerprintSet) > 0 {
		hashes := make([]string, 0, len(fingerprintSet))
		for hash := range fingerprintSet {
			hashes = append(hashes, hash)
		}
		if err := t.fingerprints.UpsertFingerprints(ctx, "news", hashes); err != nil {
			slog.Error("Fingerprint upsert failed", "count", len(hashes), "error", err)
		}
	}

	if len(eventRows) > 0 {
		events := make([]store.BabyEvent, 0, len(eventRows))
		for _, event := range eventRows {
			events = append(events, event)
		}
		written, err := t.events.UpsertEvents(ctx, events)
		if err != nil {
			slog.Error("Event upsert failed", "count", len(events), "error", err)
		}
		counters.inserted += written
	}

	if len(newsRows) > 0 {
		items := make([]store.NewsItem, 0, len(newsRows))
		for _, item := range newsRows {
			items = append(items, item)
		}
		if _, err := t.news.UpsertNews(ctx, items); err != nil {
			slog.Error("News upsert failed", "count", len(items), "error", err)
		}
	}
}

// buildEvent runs signal extraction over an item and shapes the candidate
// event row. The zoo association, when present, comes from the source.
func buildEvent(item feed.Item, source store.Source) store.BabyEvent {
	event := store.BabyEvent{
		URL:          item.URL,
		Title:        item.Title,
		PublishedAt:  item.PublishedAt,
		ThumbnailURL: item.Thumbnail,
		ZooID:        source.ZooID,
		SourceID:     source.ID,
		SourceKind:   source.Kind,
		SignalBirth:  signal.IsBirthAnnouncement(item.Title),
		SignalName:   signal.ExtractName(item.Title),
	}

	if match := signal.ExtractSpecies(item.Title); match != nil {
		event.Species = &match.Canonical
	}
	event.SignalAgeDays = signal.ExtractAgeDays(item.Title)

	return event
}

func buildNewsItem(item feed.Item, source store.Source) store.NewsItem {
	return store.NewsItem{
		Title:        truncateTitle(item.Title, maxNewsTitleRunes),
		URL:          item.URL,
		PublishedAt:  item.PublishedAt,
		ThumbnailURL: item.Thumbnail,
		SourceName:   item.SourceName,
		SourceURL:    source.URL,
		SourceID:     source.ID,
	}
}

func truncateTitle(title string, limit int) string {
	runes := []rune(title)
	if len(runes) <= limit {
		return title
	}
	return string(runes[:limit])
}
