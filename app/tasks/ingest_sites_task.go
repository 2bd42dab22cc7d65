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

// Detail pages fetched per listing page, and how many leading links to take
// when the keyword prefilter matches nothing (some sites use image-only or
// otherwise unusual link text).
const (
	maxDetailPages   = 3
	fallbackLinkTake = 3
)

// IngestSitesTask crawls site-kind sources: fetch the listing page, keep
// same-domain links whose anchor text looks like a birth announcement, follow
// a bounded number of them, and turn each detail page's Open Graph data into
// a candidate event.
type IngestSitesTask struct {
	Task
	sources       store.SourceRepository
	events        store.EventRepository
	fingerprints  store.FingerprintRepository
	logs          store.LogRepository
	articleParser *feed.ArticleParser
	httpClient    *http.Client
	userAgent     string
	maxSources    int
}

func NewIngestSitesTask(sources store.SourceRepository, events store.EventRepository,
	fingerprints store.FingerprintRepository, logs store.LogRepository,
	articleParser *feed.ArticleParser, httpClient *http.Client, userAgent string, maxSources int) *IngestSitesTask {
	return &IngestSitesTask{
		Task:          NewTask(JobSites),
		sources:       sources,
		events:        events,
		fingerprints:  fingerprints,
		logs:          logs,
		articleParser: articleParser,
		httpClient:    httpClient,
		userAgent:     userAgent,
		maxSources:    maxSources,
	}
}

func (t *IngestSitesTask) Execute(ctx context.Context) error {
	started := time.Now().UTC()
	counters := runCounters{}

	sources, err := t.sources.GetDueSources(ctx, []string{"site"}, t.maxSources)
	if err != nil {
		logJob(ctx, t.logs, failedLog(JobSites, started, err))
		return err
	}

	eventRows := make(map[string]store.BabyEvent)
	fingerprintSet := make(map[string]bool)
	processedIDs := make([]string, 0, len(sources))

	for _, source := range sources {
		processedIDs = append(processedIDs, source.ID)

		items, err := t.crawlSite(ctx, source)
		if err != nil {
			slog.Warn("Site source failed", "url", source.URL, "error", err)
			counters.skipped++
			continue
		}

		counters.total += len(items)

		for _, item := range items {
			eventRows[item.URL] = buildEvent(item, source)
			fingerprintSet[feed.Fingerprint(item.URL)] = true
		}
	}

	t.flush(ctx, eventRows, fingerprintSet, &counters)

	if err := t.sources.MarkChecked(ctx, processedIDs, time.Now().UTC()); err != nil {
		slog.Error("Failed to mark sources checked", "count", len(processedIDs), "error", err)
	}

	logJob(ctx, t.logs, successLog(JobSites, started, counters))

	slog.Info("Task completed",
		"job", JobSites,
		"duration", t.GetDuration(),
		"sources", len(sources),
		"total", counters.total,
		"inserted", counters.inserted,
		"skipped", counters.skipped)

	return nil
}

// crawlSite fetches one listing page and returns items for the detail pages
// it decided to follow.
func (t *IngestSitesTask) crawlSite(ctx context.Context, source store.Source) ([]feed.Item, error) {
	data, err := fetchURL(ctx, t.httpClient, source.URL, t.userAgent)
	if err != nil {
		return nil, err
	}

	links, err := feed.ExtractLinks(data, source.URL)
	if err != nil {
		return nil, err
	}

	selected := selectLinks(links)

	var items []feed.Item
	for _, link := range selected {
		page, err := fetchURL(ctx, t.httpClient, link.URL, t.userAgent)
		if err != nil {
			slog.Debug("Detail page fetch failed", "url", link.URL, "error", err)
			continue
		}

		item, err := t.articleParser.Run(page, link.URL)
		if err != nil {
			slog.Debug("Detail page parse failed", "url", link.URL, "error", err)
			continue
		}

		items = append(items, item)
	}

	return items, nil
}

// selectLinks prefilters to anchors whose text matches the birth keyword set,
// falling back to the first few links when nothing matches.
func selectLinks(links []feed.Link) []feed.Link {
	var matched []feed.Link
	for _, link := range links {
		if signal.IsBirthAnnouncement(link.Text) {
			matched = append(matched, link)
		}
	}

	if len(matched) == 0 {
		matched = links
		if len(matched) > fallbackLinkTake {
			matched = matched[:fallbackLinkTake]
		}
	}

	if len(matched) > maxDetailPages {
		matched = matched[:maxDetailPages]
	}
	return matched
}

func (t *IngestSitesTask) flush(ctx context.Context, eventRows map[string]store.BabyEvent,
	fingerprintSet map[string]bool, counters *runCounters) {

	if len(fingerprintSet) > 0 {
		hashes := make([]string, 0, len(fingerprintSet))
		for hash := range fingerprintSet {
			hashes = append(hashes, hash)
		}
		if err := t.fingerprints.UpsertFingerprints(ctx, "baby", hashes); err != nil {
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
}
