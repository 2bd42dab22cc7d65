package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/sobako/babywatch/app/store"
)

type runCounters struct {
	total    int
	inserted int
	updated  int
	skipped  int
}

func successLog(job string, started time.Time, counters runCounters) store.CrawlLog {
	return store.CrawlLog{
		Job:        job,
		OK:         true,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Total:      counters.total,
		Inserted:   counters.inserted,
		Updated:    counters.updated,
		Skipped:    counters.skipped,
	}
}

func failedLog(job string, started time.Time, err error) store.CrawlLog {
	return store.CrawlLog{
		Job:        job,
		OK:         false,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Error:      err.Error(),
	}
}

// logJob writes run telemetry. Observability must never crash the pipeline,
// so failures only warn.
func logJob(ctx context.Context, logs store.LogRepository, row store.CrawlLog) {
	if err := logs.InsertCrawlLog(ctx, row); err != nil {
		slog.Warn("Crawl log write failed", "job", row.Job, "error", err)
	}
}
