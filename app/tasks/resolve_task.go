package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/sobako/babywatch/app/resolve"
	"github.com/sobako/babywatch/app/store"
)

// ResolveTask runs one entity-resolution batch and records its telemetry.
type ResolveTask struct {
	Task
	resolver *resolve.Resolver
	logs     store.LogRepository
}

func NewResolveTask(resolver *resolve.Resolver, logs store.LogRepository) *ResolveTask {
	return &ResolveTask{
		Task:     NewTask(JobResolve),
		resolver: resolver,
		logs:     logs,
	}
}

func (t *ResolveTask) Execute(ctx context.Context) error {
	started := time.Now().UTC()

	stats, err := t.resolver.Run(ctx)
	if err != nil {
		logJob(ctx, t.logs, failedLog(JobResolve, started, err))
		return err
	}

	logJob(ctx, t.logs, successLog(JobResolve, started, runCounters{
		total:    stats.Total,
		inserted: stats.Created,
		updated:  stats.Matched,
		skipped:  stats.Unlinked + stats.Failed,
	}))

	slog.Info("Task completed",
		"job", JobResolve,
		"duration", t.GetDuration(),
		"total", stats.Total,
		"matched", stats.Matched,
		"created", stats.Created,
		"unlinked", stats.Unlinked,
		"failed", stats.Failed)

	return nil
}
