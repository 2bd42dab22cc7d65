package store

import (
	"context"
	"time"
)

type SourceRepository interface {
	GetDueSources(ctx context.Context, kinds []string, limit int) ([]Source, error)
	GetZooSites(ctx context.Context) ([]Source, error)
	MarkChecked(ctx context.Context, ids []string, at time.Time) error
	GetSourceCount(ctx context.Context) (int, error)
}

type ZooRepository interface {
	GetZoos(ctx context.Context) ([]Zoo, error)
	UpsertZoos(ctx context.Context, names []string) (int, error)
}

type FingerprintRepository interface {
	UpsertFingerprints(ctx context.Context, kind string, hashes []string) error
}

type EventRepository interface {
	UpsertEvents(ctx context.Context, events []BabyEvent) (int, error)
	GetUnprocessed(ctx context.Context, limit int) ([]BabyEvent, error)
	MarkProcessed(ctx context.Context, ids []string, at time.Time) error
	GetUnprocessedCount(ctx context.Context) (int, error)
}

type BabyRepository interface {
	FindMatch(ctx context.Context, zooID, species, birthdayFrom, birthdayTo string) (*Baby, error)
	InsertBaby(ctx context.Context, baby Baby) (*Baby, error)
	UpdateThumbnail(ctx context.Context, babyID, thumbnailURL string) error
	InsertLinks(ctx context.Context, links []BabyLink) error
	GetBabyCount(ctx context.Context) (int, error)
}

type NewsRepository interface {
	UpsertNews(ctx context.Context, items []NewsItem) (int, error)
}

type LogRepository interface {
	InsertCrawlLog(ctx context.Context, row CrawlLog) error
}
