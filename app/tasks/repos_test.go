package tasks

// Recording in-memory repositories shared by the task tests.

import (
	"context"
	"fmt"
	"time"

	"github.com/sobako/babywatch/app/store"
)

type recordingSourceRepo struct {
	due      []store.Source
	dueErr   error
	zooSites []store.Source
	checked  []string
}

func (r *recordingSourceRepo) GetDueSources(_ context.Context, _ []string, limit int) ([]store.Source, error) {
	if r.dueErr != nil {
		return nil, r.dueErr
	}
	if limit < len(r.due) {
		return r.due[:limit], nil
	}
	return r.due, nil
}

func (r *recordingSourceRepo) GetZooSites(_ context.Context) ([]store.Source, error) {
	return r.zooSites, nil
}

func (r *recordingSourceRepo) MarkChecked(_ context.Context, ids []string, _ time.Time) error {
	r.checked = append(r.checked, ids...)
	return nil
}

func (r *recordingSourceRepo) GetSourceCount(_ context.Context) (int, error) {
	return len(r.due), nil
}

type recordingEventRepo struct {
	upserted  []store.BabyEvent
	upsertErr error
	processed []string
}

func (r *recordingEventRepo) UpsertEvents(_ context.Context, events []store.BabyEvent) (int, error) {
	if r.upsertErr != nil {
		return 0, r.upsertErr
	}
	r.upserted = append(r.upserted, events...)
	return len(events), nil
}

func (r *recordingEventRepo) GetUnprocessed(_ context.Context, limit int) ([]store.BabyEvent, error) {
	if limit < len(r.upserted) {
		return r.upserted[:limit], nil
	}
	return r.upserted, nil
}

func (r *recordingEventRepo) MarkProcessed(_ context.Context, ids []string, _ time.Time) error {
	r.processed = append(r.processed, ids...)
	return nil
}

func (r *recordingEventRepo) GetUnprocessedCount(_ context.Context) (int, error) {
	return len(r.upserted) - len(r.processed), nil
}

type recordingBabyRepo struct {
	babies []store.Baby
	links  []store.BabyLink
}

func (r *recordingBabyRepo) FindMatch(_ context.Context, zooID, species, from, to string) (*store.Baby, error) {
	for i := range r.babies {
		b := r.babies[i]
		if b.ZooID == nil || *b.ZooID != zooID || b.Species == nil || *b.Species != species {
			continue
		}
		if b.Birthday == nil || *b.Birthday < from || *b.Birthday > to {
			continue
		}
		return &b, nil
	}
	return nil, nil
}

func (r *recordingBabyRepo) InsertBaby(_ context.Context, baby store.Baby) (*store.Baby, error) {
	baby.ID = fmt.Sprintf("baby-%d", len(r.babies)+1)
	r.babies = append(r.babies, baby)
	return &baby, nil
}

func (r *recordingBabyRepo) UpdateThumbnail(_ context.Context, _, _ string) error {
	return nil
}

func (r *recordingBabyRepo) InsertLinks(_ context.Context, links []store.BabyLink) error {
	r.links = append(r.links, links...)
	return nil
}

func (r *recordingBabyRepo) GetBabyCount(_ context.Context) (int, error) {
	return len(r.babies), nil
}

type recordingNewsRepo struct {
	upserted []store.NewsItem
}

func (r *recordingNewsRepo) UpsertNews(_ context.Context, items []store.NewsItem) (int, error) {
	r.upserted = append(r.upserted, items...)
	return len(items), nil
}

type recordingFingerprintRepo struct {
	kinds  []string
	hashes []string
}

func (r *recordingFingerprintRepo) UpsertFingerprints(_ context.Context, kind string, hashes []string) error {
	r.kinds = append(r.kinds, kind)
	r.hashes = append(r.hashes, hashes...)
	return nil
}

type recordingZooRepo struct {
	names []string
}

func (r *recordingZooRepo) GetZoos(_ context.Context) ([]store.Zoo, error) {
	return nil, nil
}

func (r *recordingZooRepo) UpsertZoos(_ context.Context, names []string) (int, error) {
	r.names = append(r.names, names...)
	return len(names), nil
}

type recordingLogRepo struct {
	rows []store.CrawlLog
}

func (r *recordingLogRepo) InsertCrawlLog(_ context.Context, row store.CrawlLog) error {
	r.rows = append(r.rows, row)
	return nil
}
