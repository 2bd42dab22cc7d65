package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/sobako/babywatch/app/cfg"
	"github.com/sobako/babywatch/app/signal"
	"github.com/sobako/babywatch/app/store"
)

// Canonical animals match an event when their birthday falls within this many
// days of the inferred one.
const matchWindowDays = 10

const maxBabyNameRunes = 100

const dateLayout = "2006-01-02"

// Resolver turns unprocessed candidate events into links against canonical
// animals, creating new animals when enough evidence accumulates. Each Run
// handles one bounded batch; every event in the batch is marked processed
// exactly once, whatever the outcome.
type Resolver struct {
	sources store.SourceRepository
	zoos    store.ZooRepository
	events  store.EventRepository
	babies  store.BabyRepository

	batchSize int
	now       func() time.Time
}

// Stats summarizes one resolution run.
type Stats struct {
	Total    int
	Matched  int
	Created  int
	Unlinked int
	Failed   int
}

func NewResolver(sources store.SourceRepository, zoos store.ZooRepository,
	events store.EventRepository, babies store.BabyRepository, batchSize int) *Resolver {
	return &Resolver{
		sources:   sources,
		zoos:      zoos,
		events:    events,
		babies:    babies,
		batchSize: batchSize,
		// Date anchoring (age arithmetic, year-less dates) happens in the
		// configured timezone, not the host's
		now: func() time.Time { return time.Now().In(cfg.Location()) },
	}
}

// Run processes one batch. A batch-setup failure (zoo index or event fetch)
// aborts the whole run with nothing marked processed; per-event failures are
// contained and the event is marked processed anyway, so the batch always
// drains.
func (r *Resolver) Run(ctx context.Context) (*Stats, error) {
	zoos, err := r.zoos.GetZoos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load zoo index: %w", err)
	}

	siteSources, err := r.sources.GetZooSites(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load zoo sites: %w", err)
	}

	events, err := r.events.GetUnprocessed(ctx, r.batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load unprocessed events: %w", err)
	}

	index := BuildZooIndex(zoos, siteSources)
	stats := &Stats{Total: len(events)}
	ref := r.now()

	var links []store.BabyLink
	processedIDs := make([]string, 0, len(events))

	for _, event := range events {
		processedIDs = append(processedIDs, event.ID)

		if err := r.resolveEvent(ctx, event, index, ref, &links, stats); err != nil {
			// Do not retry automatically: a permanently malformed event
			// would stall the batch forever
			slog.Warn("Event resolution failed", "event_id", event.ID, "url", event.URL, "error", err)
			stats.Failed++
		}
	}

	if len(links) > 0 {
		if err := r.babies.InsertLinks(ctx, links); err != nil {
			slog.Error("Failed to flush baby links", "count", len(links), "error", err)
		}
	}

	if len(processedIDs) > 0 {
		if err := r.events.MarkProcessed(ctx, processedIDs, ref); err != nil {
			return stats, fmt.Errorf("failed to mark events processed: %w", err)
		}
	}

	return stats, nil
}

func (r *Resolver) resolveEvent(ctx context.Context, event store.BabyEvent, index *ZooIndex,
	ref time.Time, links *[]store.BabyLink, stats *Stats) error {

	birthday := signal.InferBirthday(event.Title, event.PublishedAt, ref)

	workingZoo := event.ZooID
	if workingZoo == nil {
		workingZoo = index.Guess(event.Title, event.URL)
	}

	if workingZoo != nil && event.Species != nil && birthday != "" {
		match, err := r.findMatch(ctx, *workingZoo, *event.Species, birthday)
		if err != nil {
			return err
		}
		if match != nil {
			*links = append(*links, store.BabyLink{EventID: event.ID, BabyID: match.ID})
			r.backfillThumbnail(ctx, match, event)
			stats.Matched++
			return nil
		}
	}

	_, titleDate := signal.ParseDateInTitle(event.Title, ref)
	score := Score(Evidence{
		SourceKind:        event.SourceKind,
		BirthAnnouncement: event.SignalBirth,
		ZooKnown:          workingZoo != nil,
		DateEvidence:      event.SignalAgeDays != nil || titleDate,
	})

	if !ShouldCreate(score) {
		// Below threshold: the event stays as evidence only
		stats.Unlinked++
		return nil
	}

	baby := store.Baby{
		Name:         babyName(event),
		Species:      event.Species,
		ZooID:        workingZoo,
		ThumbnailURL: event.ThumbnailURL,
	}
	if birthday != "" {
		baby.Birthday = &birthday
	}

	created, err := r.babies.InsertBaby(ctx, baby)
	if err != nil {
		return err
	}

	*links = append(*links, store.BabyLink{EventID: event.ID, BabyID: created.ID})
	stats.Created++
	return nil
}

func (r *Resolver) findMatch(ctx context.Context, zooID, species, birthday string) (*store.Baby, error) {
	day, err := time.Parse(dateLayout, birthday)
	if err != nil {
		return nil, fmt.Errorf("bad inferred birthday %q: %w", birthday, err)
	}

	from := day.AddDate(0, 0, -matchWindowDays).Format(dateLayout)
	to := day.AddDate(0, 0, matchWindowDays).Format(dateLayout)

	return r.babies.FindMatch(ctx, zooID, species, from, to)
}

// backfillThumbnail is the only mutation a later event may apply to an
// existing animal; name, species and birthday are settled at creation.
func (r *Resolver) backfillThumbnail(ctx context.Context, match *store.Baby, event store.BabyEvent) {
	if match.ThumbnailURL != "" || event.ThumbnailURL == "" {
		return
	}
	if err := r.babies.UpdateThumbnail(ctx, match.ID, event.ThumbnailURL); err != nil {
		slog.Warn("Thumbnail backfill failed", "baby_id", match.ID, "error", err)
	}
}

func babyName(event store.BabyEvent) string {
	if event.SignalName != "" {
		return truncateRunes(event.SignalName, maxBabyNameRunes)
	}
	if event.Species != nil {
		return fmt.Sprintf("赤ちゃん（%s）", *event.Species)
	}
	return "赤ちゃん"
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
