package store

import (
	"context"
	"fmt"
	"net/url"
)

// BabyRepo handles store operations for the babies and baby_links tables.
type BabyRepo struct {
	client *Client
}

func NewBabyRepo(client *Client) *BabyRepo {
	return &BabyRepo{client: client}
}

// FindMatch looks for an existing canonical animal at the same zoo with the
// same species whose birthday falls inside [birthdayFrom, birthdayTo].
// Returns nil when nothing matches.
func (r *BabyRepo) FindMatch(ctx context.Context, zooID, species, birthdayFrom, birthdayTo string) (*Baby, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("zoo_id", "eq."+zooID)
	query.Set("species", "eq."+species)
	query.Add("and", "(birthday.gte."+birthdayFrom+",birthday.lte."+birthdayTo+")")
	query.Set("limit", "1")

	var babies []Baby
	if err := r.client.Get(ctx, "babies", query, &babies); err != nil {
		return nil, fmt.Errorf("failed to find matching baby: %w", err)
	}
	if len(babies) == 0 {
		return nil, nil
	}
	return &babies[0], nil
}

// InsertBaby creates a canonical animal and returns it with its assigned id.
func (r *BabyRepo) InsertBaby(ctx context.Context, baby Baby) (*Baby, error) {
	var created []Baby
	if err := r.client.Post(ctx, "babies", url.Values{}, []Baby{baby}, PreferRepresentation, &created); err != nil {
		return nil, fmt.Errorf("failed to insert baby: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("insert baby returned no representation")
	}
	return &created[0], nil
}

// UpdateThumbnail backfills a missing thumbnail; core fields of an existing
// animal are never mutated from later events.
func (r *BabyRepo) UpdateThumbnail(ctx context.Context, babyID, thumbnailURL string) error {
	query := url.Values{}
	query.Set("id", "eq."+babyID)

	body := map[string]string{"thumbnail_url": thumbnailURL}
	if err := r.client.Patch(ctx, "babies", query, body); err != nil {
		return fmt.Errorf("failed to update baby thumbnail: %w", err)
	}
	return nil
}

// InsertLinks writes event-to-animal links. Duplicate links (from a retried
// run) are ignored.
func (r *BabyRepo) InsertLinks(ctx context.Context, links []BabyLink) error {
	query := url.Values{}
	query.Set("on_conflict", "event_id")

	for _, part := range chunk(links, 500) {
		if err := r.client.Post(ctx, "baby_links", query, part, PreferIgnoreDuplicates, nil); err != nil {
			return fmt.Errorf("failed to insert baby links: %w", err)
		}
	}
	return nil
}

func (r *BabyRepo) GetBabyCount(ctx context.Context) (int, error) {
	count, err := r.client.Count(ctx, "babies", url.Values{})
	if err != nil {
		return 0, fmt.Errorf("failed to count babies: %w", err)
	}
	return count, nil
}
