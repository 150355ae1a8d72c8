package media

import (
	"context"

	"go.uber.org/zap"

	"harmonia/internal/cache"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// NewArtistController builds the artist library controller, matching by
// musicbrainz_id first, then exact sort_name equality.
func NewArtistController(repo *database.Repository[*models.Artist], registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Controller[*models.Artist] {
	return NewController(Config[*models.Artist]{
		Repo: repo, MediaType: models.MediaTypeArtist, Registry: registry, Bus: bus, Cache: c, Logger: logger,
		Fetch: func(ctx context.Context, p provider.Provider, itemID string) (*models.Artist, error) {
			return p.GetArtist(ctx, itemID)
		},
		Match: func(ctx context.Context, repo *database.Repository[*models.Artist], candidate *models.Artist) (*models.Artist, bool, error) {
			if candidate.MusicBrainzID != "" {
				if existing, err := findArtistByMusicBrainzID(ctx, repo, candidate.MusicBrainzID); err == nil {
					return existing, true, nil
				}
			}
			if existing, err := findArtistBySortName(ctx, repo, candidate.SortName); err == nil {
				return existing, true, nil
			}
			return nil, false, nil
		},
		Merge: func(target, incoming *models.Artist) *models.Artist {
			target.Metadata = target.Metadata.Merge(incoming.Metadata, false)
			target.ProviderMappings = mergeMappings(target.ProviderMappings, incoming.ProviderMappings)
			if target.MusicBrainzID == "" {
				target.MusicBrainzID = incoming.MusicBrainzID
			}
			return target
		},
	})
}

func mergeMappings(target, incoming models.ProviderMappingSet) models.ProviderMappingSet {
	for _, m := range incoming {
		target.Add(m)
	}
	return target
}

func findArtistByMusicBrainzID(ctx context.Context, repo *database.Repository[*models.Artist], mbid string) (*models.Artist, error) {
	// Looked up through the generic Repository's FindOneWhere.
	return repo.FindOneWhere(ctx, "musicbrainz_id = ?", mbid)
}

func findArtistBySortName(ctx context.Context, repo *database.Repository[*models.Artist], sortName string) (*models.Artist, error) {
	return repo.FindOneWhere(ctx, "sort_name = ?", sortName)
}
