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

// NewAlbumController builds the album library controller: match by
// musicbrainz_id, then upc, then sort_name + artist-set fuzzy compare.
func NewAlbumController(repo *database.Repository[*models.Album], registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Controller[*models.Album] {
	return NewController(Config[*models.Album]{
		Repo: repo, MediaType: models.MediaTypeAlbum, Registry: registry, Bus: bus, Cache: c, Logger: logger,
		Fetch: func(ctx context.Context, p provider.Provider, itemID string) (*models.Album, error) {
			return p.GetAlbum(ctx, itemID)
		},
		Match: func(ctx context.Context, repo *database.Repository[*models.Album], candidate *models.Album) (*models.Album, bool, error) {
			if candidate.MusicBrainzID != "" {
				if existing, err := repo.FindOneWhere(ctx, "musicbrainz_id = ?", candidate.MusicBrainzID); err == nil {
					return existing, true, nil
				}
			}
			if candidate.UPC != "" {
				if existing, err := repo.FindOneWhere(ctx, "upc = ?", candidate.UPC); err == nil {
					return existing, true, nil
				}
			}
			candidates, err := repo.FindAllWhere(ctx, "sort_name = ?", candidate.SortName)
			if err == nil {
				for _, cand := range candidates {
					if compareArtists(itemMappingNames(candidate.Artists), itemMappingNames(cand.Artists), true) {
						return cand, true, nil
					}
				}
			}
			return nil, false, nil
		},
		Merge: func(target, incoming *models.Album) *models.Album {
			target.Metadata = target.Metadata.Merge(incoming.Metadata, false)
			target.ProviderMappings = mergeMappings(target.ProviderMappings, incoming.ProviderMappings)
			target.Artists = unionItemMappings(target.Artists, incoming.Artists)
			if target.UPC == "" {
				target.UPC = incoming.UPC
			}
			if target.MusicBrainzID == "" {
				target.MusicBrainzID = incoming.MusicBrainzID
			}
			if target.Year == 0 {
				target.Year = incoming.Year
			}
			return target
		},
	})
}

func unionItemMappings(a, b models.ItemMappingList) models.ItemMappingList {
	seen := make(map[string]struct{}, len(a))
	out := make(models.ItemMappingList, 0, len(a)+len(b))
	for _, m := range append(append(models.ItemMappingList{}, a...), b...) {
		key := string(m.MediaType) + ":" + m.Provider + ":" + m.ItemID
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}
	return out
}

// AlbumTracks returns the canonical DB tracks that reference album_id, in
// disc/track order.
func AlbumTracks(ctx context.Context, trackRepo *database.Repository[*models.Track], albumItemID string) ([]*models.Track, error) {
	tracks, err := trackRepo.FindAllWhereOrdered(ctx, "albums LIKE ?", "%\""+albumItemID+"\"%")
	if err != nil {
		return nil, err
	}
	sortTracksByPosition(tracks, albumItemID)
	return tracks, nil
}
