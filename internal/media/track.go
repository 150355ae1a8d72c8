package media

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"harmonia/internal/cache"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// NewTrackController builds the track library controller: match by
// musicbrainz_id, then isrc intersection, then sort_name + compareTrack
// fuzzy pass.
func NewTrackController(repo *database.Repository[*models.Track], registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Controller[*models.Track] {
	return NewController(Config[*models.Track]{
		Repo: repo, MediaType: models.MediaTypeTrack, Registry: registry, Bus: bus, Cache: c, Logger: logger,
		Fetch: func(ctx context.Context, p provider.Provider, itemID string) (*models.Track, error) {
			return p.GetTrack(ctx, itemID)
		},
		Match: matchTrack,
		Merge: mergeTrack,
	})
}

func matchTrack(ctx context.Context, repo *database.Repository[*models.Track], candidate *models.Track) (*models.Track, bool, error) {
	if candidate.MusicBrainzID != "" {
		if existing, err := repo.FindOneWhere(ctx, "musicbrainz_id = ?", candidate.MusicBrainzID); err == nil {
			return existing, true, nil
		}
	}
	for isrc := range candidate.ISRCs {
		if existing, err := repo.FindOneWhere(ctx, "isrc LIKE ?", "%\""+isrc+"\"%"); err == nil {
			return existing, true, nil
		}
	}
	candidates, err := repo.FindAllWhere(ctx, "sort_name = ?", candidate.SortName)
	if err == nil {
		for _, cand := range candidates {
			if compareTrack(trackInput(candidate), trackInput(cand)) {
				return cand, true, nil
			}
		}
	}
	return nil, false, nil
}

func trackInput(t *models.Track) trackCompareInput {
	in := trackCompareInput{
		Name:            t.Name,
		DurationSeconds: t.DurationSeconds,
		Artists:         itemMappingNames(t.Artists),
	}
	if len(t.Albums) > 0 {
		in.AlbumName = t.Albums[0].AlbumItemID
	}
	return in
}

func mergeTrack(target, incoming *models.Track) *models.Track {
	target.Metadata = target.Metadata.Merge(incoming.Metadata, false)
	target.ProviderMappings = mergeMappings(target.ProviderMappings, incoming.ProviderMappings)
	target.Artists = unionItemMappings(target.Artists, incoming.Artists)
	target.ISRCs = target.ISRCs.Union(incoming.ISRCs)
	target.Albums = unionAlbumMappings(target.Albums, incoming.Albums)
	if target.MusicBrainzID == "" {
		target.MusicBrainzID = incoming.MusicBrainzID
	}
	if target.DurationSeconds == 0 {
		target.DurationSeconds = incoming.DurationSeconds
	}
	if target.Version == "" {
		target.Version = incoming.Version
	}
	return target
}

// unionAlbumMappings appends incoming album appearances, unique by
// (album_item_id, disc, track); position data lives on the mapping, never
// on the album.
func unionAlbumMappings(target, incoming []models.TrackAlbumMapping) []models.TrackAlbumMapping {
	seen := make(map[string]struct{}, len(target))
	key := func(m models.TrackAlbumMapping) string {
		return fmt.Sprintf("%s:%d:%d", m.AlbumItemID, m.DiscNumber, m.TrackNumber)
	}
	for _, m := range target {
		seen[key(m)] = struct{}{}
	}
	for _, m := range incoming {
		if _, ok := seen[key(m)]; ok {
			continue
		}
		seen[key(m)] = struct{}{}
		target = append(target, m)
	}
	return target
}

// PreviewURL returns the short-preview URL for a track: the provider's own
// preview if one is recorded on a mapping, else the internal preview
// endpoint.
func PreviewURL(t *models.Track, internalBase string) string {
	for _, m := range t.ProviderMappings {
		if m.URL != "" {
			return m.URL
		}
	}
	return fmt.Sprintf("%s/preview?provider=%s&item_id=%s", internalBase, t.Provider, t.ItemID)
}
