package media

import (
	"context"

	"go.uber.org/zap"

	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// TrackVersions fans a "{artist} - {name}" search across every registered
// provider that declares SEARCH, accepting results that loose-match on name with an intersecting
// artist set, de-duplicated and excluding the base track's own mappings.
func (l *Library) TrackVersions(ctx context.Context, track *models.Track, limit int) ([]*models.Track, error) {
	artist := ""
	if len(track.Artists) > 0 {
		artist = track.Artists[0].Name
	}
	query := versionQuery(artist, track.Name, "")

	own := make(map[string]struct{}, len(track.ProviderMappings))
	for _, m := range track.ProviderMappings {
		own[m.ProviderInstance+":"+m.ItemID] = struct{}{}
	}

	var out []*models.Track
	seen := make(map[string]struct{})
	for _, p := range l.registry.ProvidersSupporting(provider.CapabilitySearch) {
		results, err := p.Search(ctx, query, []models.MediaType{models.MediaTypeTrack}, limit)
		if err != nil {
			l.logger.Warn("version search failed", zap.String("provider", p.InstanceID()), zap.Error(err))
			continue
		}
		for _, hit := range results.Tracks {
			if !looseCompareStrings(hit.Name, track.Name) {
				continue
			}
			if !compareArtists(itemMappingNames(hit.Artists), itemMappingNames(track.Artists), true) {
				continue
			}
			key := hit.Provider + ":" + hit.ItemID
			if _, dup := seen[key]; dup {
				continue
			}
			if _, ownMapping := own[key]; ownMapping {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, hit)
		}
	}
	return out, nil
}

// AlbumVersions is the album flavour of versions(): same fan-out keyed by
// "{artist} - {name}[, version]".
func (l *Library) AlbumVersions(ctx context.Context, album *models.Album, limit int) ([]*models.Album, error) {
	artist := ""
	if len(album.Artists) > 0 {
		artist = album.Artists[0].Name
	}
	query := versionQuery(artist, album.Name, album.Version)

	own := make(map[string]struct{}, len(album.ProviderMappings))
	for _, m := range album.ProviderMappings {
		own[m.ProviderInstance+":"+m.ItemID] = struct{}{}
	}

	var out []*models.Album
	seen := make(map[string]struct{})
	for _, p := range l.registry.ProvidersSupporting(provider.CapabilitySearch) {
		results, err := p.Search(ctx, query, []models.MediaType{models.MediaTypeAlbum}, limit)
		if err != nil {
			l.logger.Warn("version search failed", zap.String("provider", p.InstanceID()), zap.Error(err))
			continue
		}
		for _, hit := range results.Albums {
			if !looseCompareStrings(hit.Name, album.Name) {
				continue
			}
			if !compareArtists(itemMappingNames(hit.Artists), itemMappingNames(album.Artists), true) {
				continue
			}
			key := hit.Provider + ":" + hit.ItemID
			if _, dup := seen[key]; dup {
				continue
			}
			if _, ownMapping := own[key]; ownMapping {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, hit)
		}
	}
	return out, nil
}

// SimilarTrackProvider is implemented by providers that can serve a
// recommendation feed for one track (the SIMILAR_TRACKS capability).
type SimilarTrackProvider interface {
	GetSimilarTracks(ctx context.Context, itemID string, limit int) ([]*models.Track, error)
}

// DynamicTracks prefers any provider exposing SIMILAR_TRACKS for one of the
// track's own mappings, falling back to a metadata-driven genre search
// across the library.
func (l *Library) DynamicTracks(ctx context.Context, track *models.Track, limit int) ([]*models.Track, error) {
	for _, m := range track.ProviderMappings {
		p, err := l.registry.Get(m.ProviderInstance)
		if err != nil || !p.Capabilities().Has(provider.CapabilitySimilarTracks) {
			continue
		}
		similar, ok := p.(SimilarTrackProvider)
		if !ok {
			continue
		}
		tracks, err := similar.GetSimilarTracks(ctx, m.ItemID, limit)
		if err != nil {
			l.logger.Warn("similar tracks failed", zap.String("provider", m.ProviderInstance), zap.Error(err))
			continue
		}
		if len(tracks) > 0 {
			return tracks, nil
		}
	}

	// Metadata fallback: tracks sharing a genre, in database id order.
	var genre string
	for g := range track.Base().Metadata.Genres {
		genre = g
		break
	}
	if genre == "" {
		return nil, nil
	}
	rows, err := l.Tracks.repo.FindAllWhere(ctx, "metadata LIKE ?", "%\""+genre+"\"%")
	if err != nil {
		return nil, err
	}
	if len(rows) > limit && limit > 0 {
		rows = rows[:limit]
	}
	return rows, nil
}
