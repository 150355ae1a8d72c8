package media

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"harmonia/internal/cache"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/models"
	"harmonia/internal/provider"
)

// Library bundles every per-entity controller plus the cross-entity
// operations (uri resolution, album/playlist track listings, artist top
// tracks) that no single controller owns. Dependencies are threaded
// through it by reference; there are no process-wide singletons.
type Library struct {
	Artists    *Controller[*models.Artist]
	Albums     *Controller[*models.Album]
	Tracks     *Controller[*models.Track]
	Playlists  *Controller[*models.Playlist]
	Radios     *Controller[*models.Radio]
	Audiobooks *Controller[*models.Audiobook]
	Podcasts   *Controller[*models.Podcast]
	Episodes   *Controller[*models.Episode]

	Editor *PlaylistEditor

	registry *provider.Registry
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewLibrary wires every controller against one database handle.
func NewLibrary(db *database.DB, registry *provider.Registry, bus eventbus.Bus, c *cache.Cache, logger *zap.Logger) *Library {
	l := &Library{
		Artists:    NewArtistController(database.NewArtistRepository(db), registry, bus, c, logger),
		Albums:     NewAlbumController(database.NewAlbumRepository(db), registry, bus, c, logger),
		Tracks:     NewTrackController(database.NewTrackRepository(db), registry, bus, c, logger),
		Playlists:  NewPlaylistController(database.NewPlaylistRepository(db), registry, bus, c, logger),
		Radios:     NewRadioController(database.NewRadioRepository(db), registry, bus, c, logger),
		Audiobooks: NewAudiobookController(database.NewAudiobookRepository(db), registry, bus, c, logger),
		Podcasts:   NewPodcastController(database.NewPodcastRepository(db), registry, bus, c, logger),
		Episodes:   NewEpisodeController(database.NewEpisodeRepository(db), registry, bus, c, logger),
		registry:   registry,
		cache:      c,
		logger:     logger,
	}
	l.Editor = NewPlaylistEditor(l.Playlists, l.Tracks, registry, c, logger)
	return l
}

// Registry exposes the provider registry the library dispatches through.
func (l *Library) Registry() *provider.Registry { return l.registry }

// GetTrackByURI resolves a canonical track URI to its full entity, lazily
// writing unknown provider items through the track controller.
func (l *Library) GetTrackByURI(ctx context.Context, uri string) (*models.Track, error) {
	ref, err := models.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if ref.MediaType != models.MediaTypeTrack {
		return nil, fmt.Errorf("media: uri %q is not a track", uri)
	}
	return l.Tracks.Get(ctx, ref.ItemID, ref.Provider, GetOptions{Lazy: true, AddToDB: true})
}

// ExpandURI resolves a media URI into the ordered track list play_media
// schedules: artist expands to top tracks, album and
// playlist to their tracks, a single track or radio passes through as one
// item.
func (l *Library) ExpandURI(ctx context.Context, uri string) ([]models.ItemMapping, error) {
	ref, err := models.ParseURI(uri)
	if err != nil {
		return nil, err
	}

	switch ref.MediaType {
	case models.MediaTypeTrack:
		track, err := l.GetTrackByURI(ctx, uri)
		if err != nil {
			return nil, err
		}
		return []models.ItemMapping{trackRef(track)}, nil

	case models.MediaTypeRadio:
		radio, err := l.Radios.Get(ctx, ref.ItemID, ref.Provider, GetOptions{Lazy: true})
		if err != nil {
			return nil, err
		}
		return []models.ItemMapping{{
			MediaType: models.MediaTypeRadio, ItemID: radio.ItemID, Provider: radio.Provider,
			Name: radio.Name, SortName: radio.SortName, URI: radio.URI,
		}}, nil

	case models.MediaTypeAlbum:
		tracks, err := l.AlbumTracks(ctx, ref.ItemID, ref.Provider)
		if err != nil {
			return nil, err
		}
		return trackRefs(tracks), nil

	case models.MediaTypePlaylist:
		tracks, err := l.PlaylistTracks(ctx, ref.ItemID, ref.Provider)
		if err != nil {
			return nil, err
		}
		return trackRefs(tracks), nil

	case models.MediaTypeArtist:
		tracks, err := l.ArtistTopTracks(ctx, ref.ItemID, ref.Provider)
		if err != nil {
			return nil, err
		}
		return trackRefs(tracks), nil

	default:
		return nil, fmt.Errorf("media: cannot expand %s uri into a queue", ref.MediaType)
	}
}

func trackRef(t *models.Track) models.ItemMapping {
	return models.ItemMapping{
		MediaType: models.MediaTypeTrack, ItemID: t.ItemID, Provider: t.Provider,
		Name: t.Name, SortName: t.SortName, URI: t.URI, Version: t.Version,
	}
}

func trackRefs(tracks []*models.Track) []models.ItemMapping {
	out := make([]models.ItemMapping, len(tracks))
	for i, t := range tracks {
		out[i] = trackRef(t)
	}
	return out
}

// AlbumTracks lists an album's tracks in disc/track order, substituting
// canonical DB tracks when a provider track maps to one.
func (l *Library) AlbumTracks(ctx context.Context, albumItemID, providerID string) ([]*models.Track, error) {
	p, err := l.registry.Get(providerID)
	if err != nil {
		return l.dbAlbumTracks(ctx, albumItemID)
	}
	seq, err := p.GetAlbumTracks(ctx, albumItemID)
	if err != nil {
		return nil, err
	}
	providerTracks, err := seq.Collect()
	if err != nil {
		return nil, err
	}

	out := make([]*models.Track, 0, len(providerTracks))
	for _, t := range providerTracks {
		if canonical, err := l.Tracks.repo.GetByProviderMapping(ctx, p.InstanceID(), t.ItemID); err == nil {
			canonical.Albums = t.Albums
			out = append(out, canonical)
			continue
		}
		out = append(out, t)
	}
	sortTracksByPosition(out, albumItemID)
	return out, nil
}

func (l *Library) dbAlbumTracks(ctx context.Context, albumItemID string) ([]*models.Track, error) {
	tracks, err := l.Tracks.repo.FindAllWhere(ctx, "albums LIKE ?", "%\""+albumItemID+"\"%")
	if err != nil {
		return nil, err
	}
	sortTracksByPosition(tracks, albumItemID)
	return tracks, nil
}

func sortTracksByPosition(tracks []*models.Track, albumItemID string) {
	pos := func(t *models.Track) (int, int) {
		for _, m := range t.Albums {
			if m.AlbumItemID == albumItemID {
				return m.DiscNumber, m.TrackNumber
			}
		}
		return 0, 0
	}
	sort.SliceStable(tracks, func(i, j int) bool {
		di, ti := pos(tracks[i])
		dj, tj := pos(tracks[j])
		if di != dj {
			return di < dj
		}
		return ti < tj
	})
}

// playlistTracksCacheTTL bounds how long a playlist's track listing is
// served from cache; edits invalidate the key immediately, the TTL only
// covers remote edits this server never saw.
const playlistTracksCacheTTL = 24 * time.Hour

// playlistTracksCacheKey is shared with the playlist editor, which deletes
// the key when an edit bumps the checksum.
func playlistTracksCacheKey(providerID, playlistItemID string) string {
	return fmt.Sprintf("playlist_tracks:%s:%s", providerID, playlistItemID)
}

// PlaylistTracks lists a playlist's tracks, cached per (provider, item id)
// so repeated listings skip the provider; an edit through the playlist
// editor deletes the key, forcing the next listing to refetch. Filesystem
// playlists are never cached.
func (l *Library) PlaylistTracks(ctx context.Context, playlistItemID, providerID string) ([]*models.Track, error) {
	p, err := l.registry.Get(providerID)
	if err != nil {
		return nil, provider.NewProviderUnavailable(providerID, "playlist provider offline", err)
	}

	fetch := func(ctx context.Context) ([]*models.Track, error) {
		seq, err := p.GetPlaylistTracks(ctx, playlistItemID)
		if err != nil {
			return nil, err
		}
		return seq.Collect()
	}

	if l.cache == nil || p.Type() == provider.TypeFilesystem {
		return fetch(ctx)
	}

	var tracks []*models.Track
	err = l.cache.GetOrCompute(ctx, playlistTracksCacheKey(providerID, playlistItemID),
		playlistTracksCacheTTL, &tracks, func(ctx context.Context) (interface{}, error) {
			return fetch(ctx)
		})
	return tracks, err
}

// ArtistTopTracks lists an artist's top tracks from providerID; a provider
// without ARTIST_TOPTRACKS yields an UnsupportedFeature error, and no other
// provider is tried.
func (l *Library) ArtistTopTracks(ctx context.Context, artistItemID, providerID string) ([]*models.Track, error) {
	p, err := l.registry.Get(providerID)
	if err != nil {
		return nil, provider.NewProviderUnavailable(providerID, "artist provider offline", err)
	}
	if !p.Capabilities().Has(provider.CapabilityArtistTopTracks) {
		return nil, provider.NewUnsupportedFeature(p.InstanceID(), provider.CapabilityArtistTopTracks)
	}
	seq, err := p.GetArtistTopTracks(ctx, artistItemID)
	if err != nil {
		return nil, err
	}
	return seq.Collect()
}
