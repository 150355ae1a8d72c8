// Package providertest provides a configurable in-memory Provider for
// tests across the controller, sync, queue and stream packages.
package providertest

import (
	"context"
	"sync"

	"harmonia/internal/models"
	"harmonia/internal/provider"
	"harmonia/pkg/lazy"
)

// Fake is a scriptable provider instance. Zero values behave as an empty,
// capability-less provider; populate the fields a test needs.
type Fake struct {
	provider.Unsupported

	ID         string
	DomainName string
	Kind       provider.Type
	Caps       provider.CapabilitySet

	Tracks    map[string]*models.Track
	Albums    map[string]*models.Album
	Artists   map[string]*models.Artist
	Playlists map[string]*models.Playlist
	Radios    map[string]*models.Radio

	LibraryTracks  []*models.Track
	LibraryAlbums  []*models.Album
	AlbumTracks    map[string][]*models.Track
	PlaylistTracks map[string][]*models.Track

	SearchResults *provider.SearchResults

	// StreamDetailsFn overrides GetStreamDetails; nil returns a plain
	// HTTP StreamDetails echoing the item id.
	StreamDetailsFn func(itemID string, mt models.MediaType) (*models.StreamDetails, error)

	// ListGate, when set, blocks library listings until the channel is
	// closed; used to hold a sync job open.
	ListGate chan struct{}

	mu          sync.Mutex
	SearchCalls []string
}

// New builds a Fake with the given instance id and domain.
func New(id, domain string, caps ...provider.Capability) *Fake {
	return &Fake{
		Unsupported: provider.NewUnsupported(id),
		ID:          id,
		DomainName:  domain,
		Kind:        provider.TypeMusic,
		Caps:        provider.NewCapabilitySet(caps...),
		Tracks:      make(map[string]*models.Track),
		Albums:      make(map[string]*models.Album),
		AlbumTracks: make(map[string][]*models.Track),
	}
}

func (f *Fake) InstanceID() string                 { return f.ID }
func (f *Fake) Domain() string                     { return f.DomainName }
func (f *Fake) Type() provider.Type                { return f.Kind }
func (f *Fake) Capabilities() provider.CapabilitySet { return f.Caps }

func (f *Fake) GetTrack(ctx context.Context, itemID string) (*models.Track, error) {
	if t, ok := f.Tracks[itemID]; ok {
		return cloneTrack(t), nil
	}
	return nil, provider.NewMediaNotFound(f.ID, "no track "+itemID)
}

func (f *Fake) GetAlbum(ctx context.Context, itemID string) (*models.Album, error) {
	if a, ok := f.Albums[itemID]; ok {
		return a, nil
	}
	return nil, provider.NewMediaNotFound(f.ID, "no album "+itemID)
}

func (f *Fake) GetArtist(ctx context.Context, itemID string) (*models.Artist, error) {
	if a, ok := f.Artists[itemID]; ok {
		return a, nil
	}
	return nil, provider.NewMediaNotFound(f.ID, "no artist "+itemID)
}

func (f *Fake) GetRadio(ctx context.Context, itemID string) (*models.Radio, error) {
	if r, ok := f.Radios[itemID]; ok {
		return r, nil
	}
	return nil, provider.NewMediaNotFound(f.ID, "no radio "+itemID)
}

func (f *Fake) GetPlaylist(ctx context.Context, itemID string) (*models.Playlist, error) {
	if p, ok := f.Playlists[itemID]; ok {
		return p, nil
	}
	return nil, provider.NewMediaNotFound(f.ID, "no playlist "+itemID)
}

func (f *Fake) GetLibraryTracks(ctx context.Context) (*lazy.Seq[*models.Track], error) {
	if f.ListGate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.ListGate:
		}
	}
	items := f.LibraryTracks
	i := 0
	return lazy.NewSeq(func() (*models.Track, bool, error) {
		if i >= len(items) {
			return nil, false, nil
		}
		t := cloneTrack(items[i])
		i++
		return t, true, nil
	}), nil
}

func (f *Fake) GetLibraryAlbums(ctx context.Context) (*lazy.Seq[*models.Album], error) {
	if f.ListGate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.ListGate:
		}
	}
	items := f.LibraryAlbums
	i := 0
	return lazy.NewSeq(func() (*models.Album, bool, error) {
		if i >= len(items) {
			return nil, false, nil
		}
		a := items[i]
		i++
		return a, true, nil
	}), nil
}

func (f *Fake) GetAlbumTracks(ctx context.Context, albumID string) (*lazy.Seq[*models.Track], error) {
	items := f.AlbumTracks[albumID]
	i := 0
	return lazy.NewSeq(func() (*models.Track, bool, error) {
		if i >= len(items) {
			return nil, false, nil
		}
		t := cloneTrack(items[i])
		i++
		return t, true, nil
	}), nil
}

func (f *Fake) GetPlaylistTracks(ctx context.Context, playlistID string) (*lazy.Seq[*models.Track], error) {
	f.mu.Lock()
	items := append([]*models.Track(nil), f.PlaylistTracks[playlistID]...)
	f.mu.Unlock()
	i := 0
	return lazy.NewSeq(func() (*models.Track, bool, error) {
		if i >= len(items) {
			return nil, false, nil
		}
		t := cloneTrack(items[i])
		i++
		return t, true, nil
	}), nil
}

// SetPlaylistTracks replaces a playlist's track fixture under the lock.
func (f *Fake) SetPlaylistTracks(playlistID string, tracks []*models.Track) {
	f.mu.Lock()
	if f.PlaylistTracks == nil {
		f.PlaylistTracks = make(map[string][]*models.Track)
	}
	f.PlaylistTracks[playlistID] = tracks
	f.mu.Unlock()
}

func (f *Fake) Search(ctx context.Context, query string, mediaTypes []models.MediaType, limit int) (*provider.SearchResults, error) {
	f.mu.Lock()
	f.SearchCalls = append(f.SearchCalls, query)
	f.mu.Unlock()
	if f.SearchResults == nil {
		return &provider.SearchResults{}, nil
	}
	return f.SearchResults, nil
}

// SearchCallCount reports how many Search calls the fake has served.
func (f *Fake) SearchCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.SearchCalls)
}

func (f *Fake) GetStreamDetails(ctx context.Context, itemID string, mediaType models.MediaType) (*models.StreamDetails, error) {
	if f.StreamDetailsFn != nil {
		return f.StreamDetailsFn(itemID, mediaType)
	}
	return &models.StreamDetails{
		Provider:   f.ID,
		ItemID:     itemID,
		MediaType:  mediaType,
		StreamType: models.StreamTypeHTTP,
		Path:       "http://example.test/" + itemID,
	}, nil
}

func (f *Fake) LibraryAdd(ctx context.Context, itemID string, mediaType models.MediaType) (bool, error) {
	return true, nil
}

func (f *Fake) LibraryRemove(ctx context.Context, itemID string, mediaType models.MediaType) (bool, error) {
	return true, nil
}

// cloneTrack guards the fake's fixtures against mutation by the controller
// merge path.
func cloneTrack(t *models.Track) *models.Track {
	cp := *t
	cp.ProviderMappings = append(models.ProviderMappingSet(nil), t.ProviderMappings...)
	cp.Artists = append(models.ItemMappingList(nil), t.Artists...)
	cp.Albums = append([]models.TrackAlbumMapping(nil), t.Albums...)
	return &cp
}
