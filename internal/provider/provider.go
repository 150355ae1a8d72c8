// Package provider declares the capability-scoped interface every music
// source backend implements, and the registry that dispatches lookups and
// sync across them. A Provider declares a capability set plus a fixed
// operation surface; callers gate each operation on the capability set
// rather than on errors.
package provider

import (
	"context"
	"time"

	"harmonia/internal/models"
	"harmonia/pkg/lazy"
)

// Type is the provider family/kind (streaming catalog, filesystem,
// plugin).
type Type string

const (
	TypeMusic      Type = "music"
	TypeFilesystem Type = "filesystem"
	TypePlugin     Type = "plugin"
)

// SearchResults groups search hits by media type.
type SearchResults struct {
	Artists   []*models.Artist
	Albums    []*models.Album
	Tracks    []*models.Track
	Playlists []*models.Playlist
	Radios    []*models.Radio
}

// Provider is the capability-scoped operation surface every source backend
// implements. Any method whose capability is absent from the instance's
// declared set is skipped by callers rather than invoked; the provider
// itself may still implement the method (e.g. return UnsupportedFeature)
// for direct callers that bypass the capability check.
type Provider interface {
	InstanceID() string
	Domain() string
	Type() Type
	Capabilities() CapabilitySet

	OnStart(ctx context.Context) error
	OnStop(ctx context.Context) error

	GetArtist(ctx context.Context, itemID string) (*models.Artist, error)
	GetAlbum(ctx context.Context, itemID string) (*models.Album, error)
	GetTrack(ctx context.Context, itemID string) (*models.Track, error)
	GetPlaylist(ctx context.Context, itemID string) (*models.Playlist, error)
	GetRadio(ctx context.Context, itemID string) (*models.Radio, error)
	GetAudiobook(ctx context.Context, itemID string) (*models.Audiobook, error)
	GetPodcast(ctx context.Context, itemID string) (*models.Podcast, error)
	GetEpisode(ctx context.Context, itemID string) (*models.Episode, error)

	GetLibraryArtists(ctx context.Context) (*lazy.Seq[*models.Artist], error)
	GetLibraryAlbums(ctx context.Context) (*lazy.Seq[*models.Album], error)
	GetLibraryTracks(ctx context.Context) (*lazy.Seq[*models.Track], error)
	GetLibraryPlaylists(ctx context.Context) (*lazy.Seq[*models.Playlist], error)
	GetLibraryRadios(ctx context.Context) (*lazy.Seq[*models.Radio], error)
	GetLibraryAudiobooks(ctx context.Context) (*lazy.Seq[*models.Audiobook], error)
	GetLibraryPodcasts(ctx context.Context) (*lazy.Seq[*models.Podcast], error)

	GetAlbumTracks(ctx context.Context, albumID string) (*lazy.Seq[*models.Track], error)
	GetPlaylistTracks(ctx context.Context, playlistID string) (*lazy.Seq[*models.Track], error)
	GetPodcastEpisodes(ctx context.Context, podcastID string) (*lazy.Seq[*models.Episode], error)
	GetArtistAlbums(ctx context.Context, artistID string) (*lazy.Seq[*models.Album], error)
	GetArtistTopTracks(ctx context.Context, artistID string) (*lazy.Seq[*models.Track], error)

	Search(ctx context.Context, query string, mediaTypes []models.MediaType, limit int) (*SearchResults, error)

	LibraryAdd(ctx context.Context, itemID string, mediaType models.MediaType) (bool, error)
	LibraryRemove(ctx context.Context, itemID string, mediaType models.MediaType) (bool, error)

	GetStreamDetails(ctx context.Context, itemID string, mediaType models.MediaType) (*models.StreamDetails, error)
	ResolveImage(ctx context.Context, path string) ([]byte, string, error)

	OnPlayed(ctx context.Context, mediaType models.MediaType, itemID string, fullyPlayed bool, positionSeconds float64) error
}

// CallDeadline is the default per-provider call timeout.
const CallDeadline = 30 * time.Second
