package provider

import (
	"context"

	"harmonia/internal/models"
	"harmonia/pkg/lazy"
)

// Unsupported is the default implementation of every Provider operation:
// each method returns an UnsupportedFeature error. Concrete providers embed
// it and override only the operations their capability set declares, which
// keeps the interface honest for direct callers while capability checks
// remain the normal gate.
type Unsupported struct {
	instanceID string
}

// NewUnsupported builds the embeddable default surface for instanceID.
func NewUnsupported(instanceID string) Unsupported {
	return Unsupported{instanceID: instanceID}
}

func (u Unsupported) OnStart(ctx context.Context) error { return nil }
func (u Unsupported) OnStop(ctx context.Context) error  { return nil }

func (u Unsupported) GetArtist(ctx context.Context, itemID string) (*models.Artist, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityArtistMetadata)
}

func (u Unsupported) GetAlbum(ctx context.Context, itemID string) (*models.Album, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityAlbumMetadata)
}

func (u Unsupported) GetTrack(ctx context.Context, itemID string) (*models.Track, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityTrackMetadata)
}

func (u Unsupported) GetPlaylist(ctx context.Context, itemID string) (*models.Playlist, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryPlaylists)
}

func (u Unsupported) GetRadio(ctx context.Context, itemID string) (*models.Radio, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryRadios)
}

func (u Unsupported) GetAudiobook(ctx context.Context, itemID string) (*models.Audiobook, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryAudiobooks)
}

func (u Unsupported) GetPodcast(ctx context.Context, itemID string) (*models.Podcast, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryPodcasts)
}

func (u Unsupported) GetEpisode(ctx context.Context, itemID string) (*models.Episode, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryPodcasts)
}

func (u Unsupported) GetLibraryArtists(ctx context.Context) (*lazy.Seq[*models.Artist], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryArtists)
}

func (u Unsupported) GetLibraryAlbums(ctx context.Context) (*lazy.Seq[*models.Album], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryAlbums)
}

func (u Unsupported) GetLibraryTracks(ctx context.Context) (*lazy.Seq[*models.Track], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryTracks)
}

func (u Unsupported) GetLibraryPlaylists(ctx context.Context) (*lazy.Seq[*models.Playlist], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryPlaylists)
}

func (u Unsupported) GetLibraryRadios(ctx context.Context) (*lazy.Seq[*models.Radio], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryRadios)
}

func (u Unsupported) GetLibraryAudiobooks(ctx context.Context) (*lazy.Seq[*models.Audiobook], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryAudiobooks)
}

func (u Unsupported) GetLibraryPodcasts(ctx context.Context) (*lazy.Seq[*models.Podcast], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryPodcasts)
}

func (u Unsupported) GetAlbumTracks(ctx context.Context, albumID string) (*lazy.Seq[*models.Track], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityAlbumMetadata)
}

func (u Unsupported) GetPlaylistTracks(ctx context.Context, playlistID string) (*lazy.Seq[*models.Track], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryPlaylists)
}

func (u Unsupported) GetPodcastEpisodes(ctx context.Context, podcastID string) (*lazy.Seq[*models.Episode], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityLibraryPodcasts)
}

func (u Unsupported) GetArtistAlbums(ctx context.Context, artistID string) (*lazy.Seq[*models.Album], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityArtistAlbums)
}

func (u Unsupported) GetArtistTopTracks(ctx context.Context, artistID string) (*lazy.Seq[*models.Track], error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityArtistTopTracks)
}

func (u Unsupported) Search(ctx context.Context, query string, mediaTypes []models.MediaType, limit int) (*SearchResults, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilitySearch)
}

func (u Unsupported) LibraryAdd(ctx context.Context, itemID string, mediaType models.MediaType) (bool, error) {
	return false, NewUnsupportedFeature(u.instanceID, CapabilityLibraryTracksEdit)
}

func (u Unsupported) LibraryRemove(ctx context.Context, itemID string, mediaType models.MediaType) (bool, error) {
	return false, NewUnsupportedFeature(u.instanceID, CapabilityLibraryTracksEdit)
}

func (u Unsupported) GetStreamDetails(ctx context.Context, itemID string, mediaType models.MediaType) (*models.StreamDetails, error) {
	return nil, NewUnsupportedFeature(u.instanceID, CapabilityTrackMetadata)
}

func (u Unsupported) ResolveImage(ctx context.Context, path string) ([]byte, string, error) {
	return nil, "", NewUnsupportedFeature(u.instanceID, CapabilityBrowse)
}

func (u Unsupported) OnPlayed(ctx context.Context, mediaType models.MediaType, itemID string, fullyPlayed bool, positionSeconds float64) error {
	return nil
}
