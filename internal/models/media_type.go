package models

// MediaType discriminates the sum-type family of canonical media
// entities; it doubles as the media_type column value and the scheme of
// canonical media URIs.
type MediaType string

const (
	MediaTypeArtist       MediaType = "artist"
	MediaTypeAlbum        MediaType = "album"
	MediaTypeTrack        MediaType = "track"
	MediaTypePlaylist     MediaType = "playlist"
	MediaTypeRadio        MediaType = "radio"
	MediaTypeAudiobook    MediaType = "audiobook"
	MediaTypePodcast      MediaType = "podcast"
	MediaTypeEpisode      MediaType = "episode"
	MediaTypeBrowseFolder MediaType = "browse_folder"
)

// AlbumType enumerates the kind of album a release represents.
type AlbumType string

const (
	AlbumTypeAlbum       AlbumType = "album"
	AlbumTypeSingle      AlbumType = "single"
	AlbumTypeCompilation AlbumType = "compilation"
	AlbumTypeEP          AlbumType = "ep"
	AlbumTypeUnknown     AlbumType = "unknown"
)
