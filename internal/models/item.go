package models

import "fmt"

// MediaItem is the common interface every canonical entity variant
// satisfies: a media_type discriminator plus per-variant fields, a tagged
// variant rather than a class hierarchy.
type MediaItem interface {
	Base() *BaseItem
	MediaType() MediaType
}

// BaseItem carries the fields every MediaItem variant shares.
type BaseItem struct {
	DBID              int64              `json:"db_id,omitempty"`
	ItemID            string             `json:"item_id"`
	Provider          string             `json:"provider"`
	Name              string             `json:"name"`
	SortName          string             `json:"sort_name"`
	URI               string             `json:"uri"`
	InLibrary         bool               `json:"in_library"`
	ProviderMappings  ProviderMappingSet `json:"provider_mappings"`
	Metadata          Metadata           `json:"metadata"`
	TimestampAdded    int64              `json:"timestamp_added"`
	TimestampModified int64              `json:"timestamp_modified"`
}

// Base satisfies the common part of MediaItem; embedding types get it for free.
func (b *BaseItem) Base() *BaseItem { return b }

// Available reports whether any provider mapping is currently available.
func (b *BaseItem) Available() bool {
	return b.ProviderMappings.Available()
}

// EnsureDerived fills in URI and SortName when missing; persisted
// entities never carry an empty uri or sort_name, both are regenerated at
// load if absent.
func (b *BaseItem) EnsureDerived(mediaType MediaType) {
	if b.URI == "" {
		b.URI = fmt.Sprintf("%s://%s/%s", mediaType, b.Provider, b.ItemID)
	}
	if b.SortName == "" {
		b.SortName = CreateSortName(b.Name)
	}
}

// Artist is a performer/composer canonical entity.
type Artist struct {
	BaseItem
	MusicBrainzID string `json:"musicbrainz_id,omitempty"`
}

func (a *Artist) MediaType() MediaType { return MediaTypeArtist }

// Album is a release canonical entity.
type Album struct {
	BaseItem
	Version       string          `json:"version,omitempty"`
	Year          int             `json:"year,omitempty"`
	Artists       ItemMappingList `json:"artists,omitempty"`
	AlbumType     AlbumType       `json:"album_type"`
	UPC           string          `json:"upc,omitempty"`
	MusicBrainzID string          `json:"musicbrainz_id,omitempty"`
}

func (a *Album) MediaType() MediaType { return MediaTypeAlbum }

// TrackAlbumMapping records one appearance of a track on an album,
// including position; disc/track numbers live here, not on Album.
type TrackAlbumMapping struct {
	AlbumItemID string `json:"album_item_id"`
	DiscNumber  int    `json:"disc_number"`
	TrackNumber int    `json:"track_number"`
}

// Track is a single recording canonical entity.
type Track struct {
	BaseItem
	DurationSeconds float64             `json:"duration"`
	Version         string              `json:"version,omitempty"`
	ISRCs           StringSet           `json:"isrc,omitempty"`
	MusicBrainzID   string              `json:"musicbrainz_id,omitempty"`
	Artists         ItemMappingList     `json:"artists,omitempty"`
	Albums          []TrackAlbumMapping `json:"albums,omitempty"`
}

func (t *Track) MediaType() MediaType { return MediaTypeTrack }

// Playlist is a user-ordered, possibly cross-provider, track list.
type Playlist struct {
	BaseItem
	Owner      string `json:"owner,omitempty"`
	IsEditable bool   `json:"is_editable"`
	Checksum   string `json:"checksum,omitempty"`
}

func (p *Playlist) MediaType() MediaType { return MediaTypePlaylist }

// Radio is a live or simulated-infinite-duration stream.
type Radio struct {
	BaseItem
	DurationSeconds float64 `json:"duration,omitempty"`
}

func (r *Radio) MediaType() MediaType { return MediaTypeRadio }

// Chapter is one navigable segment of an audiobook or podcast episode.
type Chapter struct {
	Position        int     `json:"position"`
	Name            string  `json:"name"`
	StartSeconds    float64 `json:"start"`
	DurationSeconds float64 `json:"duration,omitempty"`
}

// Audiobook is a long-form spoken-word canonical entity.
type Audiobook struct {
	BaseItem
	DurationSeconds  float64   `json:"duration,omitempty"`
	Chapters         []Chapter `json:"chapters,omitempty"`
	ResumePositionMs int64     `json:"resume_position_ms,omitempty"`
	Authors          StringSet `json:"authors,omitempty"`
	Narrators        StringSet `json:"narrators,omitempty"`
}

func (a *Audiobook) MediaType() MediaType { return MediaTypeAudiobook }

// Podcast is a show made up of Episode entities.
type Podcast struct {
	BaseItem
	Authors StringSet `json:"authors,omitempty"`
}

func (p *Podcast) MediaType() MediaType { return MediaTypePodcast }

// Episode is a single podcast instalment.
type Episode struct {
	BaseItem
	DurationSeconds  float64 `json:"duration,omitempty"`
	ResumePositionMs int64   `json:"resume_position_ms,omitempty"`
	PodcastItemID    string  `json:"podcast_item_id,omitempty"`
}

func (e *Episode) MediaType() MediaType { return MediaTypeEpisode }

// BrowseFolder is a hierarchical, non-persisted browse node a provider can
// expose for navigation (e.g. a streaming service's curated categories).
type BrowseFolder struct {
	BaseItem
	Path       string `json:"path"`
	IsPlayable bool   `json:"is_playable"`
}

func (f *BrowseFolder) MediaType() MediaType { return MediaTypeBrowseFolder }
