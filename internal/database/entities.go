package database

import "harmonia/internal/models"

// NewArtistRepository builds the Repository for the artists table.
func NewArtistRepository(db *DB) *Repository[*models.Artist] {
	return NewRepository(db, "artists", models.MediaTypeArtist,
		func() *models.Artist { return &models.Artist{} },
		[]string{"item_id", "provider", "name", "sort_name", "uri", "in_library",
			"musicbrainz_id", "provider_mappings", "metadata", "timestamp_added", "timestamp_modified"},
		func(a *models.Artist, id *int64) []interface{} {
			return []interface{}{
				&a.ItemID, &a.Provider, &a.Name, &a.SortName, &a.URI, &a.InLibrary,
				&a.MusicBrainzID, &a.ProviderMappings, &a.Metadata, &a.TimestampAdded, &a.TimestampModified,
			}
		},
		[]string{"musicbrainz_id"},
		func(a *models.Artist) []interface{} { return []interface{}{a.MusicBrainzID} },
	)
}

// NewAlbumRepository builds the Repository for the albums table.
func NewAlbumRepository(db *DB) *Repository[*models.Album] {
	return NewRepository(db, "albums", models.MediaTypeAlbum,
		func() *models.Album { return &models.Album{} },
		[]string{"item_id", "provider", "name", "sort_name", "uri", "in_library",
			"version", "year", "artists", "album_type", "upc", "musicbrainz_id",
			"provider_mappings", "metadata", "timestamp_added", "timestamp_modified"},
		func(a *models.Album, id *int64) []interface{} {
			return []interface{}{
				&a.ItemID, &a.Provider, &a.Name, &a.SortName, &a.URI, &a.InLibrary,
				&a.Version, &a.Year, &a.Artists, &a.AlbumType, &a.UPC, &a.MusicBrainzID,
				&a.ProviderMappings, &a.Metadata, &a.TimestampAdded, &a.TimestampModified,
			}
		},
		[]string{"version", "year", "artists", "album_type", "upc", "musicbrainz_id"},
		func(a *models.Album) []interface{} {
			return []interface{}{a.Version, a.Year, a.Artists, a.AlbumType, a.UPC, a.MusicBrainzID}
		},
	)
}

// NewTrackRepository builds the Repository for the tracks table.
func NewTrackRepository(db *DB) *Repository[*models.Track] {
	return NewRepository(db, "tracks", models.MediaTypeTrack,
		func() *models.Track { return &models.Track{} },
		[]string{"item_id", "provider", "name", "sort_name", "uri", "in_library",
			"duration", "version", "isrc", "musicbrainz_id", "artists", "albums",
			"provider_mappings", "metadata", "timestamp_added", "timestamp_modified"},
		func(t *models.Track, id *int64) []interface{} {
			return []interface{}{
				&t.ItemID, &t.Provider, &t.Name, &t.SortName, &t.URI, &t.InLibrary,
				&t.DurationSeconds, &t.Version, &t.ISRCs, &t.MusicBrainzID, &t.Artists, jsonAlbums{&t.Albums},
				&t.ProviderMappings, &t.Metadata, &t.TimestampAdded, &t.TimestampModified,
			}
		},
		[]string{"duration", "version", "isrc", "musicbrainz_id", "artists", "albums"},
		func(t *models.Track) []interface{} {
			return []interface{}{t.DurationSeconds, t.Version, t.ISRCs, t.MusicBrainzID, t.Artists, jsonAlbums{&t.Albums}}
		},
	)
}

// NewPlaylistRepository builds the Repository for the playlists table.
func NewPlaylistRepository(db *DB) *Repository[*models.Playlist] {
	return NewRepository(db, "playlists", models.MediaTypePlaylist,
		func() *models.Playlist { return &models.Playlist{} },
		[]string{"item_id", "provider", "name", "sort_name", "uri", "in_library",
			"owner", "is_editable", "checksum", "provider_mappings", "metadata",
			"timestamp_added", "timestamp_modified"},
		func(p *models.Playlist, id *int64) []interface{} {
			return []interface{}{
				&p.ItemID, &p.Provider, &p.Name, &p.SortName, &p.URI, &p.InLibrary,
				&p.Owner, &p.IsEditable, &p.Checksum, &p.ProviderMappings, &p.Metadata,
				&p.TimestampAdded, &p.TimestampModified,
			}
		},
		[]string{"owner", "is_editable", "checksum"},
		func(p *models.Playlist) []interface{} { return []interface{}{p.Owner, p.IsEditable, p.Checksum} },
	)
}

// NewRadioRepository builds the Repository for the radios table.
func NewRadioRepository(db *DB) *Repository[*models.Radio] {
	return NewRepository(db, "radios", models.MediaTypeRadio,
		func() *models.Radio { return &models.Radio{} },
		[]string{"item_id", "provider", "name", "sort_name", "uri", "in_library",
			"duration", "provider_mappings", "metadata", "timestamp_added", "timestamp_modified"},
		func(r *models.Radio, id *int64) []interface{} {
			return []interface{}{
				&r.ItemID, &r.Provider, &r.Name, &r.SortName, &r.URI, &r.InLibrary,
				&r.DurationSeconds, &r.ProviderMappings, &r.Metadata, &r.TimestampAdded, &r.TimestampModified,
			}
		},
		[]string{"duration"},
		func(r *models.Radio) []interface{} { return []interface{}{r.DurationSeconds} },
	)
}

// NewAudiobookRepository builds the Repository for the audiobooks table.
func NewAudiobookRepository(db *DB) *Repository[*models.Audiobook] {
	return NewRepository(db, "audiobooks", models.MediaTypeAudiobook,
		func() *models.Audiobook { return &models.Audiobook{} },
		[]string{"item_id", "provider", "name", "sort_name", "uri", "in_library",
			"duration", "chapters", "resume_position_ms", "authors", "narrators",
			"provider_mappings", "metadata", "timestamp_added", "timestamp_modified"},
		func(a *models.Audiobook, id *int64) []interface{} {
			return []interface{}{
				&a.ItemID, &a.Provider, &a.Name, &a.SortName, &a.URI, &a.InLibrary,
				&a.DurationSeconds, jsonChapters{&a.Chapters}, &a.ResumePositionMs, &a.Authors, &a.Narrators,
				&a.ProviderMappings, &a.Metadata, &a.TimestampAdded, &a.TimestampModified,
			}
		},
		[]string{"duration", "chapters", "resume_position_ms", "authors", "narrators"},
		func(a *models.Audiobook) []interface{} {
			return []interface{}{a.DurationSeconds, jsonChapters{&a.Chapters}, a.ResumePositionMs, a.Authors, a.Narrators}
		},
	)
}

// NewPodcastRepository builds the Repository for the podcasts table.
func NewPodcastRepository(db *DB) *Repository[*models.Podcast] {
	return NewRepository(db, "podcasts", models.MediaTypePodcast,
		func() *models.Podcast { return &models.Podcast{} },
		[]string{"item_id", "provider", "name", "sort_name", "uri", "in_library",
			"authors", "provider_mappings", "metadata", "timestamp_added", "timestamp_modified"},
		func(p *models.Podcast, id *int64) []interface{} {
			return []interface{}{
				&p.ItemID, &p.Provider, &p.Name, &p.SortName, &p.URI, &p.InLibrary,
				&p.Authors, &p.ProviderMappings, &p.Metadata, &p.TimestampAdded, &p.TimestampModified,
			}
		},
		[]string{"authors"},
		func(p *models.Podcast) []interface{} { return []interface{}{p.Authors} },
	)
}

// NewEpisodeRepository builds the Repository for the episodes table.
func NewEpisodeRepository(db *DB) *Repository[*models.Episode] {
	return NewRepository(db, "episodes", models.MediaTypeEpisode,
		func() *models.Episode { return &models.Episode{} },
		[]string{"item_id", "provider", "name", "sort_name", "uri", "in_library",
			"duration", "resume_position_ms", "podcast_item_id", "provider_mappings", "metadata",
			"timestamp_added", "timestamp_modified"},
		func(e *models.Episode, id *int64) []interface{} {
			return []interface{}{
				&e.ItemID, &e.Provider, &e.Name, &e.SortName, &e.URI, &e.InLibrary,
				&e.DurationSeconds, &e.ResumePositionMs, &e.PodcastItemID, &e.ProviderMappings, &e.Metadata,
				&e.TimestampAdded, &e.TimestampModified,
			}
		},
		[]string{"duration", "resume_position_ms", "podcast_item_id"},
		func(e *models.Episode) []interface{} { return []interface{}{e.DurationSeconds, e.ResumePositionMs, e.PodcastItemID} },
	)
}
