package database

import "context"

// tableSchemas holds one CREATE TABLE statement per entity type plus the
// provider_mappings index and track_loudness tables. JSON-encoded columns
// hold nested collections (artists, albums, metadata, provider_mappings).
var tableSchemas = []string{
	`CREATE TABLE IF NOT EXISTS artists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_name TEXT NOT NULL,
		uri TEXT NOT NULL,
		in_library INTEGER NOT NULL DEFAULT 0,
		musicbrainz_id TEXT,
		provider_mappings TEXT NOT NULL DEFAULT '[]',
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp_added INTEGER NOT NULL,
		timestamp_modified INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS albums (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_name TEXT NOT NULL,
		uri TEXT NOT NULL,
		in_library INTEGER NOT NULL DEFAULT 0,
		version TEXT,
		year INTEGER,
		artists TEXT NOT NULL DEFAULT '[]',
		album_type TEXT NOT NULL DEFAULT 'unknown',
		upc TEXT,
		musicbrainz_id TEXT,
		provider_mappings TEXT NOT NULL DEFAULT '[]',
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp_added INTEGER NOT NULL,
		timestamp_modified INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_name TEXT NOT NULL,
		uri TEXT NOT NULL,
		in_library INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		version TEXT,
		isrc TEXT NOT NULL DEFAULT '[]',
		musicbrainz_id TEXT,
		artists TEXT NOT NULL DEFAULT '[]',
		albums TEXT NOT NULL DEFAULT '[]',
		provider_mappings TEXT NOT NULL DEFAULT '[]',
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp_added INTEGER NOT NULL,
		timestamp_modified INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_name TEXT NOT NULL,
		uri TEXT NOT NULL,
		in_library INTEGER NOT NULL DEFAULT 0,
		owner TEXT,
		is_editable INTEGER NOT NULL DEFAULT 0,
		checksum TEXT,
		provider_mappings TEXT NOT NULL DEFAULT '[]',
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp_added INTEGER NOT NULL,
		timestamp_modified INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS radios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_name TEXT NOT NULL,
		uri TEXT NOT NULL,
		in_library INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		provider_mappings TEXT NOT NULL DEFAULT '[]',
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp_added INTEGER NOT NULL,
		timestamp_modified INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS audiobooks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_name TEXT NOT NULL,
		uri TEXT NOT NULL,
		in_library INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		chapters TEXT NOT NULL DEFAULT '[]',
		resume_position_ms INTEGER NOT NULL DEFAULT 0,
		authors TEXT NOT NULL DEFAULT '[]',
		narrators TEXT NOT NULL DEFAULT '[]',
		provider_mappings TEXT NOT NULL DEFAULT '[]',
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp_added INTEGER NOT NULL,
		timestamp_modified INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS podcasts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_name TEXT NOT NULL,
		uri TEXT NOT NULL,
		in_library INTEGER NOT NULL DEFAULT 0,
		authors TEXT NOT NULL DEFAULT '[]',
		provider_mappings TEXT NOT NULL DEFAULT '[]',
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp_added INTEGER NOT NULL,
		timestamp_modified INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS episodes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		name TEXT NOT NULL,
		sort_name TEXT NOT NULL,
		uri TEXT NOT NULL,
		in_library INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		resume_position_ms INTEGER NOT NULL DEFAULT 0,
		podcast_item_id TEXT,
		provider_mappings TEXT NOT NULL DEFAULT '[]',
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp_added INTEGER NOT NULL,
		timestamp_modified INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS provider_mappings (
		media_type TEXT NOT NULL,
		item_id INTEGER NOT NULL,
		provider_instance TEXT NOT NULL,
		provider_domain TEXT NOT NULL,
		provider_item_id TEXT NOT NULL,
		PRIMARY KEY (media_type, item_id, provider_instance, provider_item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS track_loudness (
		provider TEXT NOT NULL,
		item_id TEXT NOT NULL,
		loudness_lufs REAL NOT NULL,
		PRIMARY KEY (provider, item_id)
	)`,
	`CREATE TABLE IF NOT EXISTS search_cache (
		cache_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		expires_at INTEGER NOT NULL
	)`,
}

// Migrate creates every table if it does not already exist. There is no
// versioned migration chain: the schema is additive and idempotent.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range tableSchemas {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
