package database

import (
	"context"
	"database/sql"
)

// LoudnessStore reads and writes the track_loudness table the Stream
// Coordinator consults for gain_correct.
type LoudnessStore struct {
	db *DB
}

// NewLoudnessStore builds a LoudnessStore.
func NewLoudnessStore(db *DB) *LoudnessStore {
	return &LoudnessStore{db: db}
}

// Get returns the observed loudness for (provider, itemID), or ok=false if
// no observation has been recorded yet.
func (s *LoudnessStore) Get(ctx context.Context, provider, itemID string) (loudness float64, ok bool, err error) {
	row := s.db.QueryRow(ctx, "SELECT loudness_lufs FROM track_loudness WHERE provider = ? AND item_id = ?", provider, itemID)
	err = row.Scan(&loudness)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return loudness, true, nil
}

// Set upserts the observed loudness for (provider, itemID), written back
// asynchronously by the decode pipeline at stream end.
func (s *LoudnessStore) Set(ctx context.Context, provider, itemID string, loudnessLUFS float64) error {
	_, err := s.db.Exec(ctx, `INSERT INTO track_loudness (provider, item_id, loudness_lufs) VALUES (?, ?, ?)
		ON CONFLICT (provider, item_id) DO UPDATE SET loudness_lufs = excluded.loudness_lufs`, provider, itemID, loudnessLUFS)
	return err
}
