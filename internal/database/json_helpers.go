package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"harmonia/internal/models"
)

// jsonAlbums adapts *[]models.TrackAlbumMapping to driver.Valuer/sql.Scanner
// for the tracks.albums JSON column, since a plain slice-of-struct alias
// cannot carry pointer-receiver methods the way models.ItemMappingList does.
type jsonAlbums struct{ ptr *[]models.TrackAlbumMapping }

func (j jsonAlbums) Value() (driver.Value, error) {
	b, err := json.Marshal(*j.ptr)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j jsonAlbums) Scan(value interface{}) error {
	if value == nil {
		*j.ptr = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j.ptr)
	case string:
		return json.Unmarshal([]byte(v), j.ptr)
	default:
		return fmt.Errorf("database: unsupported albums source type %T", value)
	}
}

// jsonChapters adapts *[]models.Chapter similarly, for audiobooks.chapters.
type jsonChapters struct{ ptr *[]models.Chapter }

func (j jsonChapters) Value() (driver.Value, error) {
	b, err := json.Marshal(*j.ptr)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j jsonChapters) Scan(value interface{}) error {
	if value == nil {
		*j.ptr = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j.ptr)
	case string:
		return json.Unmarshal([]byte(v), j.ptr)
	default:
		return fmt.Errorf("database: unsupported chapters source type %T", value)
	}
}
