package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AudioFormat describes the encoding of one provider's copy of a track,
// used to derive ProviderMapping's quality score.
type AudioFormat struct {
	ContentType  string  `json:"content_type"`
	SampleRateKHz float64 `json:"sample_rate_khz,omitempty"`
	BitDepth     int     `json:"bit_depth,omitempty"`
	BitRateKbps  int     `json:"bit_rate_kbps,omitempty"`
	Lossless     bool    `json:"lossless"`
	Codec        string  `json:"codec,omitempty"`
}

// codecPreference adds small tie-breaking bonuses to the lossy quality
// score so better codecs win at equal bit rates.
var codecPreference = map[string]float64{
	"opus": 0.4,
	"aac":  0.2,
	"mp3":  0.0,
	"ogg":  0.1,
}

// QualityScore derives the comparable quality score: for lossless
// formats, sample_rate_khz + bit_depth; for lossy formats,
// bit_rate/100 plus a small codec-preference addition.
func (f AudioFormat) QualityScore() float64 {
	if f.Lossless {
		return f.SampleRateKHz + float64(f.BitDepth)
	}
	score := float64(f.BitRateKbps) / 100
	score += codecPreference[strings.ToLower(f.Codec)]
	return score
}

// ProviderMapping ties one canonical entity to one provider's identifier
// for it. Identity is (ProviderInstance, ItemID).
type ProviderMapping struct {
	ProviderInstance string       `json:"provider_instance"`
	ProviderDomain   string       `json:"provider_domain"`
	ItemID           string       `json:"item_id"`
	Available        bool         `json:"available"`
	AudioFormat      *AudioFormat `json:"audio_format,omitempty"`
	Details          string       `json:"details,omitempty"`
	URL              string       `json:"url,omitempty"`
}

// QualityScore returns the mapping's quality score, or 0 if it carries no
// audio format information (e.g. a playlist or artist mapping).
func (m ProviderMapping) QualityScore() float64 {
	if m.AudioFormat == nil {
		return 0
	}
	return m.AudioFormat.QualityScore()
}

// PreferFile reports whether this mapping's provider domain is a local
// filesystem-backed provider, which the Stream Coordinator ranks ahead
// of every remote tier.
func (m ProviderMapping) PreferFile() bool {
	return strings.HasPrefix(m.ProviderDomain, "filesystem")
}

// ItemMapping is a reduced projection of any entity, used to represent
// references (e.g. an album's artist) without materialising the full
// object; references at rest stay flat, so loading one entity never fans
// out through track -> album -> artist cycles.
type ItemMapping struct {
	MediaType MediaType `json:"media_type"`
	ItemID    string    `json:"item_id"`
	Provider  string    `json:"provider"`
	Name      string    `json:"name"`
	SortName  string    `json:"sort_name"`
	URI       string    `json:"uri"`
	Version   string    `json:"version,omitempty"`
}

// ItemMappingList is a JSON-persisted slice of ItemMapping, used for the
// `artists` / `albums` columns.
type ItemMappingList []ItemMapping

// Value implements driver.Valuer.
func (l ItemMappingList) Value() (driver.Value, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *ItemMappingList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("models: unsupported ItemMappingList source type %T", value)
	}
}
