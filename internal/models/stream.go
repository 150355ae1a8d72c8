package models

// StreamType discriminates how a StreamDetails' audio is transported,
// following the same tagged-variant approach as MediaType.
type StreamType string

const (
	StreamTypeHTTP StreamType = "HTTP"
	StreamTypeHLS  StreamType = "HLS"
	StreamTypeFile StreamType = "FILE"
	StreamTypePipe StreamType = "PIPE"
)

// StreamDetails is the resolved plan for streaming one queue item: the
// chosen provider mapping, its format, and replay-gain/loudness state
// populated by the Stream Coordinator.
type StreamDetails struct {
	Provider    string     `json:"provider"`
	ItemID      string     `json:"item_id"`
	MediaType   MediaType  `json:"media_type"`
	ContentType string     `json:"content_type"`
	SampleRate  int        `json:"sample_rate,omitempty"`
	BitDepth    int        `json:"bit_depth,omitempty"`
	Channels    int        `json:"channels,omitempty"`
	StreamType  StreamType `json:"stream_type"`
	Path        string     `json:"path"`
	Duration    float64    `json:"duration,omitempty"`
	Size        int64      `json:"size,omitempty"`
	StreamTitle string     `json:"stream_title,omitempty"`
	Direct      bool       `json:"direct,omitempty"`

	// Fields below are populated/mutated by the Stream Coordinator.
	Expires         int64   `json:"expires"`
	GainCorrect     float64 `json:"gain_correct,omitempty"`
	Loudness        *float64 `json:"loudness,omitempty"`
	SecondsStreamed float64 `json:"seconds_streamed"`
	QueueID         string  `json:"queue_id,omitempty"`
}

// LoudnessEntry is one row of the track_loudness table: a
// loudness observation reported back asynchronously by the decode pipeline
// at stream end, keyed by (provider, item_id).
type LoudnessEntry struct {
	Provider    string  `json:"provider"`
	ItemID      string  `json:"item_id"`
	LoudnessLUFS float64 `json:"loudness_lufs"`
}
