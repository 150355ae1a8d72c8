package models

// RepeatMode enumerates a queue's repeat behaviour.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one"
	RepeatAll RepeatMode = "all"
)

// QueuePlayOption selects how play_media merges new items into a queue.
type QueuePlayOption string

const (
	QueuePlay    QueuePlayOption = "PLAY"
	QueueReplace QueuePlayOption = "REPLACE"
	QueueNext    QueuePlayOption = "NEXT"
	QueueAdd     QueuePlayOption = "ADD"
)

// queueExpandClamp is the item-count threshold above which PLAY/NEXT degrade
// to REPLACE.
const queueExpandClamp = 10

// DegradedOption returns the option play_media should actually apply once
// the expanded item count is known, implementing the PLAY/NEXT -> REPLACE
// clamp for long expansions.
func DegradedOption(option QueuePlayOption, expandedCount int) QueuePlayOption {
	if expandedCount > queueExpandClamp && (option == QueuePlay || option == QueueNext) {
		return QueueReplace
	}
	return option
}

// QueueItem is one scheduled playback unit attached to one player
// queue.
type QueueItem struct {
	QueueItemID string      `json:"queue_item_id"`
	MediaItemRef ItemMapping `json:"media_item_ref"`
	StreamURL   string      `json:"stream_url,omitempty"`
	Position    int         `json:"position"`
	ElapsedTime float64     `json:"elapsed_time"`
}

// PlayerQueue is the per-player ordered item list and its playback
// settings.
type PlayerQueue struct {
	PlayerID          string       `json:"player_id"`
	Items             []QueueItem  `json:"items"`
	CurIndex          int          `json:"cur_index"`
	Shuffle           bool         `json:"shuffle"`
	Repeat            RepeatMode   `json:"repeat"`
	CrossfadeDuration float64      `json:"crossfade_duration"`
	State             PlayerState  `json:"state"`
}

// Current returns the queue item at CurIndex, or nil if the queue is empty
// or the index is out of range.
func (q *PlayerQueue) Current() *QueueItem {
	if q.CurIndex < 0 || q.CurIndex >= len(q.Items) {
		return nil
	}
	return &q.Items[q.CurIndex]
}

// ShouldCrossfade reports whether the current item has reached its
// crossfade trigger point.
func (q *PlayerQueue) ShouldCrossfade(currentDuration float64) bool {
	if q.CrossfadeDuration <= 0 {
		return false
	}
	cur := q.Current()
	if cur == nil {
		return false
	}
	return cur.ElapsedTime >= currentDuration-q.CrossfadeDuration
}
