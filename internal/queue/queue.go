// Package queue implements the per-player queue state machine: ordered
// items, shuffle/repeat/crossfade settings, uri expansion and index
// arithmetic. Each player owns exactly one persistent queue.
package queue

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"harmonia/internal/media"
	"harmonia/internal/metrics"
	"harmonia/internal/models"
	"harmonia/internal/stream"
)

// PlayerHooks are the callbacks the player manager installs so queue
// transitions can drive the attached player without an import cycle.
type PlayerHooks struct {
	Play func(ctx context.Context, playerID, streamURL string) error
	Stop func(ctx context.Context, playerID string) error
}

// Manager owns one Queue per registered player.
type Manager struct {
	lib         *media.Library
	coordinator *stream.Coordinator
	logger      *zap.Logger

	mu     sync.Mutex
	queues map[string]*Queue

	hooks PlayerHooks
}

// NewManager builds the queue manager.
func NewManager(lib *media.Library, coordinator *stream.Coordinator, logger *zap.Logger) *Manager {
	return &Manager{
		lib: lib, coordinator: coordinator, logger: logger,
		queues: make(map[string]*Queue),
	}
}

// SetPlayerHooks installs the player-driving callbacks.
func (m *Manager) SetPlayerHooks(hooks PlayerHooks) { m.hooks = hooks }

// Library exposes the media library queues resolve through.
func (m *Manager) Library() *media.Library { return m.lib }

// Get returns the queue for playerID, creating it on first sight.
func (m *Manager) Get(playerID string) *Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[playerID]
	if !ok {
		q = &Queue{
			manager: m,
			state: models.PlayerQueue{
				PlayerID: playerID,
				CurIndex: -1,
				Repeat:   models.RepeatOff,
			},
		}
		m.queues[playerID] = q
	}
	return q
}

// Remove drops a player's queue when the player is removed.
func (m *Manager) Remove(playerID string) {
	m.mu.Lock()
	delete(m.queues, playerID)
	m.mu.Unlock()
	metrics.QueueDepth.DeleteLabelValues(playerID)
}

// Queue is the per-player ordered item list and its settings.
type Queue struct {
	manager *Manager

	mu    sync.Mutex
	state models.PlayerQueue
}

// Snapshot returns a copy of the queue's current state.
func (q *Queue) Snapshot() models.PlayerQueue {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.state
	out.Items = append([]models.QueueItem(nil), q.state.Items...)
	return out
}

func newQueueItems(refs []models.ItemMapping) []models.QueueItem {
	items := make([]models.QueueItem, len(refs))
	for i, ref := range refs {
		items[i] = models.QueueItem{
			QueueItemID:  uuid.NewString(),
			MediaItemRef: ref,
			Position:     i,
		}
	}
	return items
}

func (q *Queue) renumberLocked() {
	for i := range q.state.Items {
		q.state.Items[i].Position = i
	}
	metrics.QueueDepth.WithLabelValues(q.state.PlayerID).Set(float64(len(q.state.Items)))
}

// Load replaces the queue contents .
func (q *Queue) Load(refs []models.ItemMapping) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state.Items = newQueueItems(refs)
	q.state.CurIndex = -1
	if q.state.Shuffle {
		q.shuffleLocked(0)
	}
	q.renumberLocked()
}

// Insert places items at offsetFromCur positions after the current index:
// offset 0 means play now, 1 means next .
func (q *Queue) Insert(refs []models.ItemMapping, offsetFromCur int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := newQueueItems(refs)
	at := q.state.CurIndex + offsetFromCur
	if at < 0 {
		at = 0
	}
	if at > len(q.state.Items) {
		at = len(q.state.Items)
	}
	rest := append([]models.QueueItem(nil), q.state.Items[at:]...)
	q.state.Items = append(q.state.Items[:at], append(items, rest...)...)
	q.renumberLocked()
}

// Append adds items to the end of the queue .
func (q *Queue) Append(refs []models.ItemMapping) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.state.Items = append(q.state.Items, newQueueItems(refs)...)
	q.renumberLocked()
}

// PlayMedia resolves uri into queue items and merges them per option,
// degrading PLAY/NEXT to REPLACE when the expansion exceeds the clamp.
func (q *Queue) PlayMedia(ctx context.Context, uri string, option models.QueuePlayOption) error {
	refs, err := q.manager.lib.ExpandURI(ctx, uri)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("queue: uri %q expanded to no playable items", uri)
	}

	option = models.DegradedOption(option, len(refs))

	switch option {
	case models.QueueReplace:
		q.Load(refs)
		return q.PlayIndex(ctx, 0)
	case models.QueuePlay:
		q.Insert(refs, 0)
		q.mu.Lock()
		idx := q.state.CurIndex
		if idx < 0 {
			idx = 0
		}
		q.mu.Unlock()
		return q.PlayIndex(ctx, idx)
	case models.QueueNext:
		q.Insert(refs, 1)
		return nil
	case models.QueueAdd:
		q.Append(refs)
		return nil
	default:
		return fmt.Errorf("queue: unknown play option %q", option)
	}
}

// PlayIndex starts playback of the item at index i: resolve its stream,
// record the transport URL and instruct the player driver.
func (q *Queue) PlayIndex(ctx context.Context, i int) error {
	q.mu.Lock()
	if i < 0 || i >= len(q.state.Items) {
		q.mu.Unlock()
		return fmt.Errorf("queue: index %d out of range", i)
	}
	item := q.state.Items[i]
	playerID := q.state.PlayerID
	q.mu.Unlock()

	mappings, err := q.mappingsForRef(ctx, item.MediaItemRef)
	if err != nil {
		return err
	}

	_, url, err := q.manager.coordinator.Resolve(ctx, playerID, item, mappings)
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.state.Items[i].StreamURL = url
	q.state.Items[i].ElapsedTime = 0
	q.state.CurIndex = i
	q.state.State = models.PlayerStatePlaying
	q.mu.Unlock()

	if q.manager.hooks.Play != nil {
		return q.manager.hooks.Play(ctx, playerID, url)
	}
	return nil
}

// Next advances per repeat/shuffle settings; at the end with repeat off the
// queue stops and the player returns to IDLE.
func (q *Queue) Next(ctx context.Context) error {
	q.mu.Lock()
	next, ok := q.nextIndexLocked()
	playerID := q.state.PlayerID
	q.mu.Unlock()

	if !ok {
		return q.stopInternal(ctx, playerID)
	}
	return q.PlayIndex(ctx, next)
}

// Previous steps back one item, clamping at the head of the queue.
func (q *Queue) Previous(ctx context.Context) error {
	q.mu.Lock()
	prev := q.state.CurIndex - 1
	if prev < 0 {
		prev = 0
	}
	empty := len(q.state.Items) == 0
	q.mu.Unlock()
	if empty {
		return nil
	}
	return q.PlayIndex(ctx, prev)
}

// Resume restarts playback at the current index, or the head when the
// queue has not started yet.
func (q *Queue) Resume(ctx context.Context) error {
	q.mu.Lock()
	idx := q.state.CurIndex
	empty := len(q.state.Items) == 0
	q.mu.Unlock()
	if empty {
		return fmt.Errorf("queue: nothing to resume")
	}
	if idx < 0 {
		idx = 0
	}
	return q.PlayIndex(ctx, idx)
}

// mappingsForRef loads the provider mappings playback needs; tracks and
// radios are the only queueable entity kinds.
func (q *Queue) mappingsForRef(ctx context.Context, ref models.ItemMapping) (models.ProviderMappingSet, error) {
	switch ref.MediaType {
	case models.MediaTypeRadio:
		radio, err := q.manager.lib.Radios.Get(ctx, ref.ItemID, ref.Provider, media.GetOptions{Lazy: true})
		if err != nil {
			return nil, err
		}
		return radio.ProviderMappings, nil
	default:
		track, err := q.manager.lib.GetTrackByURI(ctx, ref.URI)
		if err != nil {
			return nil, err
		}
		return track.ProviderMappings, nil
	}
}

func (q *Queue) stopInternal(ctx context.Context, playerID string) error {
	q.mu.Lock()
	q.state.State = models.PlayerStateIdle
	q.mu.Unlock()
	if q.manager.hooks.Stop != nil {
		return q.manager.hooks.Stop(ctx, playerID)
	}
	return nil
}

// nextIndexLocked computes the next index per repeat mode. ok=false means
// the queue is exhausted.
func (q *Queue) nextIndexLocked() (int, bool) {
	n := len(q.state.Items)
	if n == 0 {
		return 0, false
	}
	switch q.state.Repeat {
	case models.RepeatOne:
		if q.state.CurIndex < 0 {
			return 0, true
		}
		return q.state.CurIndex, true
	case models.RepeatAll:
		return (q.state.CurIndex + 1) % n, true
	default:
		next := q.state.CurIndex + 1
		if next >= n {
			return 0, false
		}
		return next, true
	}
}

// SetShuffle toggles shuffle; enabling it reshuffles everything after the
// current item, keeping history order intact.
func (q *Queue) SetShuffle(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state.Shuffle == enabled {
		return
	}
	q.state.Shuffle = enabled
	if enabled {
		q.shuffleLocked(q.state.CurIndex + 1)
		q.renumberLocked()
	}
}

func (q *Queue) shuffleLocked(from int) {
	if from < 0 {
		from = 0
	}
	tail := q.state.Items[from:]
	rand.Shuffle(len(tail), func(i, j int) { tail[i], tail[j] = tail[j], tail[i] })
}

// SetRepeat sets the repeat mode.
func (q *Queue) SetRepeat(mode models.RepeatMode) {
	q.mu.Lock()
	q.state.Repeat = mode
	q.mu.Unlock()
}

// SetCrossfade sets the crossfade duration in seconds.
func (q *Queue) SetCrossfade(seconds float64) {
	q.mu.Lock()
	q.state.CrossfadeDuration = seconds
	q.mu.Unlock()
}

// UpdateElapsed records playback progress for the current item and, when
// the crossfade trigger point is reached, prefetches the next item's
// stream details so gapless-capable players can transition.
func (q *Queue) UpdateElapsed(ctx context.Context, elapsed, currentDuration float64) {
	q.mu.Lock()
	cur := q.state.Current()
	if cur != nil {
		cur.ElapsedTime = elapsed
	}
	shouldPrefetch := q.state.ShouldCrossfade(currentDuration)
	next, ok := q.nextIndexLocked()
	var nextItem models.QueueItem
	if ok && next != q.state.CurIndex {
		nextItem = q.state.Items[next]
	} else {
		ok = false
	}
	playerID := q.state.PlayerID
	q.mu.Unlock()

	if !shouldPrefetch || !ok {
		return
	}
	go func() {
		track, err := q.manager.lib.GetTrackByURI(context.Background(), nextItem.MediaItemRef.URI)
		if err != nil {
			q.manager.logger.Debug("crossfade prefetch failed", zap.Error(err))
			return
		}
		if _, _, err := q.manager.coordinator.Resolve(context.Background(), playerID, nextItem, track.ProviderMappings); err != nil {
			q.manager.logger.Debug("crossfade prefetch resolve failed", zap.Error(err))
		}
	}()
}
