package queue

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"harmonia/internal/config"
	"harmonia/internal/database"
	"harmonia/internal/eventbus"
	"harmonia/internal/media"
	"harmonia/internal/models"
	"harmonia/internal/provider"
	"harmonia/internal/provider/providertest"
	"harmonia/internal/stream"
)

func newTestManager(t *testing.T) (*Manager, *provider.Registry, *recorder) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	registry := provider.NewRegistry()
	lib := media.NewLibrary(db, registry, eventbus.New(), nil, zap.NewNop())
	coord := stream.NewCoordinator(registry, database.NewLoudnessStore(db), config.StreamConfig{Host: "127.0.0.1", Port: 8096}, zap.NewNop())

	m := NewManager(lib, coord, zap.NewNop())
	rec := &recorder{}
	m.SetPlayerHooks(PlayerHooks{Play: rec.play, Stop: rec.stop})
	return m, registry, rec
}

type recorder struct {
	played  []string
	stopped int
}

func (r *recorder) play(ctx context.Context, playerID, url string) error {
	r.played = append(r.played, url)
	return nil
}

func (r *recorder) stop(ctx context.Context, playerID string) error {
	r.stopped++
	return nil
}

func refs(n int) []models.ItemMapping {
	out := make([]models.ItemMapping, n)
	for i := range out {
		id := fmt.Sprintf("t%d", i)
		out[i] = models.ItemMapping{
			MediaType: models.MediaTypeTrack, ItemID: id, Provider: "fake",
			Name: "Track " + id, URI: "track://fake/" + id,
		}
	}
	return out
}

func registerAlbumProvider(registry *provider.Registry, trackCount int) *providertest.Fake {
	fake := providertest.New("fake", "fakemusic",
		provider.CapabilityAlbumMetadata, provider.CapabilityTrackMetadata)
	tracks := make([]*models.Track, trackCount)
	for i := range tracks {
		id := fmt.Sprintf("t%d", i)
		tr := &models.Track{
			BaseItem: models.BaseItem{
				ItemID: id, Provider: "fake", Name: "Track " + id,
				ProviderMappings: models.ProviderMappingSet{{
					ProviderInstance: "fake", ProviderDomain: "fakemusic", ItemID: id, Available: true,
					AudioFormat: &models.AudioFormat{BitRateKbps: 320, Codec: "ogg"},
				}},
			},
			DurationSeconds: 180,
		}
		tr.EnsureDerived(models.MediaTypeTrack)
		tracks[i] = tr
		fake.Tracks[id] = tr
	}
	fake.AlbumTracks["alb30"] = tracks
	registry.Register(fake)
	return fake
}

func TestLoadPreservesOrder(t *testing.T) {
	m, _, _ := newTestManager(t)
	q := m.Get("p1")

	q.Load(refs(5))
	snap := q.Snapshot()
	require.Len(t, snap.Items, 5)
	for i, item := range snap.Items {
		assert.Equal(t, fmt.Sprintf("t%d", i), item.MediaItemRef.ItemID, "provided order preserved")
		assert.Equal(t, i, item.Position)
		assert.NotEmpty(t, item.QueueItemID)
	}
	assert.Equal(t, -1, snap.CurIndex)
}

func TestInsertOffsets(t *testing.T) {
	m, _, _ := newTestManager(t)
	q := m.Get("p1")
	q.Load(refs(3))

	q.mu.Lock()
	q.state.CurIndex = 1
	q.mu.Unlock()

	q.Insert([]models.ItemMapping{{MediaType: models.MediaTypeTrack, ItemID: "next", Provider: "fake", URI: "track://fake/next"}}, 1)
	snap := q.Snapshot()
	require.Len(t, snap.Items, 4)
	assert.Equal(t, "next", snap.Items[2].MediaItemRef.ItemID, "offset 1 means play next")

	q.Append(refs(1))
	snap = q.Snapshot()
	assert.Equal(t, "t0", snap.Items[len(snap.Items)-1].MediaItemRef.ItemID)
}

func TestPlayMediaReplace(t *testing.T) {
	m, registry, rec := newTestManager(t)
	registerAlbumProvider(registry, 3)
	q := m.Get("p1")

	err := q.PlayMedia(context.Background(), "album://fake/alb30", models.QueueReplace)
	require.NoError(t, err)

	snap := q.Snapshot()
	assert.Len(t, snap.Items, 3)
	assert.Equal(t, 0, snap.CurIndex)
	assert.Equal(t, models.PlayerStatePlaying, snap.State)
	require.Len(t, rec.played, 1)
	assert.Contains(t, rec.played[0], "/stream/p1/")
}

func TestPlayMediaNextDegradesToReplaceOnLongExpansion(t *testing.T) {
	m, registry, _ := newTestManager(t)
	registerAlbumProvider(registry, 30)
	q := m.Get("p1")
	q.Load(refs(2))

	// 30 tracks with option NEXT exceeds the clamp and degrades to
	// REPLACE.
	err := q.PlayMedia(context.Background(), "album://fake/alb30", models.QueueNext)
	require.NoError(t, err)

	snap := q.Snapshot()
	assert.Len(t, snap.Items, 30, "queue ends with exactly the expansion")
	assert.Equal(t, 0, snap.CurIndex)
}

func TestPlayMediaAddAppends(t *testing.T) {
	m, registry, rec := newTestManager(t)
	registerAlbumProvider(registry, 30)
	q := m.Get("p1")
	q.Load(refs(2))

	err := q.PlayMedia(context.Background(), "album://fake/alb30", models.QueueAdd)
	require.NoError(t, err)

	snap := q.Snapshot()
	assert.Len(t, snap.Items, 32, "ADD never degrades")
	assert.Empty(t, rec.played, "ADD does not start playback")
}

func TestNextAdvancesAndStopsAtEnd(t *testing.T) {
	m, registry, rec := newTestManager(t)
	registerAlbumProvider(registry, 2)
	q := m.Get("p1")

	require.NoError(t, q.PlayMedia(context.Background(), "album://fake/alb30", models.QueueReplace))
	require.NoError(t, q.Next(context.Background()))
	assert.Equal(t, 1, q.Snapshot().CurIndex)

	// End of queue with repeat off: stop, player back to IDLE.
	require.NoError(t, q.Next(context.Background()))
	assert.Equal(t, models.PlayerStateIdle, q.Snapshot().State)
	assert.Equal(t, 1, rec.stopped)
}

func TestRepeatModes(t *testing.T) {
	m, registry, _ := newTestManager(t)
	registerAlbumProvider(registry, 2)
	q := m.Get("p1")
	require.NoError(t, q.PlayMedia(context.Background(), "album://fake/alb30", models.QueueReplace))

	q.SetRepeat(models.RepeatOne)
	require.NoError(t, q.Next(context.Background()))
	assert.Equal(t, 0, q.Snapshot().CurIndex, "repeat one stays put")

	q.SetRepeat(models.RepeatAll)
	require.NoError(t, q.Next(context.Background()))
	require.NoError(t, q.Next(context.Background()))
	assert.Equal(t, 0, q.Snapshot().CurIndex, "repeat all wraps")
}

func TestPreviousClampsAtHead(t *testing.T) {
	m, registry, _ := newTestManager(t)
	registerAlbumProvider(registry, 2)
	q := m.Get("p1")
	require.NoError(t, q.PlayMedia(context.Background(), "album://fake/alb30", models.QueueReplace))

	require.NoError(t, q.Previous(context.Background()))
	assert.Equal(t, 0, q.Snapshot().CurIndex)
}

func TestShuffleKeepsItemSet(t *testing.T) {
	m, _, _ := newTestManager(t)
	q := m.Get("p1")
	q.Load(refs(20))
	q.SetShuffle(true)

	snap := q.Snapshot()
	require.Len(t, snap.Items, 20)
	seen := make(map[string]struct{})
	for _, item := range snap.Items {
		seen[item.MediaItemRef.ItemID] = struct{}{}
	}
	assert.Len(t, seen, 20, "shuffle permutes, never drops or duplicates")
}
