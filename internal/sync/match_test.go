package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmonia/internal/models"
	"harmonia/internal/provider"
	"harmonia/internal/provider/providertest"
)

func matchableTrack(providerID, itemID string) *models.Track {
	tr := libraryTrack(providerID, itemID, "Come Together")
	tr.DurationSeconds = 259
	tr.Artists = models.ItemMappingList{{
		MediaType: models.MediaTypeArtist, Name: "The Beatles",
		Provider: providerID, ItemID: "beatles",
	}}
	return tr
}

func waitForSearches(t *testing.T, f *providertest.Fake, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for f.SearchCallCount() < n {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %d search calls, got %d", n, f.SearchCallCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestMatchJobReRunsAfterCompletion(t *testing.T) {
	engine, _, registry, _ := newTestEngine(t)
	searcher := providertest.New("qobuz", "qobuz", provider.CapabilitySearch)
	registry.Register(searcher)

	engine.Start()
	defer engine.Stop()

	track := matchableTrack("spotify", "t1")
	engine.matcher.enqueueTrack(track)
	waitForSearches(t, searcher, 1)

	// The fingerprint is released once the job ran, so re-adding the same
	// entity posts a fresh job. Retry the enqueue since the release can
	// race a single attempt.
	deadline := time.After(2 * time.Second)
	for searcher.SearchCallCount() < 2 {
		engine.matcher.enqueueTrack(track)
		select {
		case <-deadline:
			t.Fatal("second match job never ran; fingerprint still claimed")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestMatchJobDedupsWhileQueued(t *testing.T) {
	engine, _, registry, _ := newTestEngine(t)
	searcher := providertest.New("qobuz", "qobuz", provider.CapabilitySearch)
	registry.Register(searcher)

	// Enqueue twice before the worker starts: the second claim must find
	// the fingerprint taken and drop the job.
	track := matchableTrack("spotify", "t1")
	engine.matcher.enqueueTrack(track)
	engine.matcher.enqueueTrack(track)
	assert.Len(t, engine.matcher.jobs, 1, "duplicate enqueue while queued is dropped")

	engine.Start()
	defer engine.Stop()

	waitForSearches(t, searcher, 1)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, searcher.SearchCallCount(), "only one job ran")
}

func TestMatchFoldsBackNewMapping(t *testing.T) {
	engine, lib, registry, _ := newTestEngine(t)
	ctx := context.Background()

	searcher := providertest.New("qobuz", "qobuz", provider.CapabilitySearch)
	searcher.SearchResults = &provider.SearchResults{
		Tracks: []*models.Track{matchableTrack("qobuz", "q9")},
	}
	registry.Register(searcher)

	engine.Start()
	defer engine.Stop()

	added, err := lib.Tracks.Add(ctx, matchableTrack("spotify", "t1"), false)
	require.NoError(t, err)
	require.Len(t, added.ProviderMappings, 1)

	// The match job searches qobuz, accepts the hit and folds it back
	// through the controller, recording a second mapping.
	deadline := time.After(2 * time.Second)
	for {
		row, err := lib.Tracks.Repo().GetByID(ctx, added.DBID)
		require.NoError(t, err)
		if len(row.ProviderMappings) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("match never folded back, mappings: %d", len(row.ProviderMappings))
		case <-time.After(10 * time.Millisecond):
		}
	}
}
