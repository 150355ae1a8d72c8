package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"harmonia/internal/models"
	"harmonia/internal/provider"
)

func newTestProvider(t *testing.T) (*Provider, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Albums", "Abbey Road"), 0o755))

	// Untagged but recognisable audio containers; the scanner falls back
	// to file names when tags are unreadable.
	files := []string{
		filepath.Join("Albums", "Abbey Road", "Come Together.mp3"),
		filepath.Join("Albums", "Abbey Road", "Something.flac"),
		filepath.Join("Albums", "notes.txt"),
	}
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), []byte("not really audio"), 0o644))
	}

	p := New("fs-1", NewLocalBackend(root), zap.NewNop())
	require.NoError(t, p.OnStart(context.Background()))
	return p, root
}

func TestDomainCarriesFilesystemPrefix(t *testing.T) {
	p, _ := newTestProvider(t)
	assert.Equal(t, "filesystem_local", p.Domain())
	assert.Equal(t, provider.TypeFilesystem, p.Type())
	assert.True(t, p.Capabilities().Has(provider.CapabilityLibraryTracks))
}

func TestLibraryScanFindsAudioFilesOnly(t *testing.T) {
	p, _ := newTestProvider(t)

	seq, err := p.GetLibraryTracks(context.Background())
	require.NoError(t, err)
	tracks, err := seq.Collect()
	require.NoError(t, err)
	require.Len(t, tracks, 2, "the txt file is skipped")

	names := map[string]bool{}
	for _, tr := range tracks {
		names[tr.Name] = true
		require.Len(t, tr.ProviderMappings, 1)
		m := tr.ProviderMappings[0]
		assert.Equal(t, "fs-1", m.ProviderInstance)
		assert.Equal(t, "filesystem_local", m.ProviderDomain)
		assert.True(t, m.Available)
		require.NotNil(t, m.AudioFormat)
		assert.NotEmpty(t, tr.URI)
		assert.NotEmpty(t, tr.SortName)
	}
	assert.True(t, names["Come Together"])
	assert.True(t, names["Something"])
}

func TestAudioFormatFromExtension(t *testing.T) {
	flac := formatForExtension(".flac")
	require.True(t, flac.Lossless)
	mp3 := formatForExtension(".mp3")
	require.False(t, mp3.Lossless)
	assert.Greater(t, flac.QualityScore(), mp3.QualityScore())
}

func TestGetTrackByPath(t *testing.T) {
	p, _ := newTestProvider(t)

	track, err := p.GetTrack(context.Background(), "Albums/Abbey Road/Something.flac")
	require.NoError(t, err)
	assert.Equal(t, "Something", track.Name)

	_, err = p.GetTrack(context.Background(), "Albums/missing.flac")
	require.Error(t, err)
	assert.True(t, provider.Is(err, provider.KindMediaNotFound))
}

func TestSearchMatchesSubstring(t *testing.T) {
	p, _ := newTestProvider(t)

	results, err := p.Search(context.Background(), "together", []models.MediaType{models.MediaTypeTrack}, 10)
	require.NoError(t, err)
	require.Len(t, results.Tracks, 1)
	assert.Equal(t, "Come Together", results.Tracks[0].Name)
}

func TestStreamDetailsDirectFile(t *testing.T) {
	p, _ := newTestProvider(t)

	details, err := p.GetStreamDetails(context.Background(), "Albums/Abbey Road/Something.flac", models.MediaTypeTrack)
	require.NoError(t, err)
	assert.Equal(t, models.StreamTypeFile, details.StreamType)
	assert.True(t, details.Direct, "local files are served direct")
	assert.Equal(t, "audio/flac", details.ContentType)

	_, err = p.GetStreamDetails(context.Background(), "Albums/notes.txt", models.MediaTypeTrack)
	assert.Error(t, err)
}

func TestWatcherFiresOnChange(t *testing.T) {
	prev := debounceWindow
	debounceWindow = 50 * time.Millisecond
	t.Cleanup(func() { debounceWindow = prev })

	p, root := newTestProvider(t)

	changed := make(chan struct{}, 1)
	require.NoError(t, p.WatchChanges(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))
	t.Cleanup(func() { p.OnStop(context.Background()) })

	require.NoError(t, os.WriteFile(filepath.Join(root, "Albums", "new.mp3"), []byte("x"), 0o644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never fired")
	}
}
