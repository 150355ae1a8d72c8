package stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"harmonia/internal/config"
	"harmonia/internal/database"
	"harmonia/internal/models"
	"harmonia/internal/provider"
	"harmonia/internal/provider/providertest"
)

func newTestCoordinator(t *testing.T, cfg config.StreamConfig) (*Coordinator, *provider.Registry, *database.LoudnessStore) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))

	registry := provider.NewRegistry()
	loudness := database.NewLoudnessStore(db)
	return NewCoordinator(registry, loudness, cfg, zap.NewNop()), registry, loudness
}

func e5Mappings(fsAvailable bool) models.ProviderMappingSet {
	return models.ProviderMappingSet{
		{
			ProviderInstance: "filesystem_local", ProviderDomain: "filesystem_local",
			ItemID: "a.flac", Available: fsAvailable,
			AudioFormat: &models.AudioFormat{Lossless: true, SampleRateKHz: 96, BitDepth: 24, ContentType: "audio/flac"},
		},
		{
			ProviderInstance: "spotify", ProviderDomain: "spotify",
			ItemID: "sp1", Available: true,
			AudioFormat: &models.AudioFormat{BitRateKbps: 320, Codec: "ogg", ContentType: "audio/ogg"},
		},
		{
			ProviderInstance: "qobuz", ProviderDomain: "qobuz",
			ItemID: "qb1", Available: true,
			AudioFormat: &models.AudioFormat{Lossless: true, SampleRateKHz: 44.1, BitDepth: 16, ContentType: "audio/flac"},
		},
	}
}

func TestRankMappingsPrefersFileThenQuality(t *testing.T) {
	ranked := RankMappings(e5Mappings(true))
	require.Len(t, ranked, 3)
	assert.Equal(t, "filesystem_local", ranked[0].ProviderInstance)
	assert.Equal(t, "qobuz", ranked[1].ProviderInstance, "lossless 44/16 outranks lossy 320")
	assert.Equal(t, "spotify", ranked[2].ProviderInstance)
}

func TestResolvePicksFilesystemFirst(t *testing.T) {
	coord, registry, _ := newTestCoordinator(t, config.StreamConfig{Host: "127.0.0.1", Port: 8096})

	for _, id := range []string{"filesystem_local", "spotify", "qobuz"} {
		registry.Register(providertest.New(id, id))
	}

	item := models.QueueItem{QueueItemID: "qi-1", MediaItemRef: models.ItemMapping{MediaType: models.MediaTypeTrack, URI: "track://db/1"}}
	details, url, err := coord.Resolve(context.Background(), "player-1", item, e5Mappings(true))
	require.NoError(t, err)
	assert.Equal(t, "filesystem_local", details.Provider)
	assert.Equal(t, "http://127.0.0.1:8096/stream/player-1/qi-1", url)

	stored, ok := coord.Details("qi-1")
	require.True(t, ok)
	assert.Equal(t, details, stored)
}

func TestResolveFallsBackWhenFilesystemUnavailable(t *testing.T) {
	coord, registry, _ := newTestCoordinator(t, config.StreamConfig{Host: "127.0.0.1", Port: 8096})
	for _, id := range []string{"filesystem_local", "spotify", "qobuz"} {
		registry.Register(providertest.New(id, id))
	}

	item := models.QueueItem{QueueItemID: "qi-2", MediaItemRef: models.ItemMapping{MediaType: models.MediaTypeTrack, URI: "track://db/1"}}
	details, _, err := coord.Resolve(context.Background(), "player-1", item, e5Mappings(false))
	require.NoError(t, err)
	assert.Equal(t, "qobuz", details.Provider, "highest lossless score wins once the file tier is gone")
}

func TestResolveSkipsFailingProvider(t *testing.T) {
	coord, registry, _ := newTestCoordinator(t, config.StreamConfig{Host: "127.0.0.1", Port: 8096})

	broken := providertest.New("filesystem_local", "filesystem_local")
	broken.StreamDetailsFn = func(itemID string, mt models.MediaType) (*models.StreamDetails, error) {
		return nil, provider.NewProviderUnavailable("filesystem_local", "share offline", nil)
	}
	registry.Register(broken)
	registry.Register(providertest.New("qobuz", "qobuz"))
	registry.Register(providertest.New("spotify", "spotify"))

	item := models.QueueItem{QueueItemID: "qi-3", MediaItemRef: models.ItemMapping{MediaType: models.MediaTypeTrack, URI: "track://db/1"}}
	details, _, err := coord.Resolve(context.Background(), "player-1", item, e5Mappings(true))
	require.NoError(t, err)
	assert.Equal(t, "qobuz", details.Provider, "first success after a failing mapping wins")
}

func TestResolveNoAvailableMapping(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, config.StreamConfig{})
	item := models.QueueItem{QueueItemID: "qi-4", MediaItemRef: models.ItemMapping{URI: "track://db/1"}}
	_, _, err := coord.Resolve(context.Background(), "p", item, models.ProviderMappingSet{
		{ProviderInstance: "spotify", ItemID: "x", Available: false},
	})
	require.Error(t, err)
	assert.True(t, provider.Is(err, provider.KindMediaNotFound))
}

func TestGainCorrect(t *testing.T) {
	cfg := config.StreamConfig{NormalizationEnabled: true, TargetVolumeLUFS: -14, FallbackGain: -6}
	coord, registry, loudness := newTestCoordinator(t, cfg)
	registry.Register(providertest.New("qobuz", "qobuz"))

	mappings := models.ProviderMappingSet{{
		ProviderInstance: "qobuz", ProviderDomain: "qobuz", ItemID: "qb1", Available: true,
		AudioFormat: &models.AudioFormat{Lossless: true, SampleRateKHz: 44.1, BitDepth: 16},
	}}
	item := models.QueueItem{QueueItemID: "qi-5", MediaItemRef: models.ItemMapping{MediaType: models.MediaTypeTrack, URI: "track://db/1"}}

	// No observation yet: fallback gain applies.
	details, _, err := coord.Resolve(context.Background(), "p", item, mappings)
	require.NoError(t, err)
	assert.Equal(t, -6.0, details.GainCorrect)

	// After the decode pipeline reports loudness, gain = target - observed.
	require.NoError(t, loudness.Set(context.Background(), "qobuz", "qb1", -9.5))
	details, _, err = coord.Resolve(context.Background(), "p", item, mappings)
	require.NoError(t, err)
	assert.Equal(t, -4.5, details.GainCorrect)
	require.NotNil(t, details.Loudness)
	assert.Equal(t, -9.5, *details.Loudness)
}

func TestGainCorrectDisabled(t *testing.T) {
	coord, registry, loudness := newTestCoordinator(t, config.StreamConfig{NormalizationEnabled: false})
	registry.Register(providertest.New("qobuz", "qobuz"))
	require.NoError(t, loudness.Set(context.Background(), "qobuz", "qb1", -9.5))

	mappings := models.ProviderMappingSet{{
		ProviderInstance: "qobuz", ProviderDomain: "qobuz", ItemID: "qb1", Available: true,
	}}
	item := models.QueueItem{QueueItemID: "qi-6", MediaItemRef: models.ItemMapping{MediaType: models.MediaTypeTrack, URI: "track://db/1"}}
	details, _, err := coord.Resolve(context.Background(), "p", item, mappings)
	require.NoError(t, err)
	assert.Zero(t, details.GainCorrect)
}
