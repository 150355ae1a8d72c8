package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSortName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Beatles", "beatles"},
		{"A Perfect Circle", "perfect circle"},
		{"An Horse", "horse"},
		{"Radiohead", "radiohead"},
		{"  The Kinks  ", "kinks"},
		{"Therapy?", "therapy?"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CreateSortName(tt.in), tt.in)
	}
}

func TestCreateSortNameIdempotentAndCaseInsensitive(t *testing.T) {
	for _, name := range []string{"The Beatles", "BLUR", "a tribe called quest"} {
		once := CreateSortName(name)
		assert.Equal(t, once, CreateSortName(once), "idempotent for %q", name)
		assert.Equal(t, once, CreateSortName(name), "stable for %q", name)
	}
}

func TestQualityScoreLosslessMonotone(t *testing.T) {
	low := AudioFormat{Lossless: true, SampleRateKHz: 44.1, BitDepth: 16}
	mid := AudioFormat{Lossless: true, SampleRateKHz: 96, BitDepth: 16}
	high := AudioFormat{Lossless: true, SampleRateKHz: 96, BitDepth: 24}

	assert.Less(t, low.QualityScore(), mid.QualityScore())
	assert.Less(t, mid.QualityScore(), high.QualityScore())
}

func TestQualityScoreLossyMonotoneWithinCodec(t *testing.T) {
	low := AudioFormat{BitRateKbps: 128, Codec: "mp3"}
	high := AudioFormat{BitRateKbps: 320, Codec: "mp3"}
	assert.Less(t, low.QualityScore(), high.QualityScore())
}

func TestQualityScoreLosslessBeatsLossy(t *testing.T) {
	flac := AudioFormat{Lossless: true, SampleRateKHz: 44.1, BitDepth: 16}
	ogg := AudioFormat{BitRateKbps: 320, Codec: "ogg"}
	assert.Greater(t, flac.QualityScore(), ogg.QualityScore())
}

func TestProviderMappingSetReplaceOnSameKey(t *testing.T) {
	var set ProviderMappingSet
	set.Add(ProviderMapping{ProviderInstance: "spotify", ItemID: "abc", Available: false})
	set.Add(ProviderMapping{ProviderInstance: "spotify", ItemID: "abc", Available: true})

	require.Len(t, set, 1)
	assert.True(t, set[0].Available, "second insert replaces the first")
}

func TestProviderMappingSetRemove(t *testing.T) {
	var set ProviderMappingSet
	set.Add(ProviderMapping{ProviderInstance: "spotify", ItemID: "abc"})
	set.Add(ProviderMapping{ProviderInstance: "qobuz", ItemID: "def", Available: true})

	set.Remove("spotify")
	require.Len(t, set, 1)
	assert.Equal(t, "qobuz", set[0].ProviderInstance)
	assert.True(t, set.Available())

	set.Remove("qobuz")
	assert.Empty(t, set)
	assert.False(t, set.Available())
}

func TestMetadataMergeRules(t *testing.T) {
	current := Metadata{
		Description: "original",
		Genres:      NewStringSet("rock"),
		Popularity:  10,
		Checksum:    "c0",
	}
	incoming := Metadata{
		Description: "replacement",
		Mood:        "mellow",
		Genres:      NewStringSet("pop"),
		Popularity:  55,
		Checksum:    "c1",
		LastRefresh: 1234,
	}

	merged := current.Merge(incoming, false)

	assert.Equal(t, "original", merged.Description, "scalar keeps current without overwrite")
	assert.Equal(t, "mellow", merged.Mood, "empty scalar takes incoming")
	assert.True(t, merged.Genres.Has("rock") && merged.Genres.Has("pop"), "sets union")
	assert.Equal(t, 55, merged.Popularity, "popularity always overwritable")
	assert.Equal(t, "c1", merged.Checksum, "checksum always overwritable")
	assert.Equal(t, int64(1234), merged.LastRefresh)

	overwritten := current.Merge(incoming, true)
	assert.Equal(t, "replacement", overwritten.Description)
}

func TestParseURI(t *testing.T) {
	ref, err := ParseURI("track://spotify/abc123")
	require.NoError(t, err)
	assert.Equal(t, MediaTypeTrack, ref.MediaType)
	assert.Equal(t, "spotify", ref.Provider)
	assert.Equal(t, "abc123", ref.ItemID)
	assert.Equal(t, "track://spotify/abc123", ref.String())

	// Filesystem item ids contain slashes.
	ref, err = ParseURI("track://filesystem_local/Music/Albums/song.flac")
	require.NoError(t, err)
	assert.Equal(t, "Music/Albums/song.flac", ref.ItemID)

	_, err = ParseURI("not-a-uri")
	assert.Error(t, err)
}

func TestDegradedOption(t *testing.T) {
	assert.Equal(t, QueueReplace, DegradedOption(QueuePlay, 30))
	assert.Equal(t, QueueReplace, DegradedOption(QueueNext, 11))
	assert.Equal(t, QueuePlay, DegradedOption(QueuePlay, 10))
	assert.Equal(t, QueueAdd, DegradedOption(QueueAdd, 500))
	assert.Equal(t, QueueReplace, DegradedOption(QueueReplace, 500))
}

func TestGroupChildVolume(t *testing.T) {
	// No volume change: no command reaches any child.
	assert.Equal(t, 40, GroupChildVolume(40, 50, 50, false))

	// Proportional rescale.
	assert.Equal(t, 20, GroupChildVolume(40, 50, 25, false))
	assert.Equal(t, 80, GroupChildVolume(40, 50, 100, false))

	// All children at zero: each child ends at the new group volume.
	assert.Equal(t, 50, GroupChildVolume(0, 0, 50, true))
	assert.Equal(t, 100, GroupChildVolume(0, 0, 100, true))
}

func TestPlayerElapsedFrozenWhenOff(t *testing.T) {
	p := Player{State: PlayerStateOff, ElapsedTime: 42}
	p.FreezeIfOff(99)
	assert.Equal(t, 42.0, p.ElapsedTime, "OFF player never advances elapsed_time")

	p.State = PlayerStatePlaying
	p.FreezeIfOff(99)
	assert.Equal(t, 99.0, p.ElapsedTime)
}

func TestBaseItemEnsureDerived(t *testing.T) {
	b := BaseItem{ItemID: "x1", Provider: "spotify", Name: "The Wall"}
	b.EnsureDerived(MediaTypeAlbum)
	assert.Equal(t, "album://spotify/x1", b.URI)
	assert.Equal(t, "wall", b.SortName)
}

func TestQueueShouldCrossfade(t *testing.T) {
	q := PlayerQueue{
		Items:             []QueueItem{{QueueItemID: "a"}},
		CurIndex:          0,
		CrossfadeDuration: 5,
	}
	q.Items[0].ElapsedTime = 100
	assert.False(t, q.ShouldCrossfade(200))
	q.Items[0].ElapsedTime = 196
	assert.True(t, q.ShouldCrossfade(200))

	q.CrossfadeDuration = 0
	assert.False(t, q.ShouldCrossfade(200), "crossfade disabled")
}
