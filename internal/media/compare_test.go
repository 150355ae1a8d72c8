package media

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"harmonia/internal/models"
)

func TestLooseCompareStrings(t *testing.T) {
	assert.True(t, looseCompareStrings("Come Together", "come together"))
	assert.True(t, looseCompareStrings("Señorita", "Senorita"))
	assert.True(t, looseCompareStrings("Help!", "Help"))
	assert.True(t, looseCompareStrings("Come Together - Remastered", "Come Together"))
	assert.False(t, looseCompareStrings("Come Together", "Let It Be"))
	assert.False(t, looseCompareStrings("", "anything"))
}

func TestCompareArtists(t *testing.T) {
	a := []string{"The Beatles"}
	b := []string{"Beatles", "Paul McCartney"}

	assert.True(t, compareArtists(a, b, true))
	assert.True(t, compareArtists(a, b, false), "every name in a matches")
	assert.False(t, compareArtists([]string{"Oasis"}, b, true))
	assert.False(t, compareArtists(nil, b, true))
}

func TestCompareTrackReflexiveAndSymmetric(t *testing.T) {
	a := trackCompareInput{Name: "Come Together", AlbumName: "Abbey Road", DurationSeconds: 259, Artists: []string{"The Beatles"}}
	b := trackCompareInput{Name: "come together", AlbumName: "abbey road", DurationSeconds: 260, Artists: []string{"Beatles"}}
	c := trackCompareInput{Name: "Something", AlbumName: "Abbey Road", DurationSeconds: 182, Artists: []string{"The Beatles"}}

	assert.True(t, compareTrack(a, a), "reflexive")
	assert.Equal(t, compareTrack(a, b), compareTrack(b, a), "symmetric")
	assert.True(t, compareTrack(a, b))
	assert.False(t, compareTrack(a, c))
	assert.Equal(t, compareTrack(a, c), compareTrack(c, a))
}

func TestCompareTrackDurationWindow(t *testing.T) {
	base := trackCompareInput{Name: "Song", DurationSeconds: 100, Artists: []string{"X"}}
	within := trackCompareInput{Name: "Song", DurationSeconds: 102, Artists: []string{"X"}}
	outside := trackCompareInput{Name: "Song", DurationSeconds: 103, Artists: []string{"X"}}

	assert.True(t, compareTrack(base, within), "within 2s, no album info")
	assert.False(t, compareTrack(base, outside), "outside 2s with no album match")
}

func TestStrictCompareTracks(t *testing.T) {
	a := &models.Track{
		BaseItem:        models.BaseItem{Name: "Come Together"},
		DurationSeconds: 259,
		Artists:         models.ItemMappingList{{Name: "The Beatles"}},
	}
	exact := &models.Track{
		BaseItem:        models.BaseItem{Name: "come together"},
		DurationSeconds: 260,
		Artists:         models.ItemMappingList{{Name: "Beatles"}},
	}
	substringOnly := &models.Track{
		BaseItem:        models.BaseItem{Name: "Come Together - Live"},
		DurationSeconds: 259,
		Artists:         models.ItemMappingList{{Name: "The Beatles"}},
	}

	assert.True(t, StrictCompareTracks(a, exact))
	assert.False(t, StrictCompareTracks(a, substringOnly), "strict pass requires name equality")
	assert.True(t, CompareTracks(a, substringOnly), "loose pass accepts the substring")
}

func TestVersionQuery(t *testing.T) {
	assert.Equal(t, "The Beatles - Come Together", versionQuery("The Beatles", "Come Together", ""))
	assert.Equal(t, "The Beatles - Let It Be, Remastered 2009", versionQuery("The Beatles", "Let It Be", "Remastered 2009"))
}
