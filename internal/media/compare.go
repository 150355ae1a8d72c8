// Package media implements the per-entity library controllers: CRUD plus
// cross-provider dedup and matching, each controller a raw-SQL service
// wrapping a mutex-guarded add critical section.
package media

import (
	"strings"
	"unicode"

	"harmonia/internal/models"
)

// looseCompareStrings case-folds, strips diacritics and non-alphanumerics,
// then checks for a substring match either way.
func looseCompareStrings(a, b string) bool {
	na, nb := normalizeLoose(a), normalizeLoose(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func normalizeLoose(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(stripDiacritic(r))
		}
	}
	return b.String()
}

// stripDiacritic maps a handful of common accented Latin letters to their
// plain form. A full Unicode normalisation pass is left to the external
// metadata-enrichment collaborator; this primitive only needs to be good
// enough for loose title/artist matching.
func stripDiacritic(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ä', 'ã', 'å':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'ö', 'õ':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ñ':
		return 'n'
	case 'ç':
		return 'c'
	default:
		return r
	}
}

// compareArtists pairwise loose-compares two artist name lists. If anyMatch
// is true, one matching pair is enough; otherwise every name in a must find
// a match in b.
func compareArtists(a, b []string, anyMatch bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for _, na := range a {
		matched := false
		for _, nb := range b {
			if looseCompareStrings(na, nb) {
				matched = true
				break
			}
		}
		if matched && anyMatch {
			return true
		}
		if !matched && !anyMatch {
			return false
		}
	}
	return !anyMatch
}

// trackCompareInput is the reduced shape compareTrack needs from a Track,
// avoiding a dependency on the full models.Track for this pure comparison.
type trackCompareInput struct {
	Name            string
	AlbumName       string
	DurationSeconds float64
	Artists         []string
}

// compareTrack decides whether two tracks are the same recording: names
// loose-match AND (albums loose-match OR durations within 2s) AND the
// artist sets intersect. Reflexive and symmetric, since every sub-check
// is itself symmetric.
func compareTrack(a, b trackCompareInput) bool {
	if !looseCompareStrings(a.Name, b.Name) {
		return false
	}
	albumMatch := a.AlbumName != "" && b.AlbumName != "" && looseCompareStrings(a.AlbumName, b.AlbumName)
	durationMatch := a.DurationSeconds > 0 && b.DurationSeconds > 0 &&
		absFloat(a.DurationSeconds-b.DurationSeconds) <= 2
	if !albumMatch && !durationMatch {
		return false
	}
	return compareArtists(a.Artists, b.Artists, true)
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// LooseMatch is the exported form of looseCompareStrings for collaborators
// outside this package (the sync engine's match jobs).
func LooseMatch(a, b string) bool { return looseCompareStrings(a, b) }

// ArtistsIntersect reports whether two artist-reference lists share at
// least one loosely-matching name.
func ArtistsIntersect(a, b models.ItemMappingList) bool {
	return compareArtists(itemMappingNames(a), itemMappingNames(b), true)
}

// CompareTracks applies the compare_track primitive to two full tracks.
func CompareTracks(a, b *models.Track) bool {
	return compareTrack(trackInput(a), trackInput(b))
}

// StrictCompareTracks is the strict first pass of the two-pass match
// policy: equal names once case-folded and stripped of diacritics and
// non-alphanumerics, duration within two seconds (when both are known),
// and an intersecting artist set.
func StrictCompareTracks(a, b *models.Track) bool {
	if normalizeLoose(a.Name) != normalizeLoose(b.Name) {
		return false
	}
	if a.DurationSeconds > 0 && b.DurationSeconds > 0 &&
		absFloat(a.DurationSeconds-b.DurationSeconds) > 2 {
		return false
	}
	return ArtistsIntersect(a.Artists, b.Artists)
}

// itemMappingNames extracts display names from an ItemMapping slice, used
// to feed compareArtists from a Track/Album's Artists field.
func itemMappingNames(mappings models.ItemMappingList) []string {
	names := make([]string, len(mappings))
	for i, m := range mappings {
		names[i] = m.Name
	}
	return names
}
