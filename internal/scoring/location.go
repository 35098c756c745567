package scoring

import (
	"slices"
	"strings"
	"unicode"

	"github.com/spigell/jobmatch/internal/linkedin"
)

var locationNoise = toSet("greater area metropolitan metro region remote hybrid onsite on site any")

func (s *Scorer) locationScore(listing *linkedin.Listing) float64 {
	if listing.WorkType == linkedin.WorkTypeRemote {
		return 1
	}
	if len(s.prefs.WorkTypes) == 0 || slices.Contains(s.prefs.WorkTypes, listing.WorkType) {
		return 1
	}

	return *s.opts.PartialLocationCredit * LocationOverlap(s.prefs.Location, listing.Location)
}

// LocationOverlap is the share of the desired location's tokens found in the
// listing location. An empty or "any" desired location overlaps fully.
func LocationOverlap(desired, actual string) float64 {
	want := locationTokens(desired)
	if len(want) == 0 {
		return 1
	}

	have := locationTokens(actual)
	hits := 0
	for t := range want {
		if _, ok := have[t]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(want))
}

func locationTokens(s string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, noise := locationNoise[f]; noise {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}
