package scoring

import (
	"math"
	"regexp"

	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/resume"
)

// Range is a required experience range in years. Max is +Inf when open.
type Range struct {
	Min float64
	Max float64
}

func (r Range) contains(y resume.Years) bool {
	return y.Min >= r.Min && y.Max <= r.Max
}

// Seniority keywords, checked in order when no year count is stated.
var levels = []struct {
	pattern *regexp.Regexp
	rng     Range
}{
	{regexp.MustCompile(`(?i)\bintern(ship)?\b`), Range{Min: 0, Max: 1}},
	{regexp.MustCompile(`(?i)\b(entry[- ]level|junior|graduate)\b`), Range{Min: 0, Max: 2}},
	{regexp.MustCompile(`(?i)\bmid[- ]level\b`), Range{Min: 3, Max: 5}},
	{regexp.MustCompile(`(?i)\b(senior|lead|principal|staff)\b`), Range{Min: 5, Max: math.Inf(1)}},
}

// ParseRequirement reads the experience a listing asks for. An explicit year
// count wins over seniority words; "N years" and "N+ years" are open-ended.
func ParseRequirement(texts ...string) (Range, bool) {
	var best Range
	found := false
	for _, text := range texts {
		for _, m := range resume.FindYearMentions(text) {
			r := Range{Min: m.Min, Max: m.Max}
			if m.Min == m.Max {
				r.Max = math.Inf(1)
			}
			if !found || r.Min > best.Min {
				best, found = r, true
			}
		}
	}
	if found {
		return best, true
	}

	for _, text := range texts {
		for _, level := range levels {
			if level.pattern.MatchString(text) {
				return level.rng, true
			}
		}
	}

	return Range{}, false
}

// experienceScore is 1 inside the required range and decays with the gap,
// halving every HalfLife years. Being over-qualified counts less than
// being under-qualified.
func (s *Scorer) experienceScore(years resume.Years, listing *linkedin.Listing) float64 {
	req, ok := ParseRequirement(listing.Requirement, listing.Title, listing.Description)
	if !ok || !years.Known {
		return *s.opts.NeutralExperience
	}

	return ExperienceDecay(years, req, s.opts.HalfLife, *s.opts.OverqualifiedFactor)
}

func ExperienceDecay(years resume.Years, req Range, halfLife, overqualifiedFactor float64) float64 {
	if req.contains(years) {
		return 1
	}

	under := math.Max(0, req.Min-years.Min)
	over := 0.0
	if !math.IsInf(req.Max, 1) {
		over = math.Max(0, years.Max-req.Max) * overqualifiedFactor
	}

	return clamp(math.Pow(0.5, (under+over)/halfLife))
}
