package resume

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Mentions above this are treated as noise (dates, salaries).
const maxPlausibleYears = 50

// YearMention is one explicit "N years" style phrase.
type YearMention struct {
	Min float64
	Max float64
	// OpenEnded is set for "N+ years".
	OpenEnded bool
}

var (
	yearRangePattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)\b`)
	yearPattern      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(\+)?\s*(?:years?|yrs?)\b`)
)

// FindYearMentions returns every "N years", "N+ years" and "N-M years"
// phrase in text, in order of appearance.
func FindYearMentions(text string) []YearMention {
	var mentions []YearMention

	// Spans of accepted ranges; a rejected range ("2021 - 3 years") still
	// leaves its trailing "N years" to the single pattern.
	var ranges [][]int
	for _, m := range yearRangePattern.FindAllStringSubmatchIndex(text, -1) {
		lo, errLo := strconv.ParseFloat(text[m[2]:m[3]], 64)
		hi, errHi := strconv.ParseFloat(text[m[4]:m[5]], 64)
		if errLo != nil || errHi != nil {
			continue
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi > maxPlausibleYears {
			continue
		}
		ranges = append(ranges, m)
		mentions = append(mentions, YearMention{Min: lo, Max: hi})
	}

	for _, m := range yearPattern.FindAllStringSubmatchIndex(text, -1) {
		if insideAny(m[0], ranges) {
			continue
		}
		n, err := strconv.ParseFloat(text[m[2]:m[3]], 64)
		if err != nil || n > maxPlausibleYears {
			continue
		}
		mentions = append(mentions, YearMention{Min: n, Max: n, OpenEnded: m[4] >= 0})
	}

	return mentions
}

func insideAny(pos int, spans [][]int) bool {
	for _, s := range spans {
		if pos >= s[0] && pos < s[1] {
			return true
		}
	}
	return false
}

// ExperienceYears picks the largest explicit mention of years of experience.
func ExperienceYears(text string) Years {
	var best Years
	for _, m := range FindYearMentions(text) {
		if !best.Known || m.Max > best.Max {
			best = Years{Min: m.Min, Max: m.Max, Known: true}
		}
	}
	return best
}

// Education levels are ordered; a higher value is a higher degree.
type Education int

const (
	EducationNone Education = iota
	EducationHighSchool
	EducationAssociate
	EducationBachelor
	EducationMaster
	EducationDoctorate
)

var educationNames = map[Education]string{
	EducationNone:       "none",
	EducationHighSchool: "high_school",
	EducationAssociate:  "associate",
	EducationBachelor:   "bachelor",
	EducationMaster:     "master",
	EducationDoctorate:  "doctorate",
}

func (e Education) String() string {
	if name, ok := educationNames[e]; ok {
		return name
	}
	return "education(" + strconv.Itoa(int(e)) + ")"
}

func (e Education) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// Highest first so the first matching level wins.
var educationPatterns = []struct {
	level   Education
	pattern *regexp.Regexp
}{
	{EducationDoctorate, regexp.MustCompile(`(?i)\b(?:ph\.?\s?d|doctorate|doctoral|doctor of)\b`)},
	{EducationMaster, regexp.MustCompile(`(?i)\b(?:master'?s?\s+(?:degree|of|in)|m\.?sc|m\.s|mba|m\.?eng|ma in)\b`)},
	{EducationBachelor, regexp.MustCompile(`(?i)\b(?:bachelor'?s?|b\.?sc|b\.s|b\.a|b\.?eng|b\.?tech|ba in|bs in|undergraduate degree)\b`)},
	{EducationAssociate, regexp.MustCompile(`(?i)\bassociate'?s?\s+(?:degree|of)\b`)},
	{EducationHighSchool, regexp.MustCompile(`(?i)\b(?:high school|secondary school|ged)\b`)},
}

// EducationLevel returns the highest degree mentioned in text.
func EducationLevel(text string) Education {
	for _, p := range educationPatterns {
		if p.pattern.MatchString(text) {
			return p.level
		}
	}
	return EducationNone
}

func (y Years) String() string {
	if !y.Known {
		return "unknown"
	}
	if y.Min == y.Max {
		return strconv.FormatFloat(y.Min, 'f', -1, 64)
	}
	return strings.Join([]string{
		strconv.FormatFloat(y.Min, 'f', -1, 64),
		strconv.FormatFloat(y.Max, 'f', -1, 64),
	}, "-")
}
