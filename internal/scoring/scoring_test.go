package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spigell/jobmatch/internal/errors"
	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/resume"
)

const tolerance = 1e-9

func profileWith(years float64, skills ...string) *resume.Profile {
	p := &resume.Profile{Text: "Backend engineer working with python and sql"}
	for _, s := range skills {
		p.Skills = append(p.Skills, resume.Skill{Name: s, Category: resume.CategoryTechnical})
	}
	if years >= 0 {
		p.Experience = resume.Years{Min: years, Max: years, Known: true}
	}
	return p
}

func listing(title, description string, wt linkedin.WorkType) *linkedin.Listing {
	return &linkedin.Listing{
		ID:          "1",
		Title:       title,
		Company:     "Acme",
		Location:    "Berlin, Germany",
		Description: description,
		WorkType:    wt,
		Link:        "https://www.linkedin.com/jobs/view/1",
	}
}

func TestScoreCompositeIsWeightedSum(t *testing.T) {
	scorer := New(zap.NewNop(), nil, Preferences{Location: "Berlin"}, Options{})

	result, err := scorer.Score(
		profileWith(4, "Python", "SQL"),
		listing("Data Engineer", "Python, SQL and AWS. 3-5 years of experience.", linkedin.WorkTypeOnsite),
	)
	require.NoError(t, err)

	expected := 0.40*result.Skill + 0.25*result.Experience + 0.20*result.Content + 0.15*result.Location
	assert.InDelta(t, expected, result.Score, tolerance)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)

	assert.InDelta(t, 2.0/3.0, result.Skill, tolerance)
	assert.Equal(t, []string{"Python", "SQL"}, result.MatchedSkills)
	assert.Equal(t, []string{"AWS"}, result.MissingSkills)
	assert.Equal(t, 1.0, result.Experience)
	assert.Equal(t, 1.0, result.Location)
}

func TestCompositeStaysInUnitInterval(t *testing.T) {
	tests := [][4]float64{
		{0, 0, 0, 0},
		{1, 1, 1, 1},
		{2, -1, math.NaN(), 0.5},
		{0.3, 0.7, 0.1, 0.9},
	}

	for _, in := range tests {
		got := Composite(in[0], in[1], in[2], in[3])
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}

	assert.InDelta(t, 1.0, Composite(1, 1, 1, 1), tolerance)
	assert.InDelta(t, 0.40*1+0.25*0+0+0.15*0.5, Composite(2, -1, math.NaN(), 0.5), tolerance)
}

func TestScoreRejectsInvalidListing(t *testing.T) {
	scorer := New(nil, nil, Preferences{}, Options{})

	tests := []struct {
		name    string
		listing *linkedin.Listing
	}{
		{name: "missing link", listing: &linkedin.Listing{ID: "1", Title: "Go Developer"}},
		{name: "missing title", listing: &linkedin.Listing{ID: "2", Link: "https://example.com/2"}},
		{name: "bad link", listing: &linkedin.Listing{ID: "3", Title: "Go Developer", Link: "not a url"}},
		{name: "nil", listing: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scorer.Score(profileWith(3), tt.listing)
			assert.True(t, apperrors.Is(err, apperrors.KindScore), "got %v", err)
		})
	}
}

func TestSkillScore(t *testing.T) {
	scorer := New(nil, nil, Preferences{}, Options{})

	score, matched, missing := scorer.skillScore(profileWith(1, "Go"), listing("Office Manager", "Great coffee", linkedin.WorkTypeOnsite))
	assert.Equal(t, 0.5, score)
	assert.Empty(t, matched)
	assert.Empty(t, missing)

	score, _, _ = scorer.skillScore(profileWith(1, "Go", "Kubernetes"), listing("Go Developer", "Kubernetes", linkedin.WorkTypeOnsite))
	assert.Equal(t, 1.0, score)
}

func TestSkillScoreCategoryWeights(t *testing.T) {
	scorer := New(nil, nil, Preferences{}, Options{
		CategoryWeights: map[resume.Category]float64{resume.CategorySoft: 0.5},
	})

	profile := profileWith(1, "Go")
	score, _, missing := scorer.skillScore(profile, listing("Go Developer", "Strong communication", linkedin.WorkTypeOnsite))

	assert.InDelta(t, 1.0/1.5, score, tolerance)
	assert.Equal(t, []string{"Communication"}, missing)
}

func TestExperienceScore(t *testing.T) {
	scorer := New(nil, nil, Preferences{}, Options{})
	senior := listing("Backend Engineer", "5+ years of experience with Go", linkedin.WorkTypeRemote)

	equal := scorer.experienceScore(profileWith(5).Experience, senior)
	under := scorer.experienceScore(profileWith(3).Experience, senior)
	way := scorer.experienceScore(profileWith(1).Experience, senior)

	assert.Equal(t, 1.0, equal)
	assert.InDelta(t, 0.5, under, tolerance)
	assert.Less(t, under, equal)
	assert.Less(t, way, under)

	unknown := scorer.experienceScore(resume.Years{}, senior)
	assert.Equal(t, 0.5, unknown)

	noRequirement := scorer.experienceScore(profileWith(5).Experience, listing("Engineer", "Nice team", linkedin.WorkTypeRemote))
	assert.Equal(t, 0.5, noRequirement)
}

func TestExperienceOverqualifiedDecaysSlower(t *testing.T) {
	req := Range{Min: 3, Max: 5}

	over := ExperienceDecay(resume.Years{Min: 7, Max: 7, Known: true}, req, 2, 0.5)
	under := ExperienceDecay(resume.Years{Min: 1, Max: 1, Known: true}, req, 2, 0.5)

	assert.InDelta(t, math.Pow(0.5, 0.5), over, tolerance)
	assert.InDelta(t, 0.5, under, tolerance)
	assert.Greater(t, over, under)
	assert.Equal(t, 1.0, ExperienceDecay(resume.Years{Min: 3, Max: 5, Known: true}, req, 2, 0.5))
}

func TestParseRequirement(t *testing.T) {
	inf := math.Inf(1)

	tests := []struct {
		name  string
		texts []string
		want  Range
		found bool
	}{
		{name: "plus", texts: []string{"5+ years"}, want: Range{5, inf}, found: true},
		{name: "range", texts: []string{"3-5 years of experience"}, want: Range{3, 5}, found: true},
		{name: "plain years", texts: []string{"at least 2 years in Go"}, want: Range{2, inf}, found: true},
		{name: "largest minimum", texts: []string{"2 years of Kafka, 4+ years of Go"}, want: Range{4, inf}, found: true},
		{name: "entry level", texts: []string{"Entry-level"}, want: Range{0, 2}, found: true},
		{name: "mid level", texts: []string{"", "Mid-level Engineer"}, want: Range{3, 5}, found: true},
		{name: "senior", texts: []string{"Senior Go Developer"}, want: Range{5, inf}, found: true},
		{name: "internship", texts: []string{"Internship"}, want: Range{0, 1}, found: true},
		{name: "years beat level", texts: []string{"Senior", "2-3 years"}, want: Range{2, 3}, found: true},
		{name: "nothing", texts: []string{"Go Developer"}, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ParseRequirement(tt.texts...)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLocationScore(t *testing.T) {
	tests := []struct {
		name   string
		prefs  Preferences
		wt     linkedin.WorkType
		where  string
		expect float64
	}{
		{name: "remote always", prefs: Preferences{Location: "Paris", WorkTypes: []linkedin.WorkType{linkedin.WorkTypeOnsite}}, wt: linkedin.WorkTypeRemote, where: "Lisbon", expect: 1},
		{name: "any work type", prefs: Preferences{Location: "Paris"}, wt: linkedin.WorkTypeOnsite, where: "Lisbon", expect: 1},
		{name: "preferred work type", prefs: Preferences{WorkTypes: []linkedin.WorkType{linkedin.WorkTypeHybrid}}, wt: linkedin.WorkTypeHybrid, where: "Lisbon", expect: 1},
		{name: "partial credit", prefs: Preferences{Location: "Berlin, Germany", WorkTypes: []linkedin.WorkType{linkedin.WorkTypeRemote}}, wt: linkedin.WorkTypeOnsite, where: "Munich, Germany", expect: 0.25},
		{name: "no overlap", prefs: Preferences{Location: "Berlin", WorkTypes: []linkedin.WorkType{linkedin.WorkTypeRemote}}, wt: linkedin.WorkTypeHybrid, where: "Lisbon, Portugal", expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := New(nil, nil, tt.prefs, Options{})
			l := listing("Go Developer", "", tt.wt)
			l.Location = tt.where

			assert.InDelta(t, tt.expect, scorer.locationScore(l), tolerance)
		})
	}
}

func TestLocationOverlap(t *testing.T) {
	assert.Equal(t, 1.0, LocationOverlap("", "Anywhere"))
	assert.Equal(t, 1.0, LocationOverlap("any", "Anywhere"))
	assert.Equal(t, 1.0, LocationOverlap("Greater Berlin Area", "Berlin, Germany"))
	assert.Equal(t, 0.5, LocationOverlap("Berlin, Germany", "Germany (Remote)"))
}

func TestOptionsDefaults(t *testing.T) {
	zero := 0.0
	tooBig := 3.0
	opts := Options{NeutralSkill: &zero, OverqualifiedFactor: &tooBig}.withDefaults()

	assert.Equal(t, 2.0, opts.HalfLife)
	assert.Equal(t, 0.0, *opts.NeutralSkill)
	assert.Equal(t, 1.0, *opts.OverqualifiedFactor)
	assert.Equal(t, 0.5, *opts.NeutralExperience)
	assert.Equal(t, 0.5, *opts.PartialLocationCredit)
}
