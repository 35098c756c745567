// Package scoring computes how well a job listing matches a résumé profile.
package scoring

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/spigell/jobmatch/internal/errors"
	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/resume"
)

// Composite weights. They sum to 1 so the composite stays in [0,1].
const (
	SkillWeight      = 0.40
	ExperienceWeight = 0.25
	ContentWeight    = 0.20
	LocationWeight   = 0.15
)

// Options tune the sub-scores. Zero values select the defaults.
type Options struct {
	// CategoryWeights weigh required skills by category. Missing categories weigh 1.
	CategoryWeights map[resume.Category]float64 `mapstructure:"category-weights"`
	// NeutralSkill is used when a listing names no recognisable skill.
	NeutralSkill *float64 `mapstructure:"neutral-skill"`
	// HalfLife is the gap in years that halves the experience score.
	HalfLife float64 `mapstructure:"half-life"`
	// OverqualifiedFactor scales gaps above the required range.
	OverqualifiedFactor *float64 `mapstructure:"overqualified-factor"`
	// NeutralExperience is used when either side states no years.
	NeutralExperience *float64 `mapstructure:"neutral-experience"`
	// PartialLocationCredit is the most a location match can earn when the
	// work type is not preferred.
	PartialLocationCredit *float64 `mapstructure:"partial-location-credit"`
}

func (o Options) withDefaults() Options {
	if o.HalfLife <= 0 {
		o.HalfLife = 2
	}
	o.NeutralSkill = floatOr(o.NeutralSkill, 0.5)
	o.OverqualifiedFactor = floatOr(o.OverqualifiedFactor, 0.5)
	o.NeutralExperience = floatOr(o.NeutralExperience, 0.5)
	o.PartialLocationCredit = floatOr(o.PartialLocationCredit, 0.5)
	return o
}

func floatOr(v *float64, fallback float64) *float64 {
	if v == nil {
		return &fallback
	}
	clamped := clamp(*v)
	return &clamped
}

// Preferences are the candidate's search preferences relevant to scoring.
type Preferences struct {
	// Location is the desired place; empty or "any" accepts every location.
	Location string
	// WorkTypes are the preferred work types; empty means any.
	WorkTypes []linkedin.WorkType
}

// MatchResult is the score of one listing.
type MatchResult struct {
	Listing    *linkedin.Listing `json:"listing"`
	Score      float64           `json:"score"`
	Skill      float64           `json:"skill"`
	Experience float64           `json:"experience"`
	Content    float64           `json:"content"`
	Location   float64           `json:"location"`
	// MatchedSkills and MissingSkills split the listing's required skills.
	MatchedSkills []string `json:"matched_skills,omitempty"`
	MissingSkills []string `json:"missing_skills,omitempty"`
}

type Scorer struct {
	opts       Options
	prefs      Preferences
	vocabulary *resume.Vocabulary
	validate   *validator.Validate
	logger     *zap.Logger
}

func New(logger *zap.Logger, vocabulary *resume.Vocabulary, prefs Preferences, opts Options) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if vocabulary == nil {
		vocabulary = resume.DefaultVocabulary()
	}

	return &Scorer{
		opts:       opts.withDefaults(),
		prefs:      prefs,
		vocabulary: vocabulary,
		validate:   validator.New(),
		logger:     logger,
	}
}

// Score rates listing against profile. Listings without a title or a valid
// link are SCORE errors.
func (s *Scorer) Score(profile *resume.Profile, listing *linkedin.Listing) (*MatchResult, error) {
	if profile == nil {
		return nil, apperrors.InvalidInput("profile is required", nil)
	}
	if listing == nil {
		return nil, apperrors.Score("listing is nil", nil)
	}
	if err := s.validate.Struct(listing); err != nil {
		return nil, apperrors.Score(fmt.Sprintf("listing %q", listing.ID), err)
	}

	result := &MatchResult{Listing: listing}
	result.Skill, result.MatchedSkills, result.MissingSkills = s.skillScore(profile, listing)
	result.Experience = s.experienceScore(profile.Experience, listing)
	result.Content = ContentSimilarity(profile.Text, listingDocument(listing))
	result.Location = s.locationScore(listing)
	result.Score = Composite(result.Skill, result.Experience, result.Content, result.Location)

	s.logger.Debug("listing scored",
		zap.String("listing_id", listing.ID),
		zap.Float64("score", result.Score),
		zap.Float64("skill", result.Skill),
		zap.Float64("experience", result.Experience),
		zap.Float64("content", result.Content),
		zap.Float64("location", result.Location),
	)

	return result, nil
}

// Composite is the weighted sum of the clamped sub-scores.
func Composite(skill, experience, content, location float64) float64 {
	return clamp(SkillWeight*clamp(skill) +
		ExperienceWeight*clamp(experience) +
		ContentWeight*clamp(content) +
		LocationWeight*clamp(location))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func listingDocument(l *linkedin.Listing) string {
	return l.Title + " " + l.Company + " " + l.Description
}
