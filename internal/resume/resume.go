// Package resume turns an uploaded résumé into a structured Profile.
package resume

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
)

type Category string

const (
	CategoryTechnical     Category = "technical"
	CategorySoft          Category = "soft"
	CategoryDomain        Category = "domain"
	CategoryCertification Category = "certification"
)

var Categories = []Category{CategoryTechnical, CategorySoft, CategoryDomain, CategoryCertification}

// ParseCategory maps free text to a Category, defaulting to technical.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(Categories, c) {
		return c
	}
	return CategoryTechnical
}

type Skill struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// Years is an experience range. A single stated value has Min == Max.
type Years struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Known bool    `json:"known"`
}

type Profile struct {
	Text       string    `json:"-"`
	Skills     []Skill   `json:"skills"`
	Experience Years     `json:"experience"`
	Education  Education `json:"education"`
}

// HasSkill reports whether the profile lists name, ignoring case.
func (p *Profile) HasSkill(name string) bool {
	for _, s := range p.Skills {
		if strings.EqualFold(s.Name, name) {
			return true
		}
	}
	return false
}

func (p *Profile) SkillNames() []string {
	names := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	return names
}

// WithYears returns a copy of the profile with the experience replaced.
func (p *Profile) WithYears(years float64) *Profile {
	clone := *p
	clone.Skills = append([]Skill(nil), p.Skills...)
	clone.Experience = Years{Min: years, Max: years, Known: true}
	return &clone
}

// Document is an uploaded file. MIME may be empty.
type Document struct {
	Name string
	MIME string
	Data []byte
}

type Extractor struct {
	vocabulary *Vocabulary
	skills     ai.SkillExtractor
	logger     *zap.Logger
}

type Option func(*Extractor)

func WithVocabulary(v *Vocabulary) Option {
	return func(e *Extractor) {
		if v != nil {
			e.vocabulary = v
		}
	}
}

// WithSkillExtractor adds a language-model pass on top of the vocabulary match.
func WithSkillExtractor(s ai.SkillExtractor) Option {
	return func(e *Extractor) {
		e.skills = s
	}
}

func NewExtractor(logger *zap.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Extractor{
		vocabulary: DefaultVocabulary(),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Extractor) Vocabulary() *Vocabulary {
	return e.vocabulary
}

// Extract reads the document text and builds a Profile from it.
// Unreadable or empty documents yield an EXTRACTION error.
func (e *Extractor) Extract(ctx context.Context, doc Document) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := ReadText(doc)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("resume text extracted",
		zap.String("document", doc.Name),
		zap.Int("length", len(text)),
	)

	return e.FromText(ctx, text), nil
}

// FromText builds a Profile from already extracted text.
func (e *Extractor) FromText(ctx context.Context, text string) *Profile {
	profile := &Profile{
		Text:       text,
		Skills:     e.vocabulary.Find(text),
		Experience: ExperienceYears(text),
		Education:  EducationLevel(text),
	}

	if e.skills != nil {
		extra, err := e.skills.ExtractSkills(ctx, text)
		if err != nil {
			e.logger.Warn("language model skill extraction failed, using vocabulary only", zap.Error(err))
		} else {
			profile.Skills = e.merge(profile.Skills, extra)
		}
	}

	e.logger.Info("resume profile built",
		zap.Int("skills", len(profile.Skills)),
		zap.Bool("experience_known", profile.Experience.Known),
		zap.Float64("experience_years", profile.Experience.Max),
		zap.Stringer("education", profile.Education),
	)

	return profile
}

func (e *Extractor) merge(skills []Skill, extra []ai.Skill) []Skill {
	seen := make(map[string]struct{}, len(skills)+len(extra))
	for _, s := range skills {
		seen[strings.ToLower(s.Name)] = struct{}{}
	}

	for _, s := range extra {
		skill, ok := e.vocabulary.Canonical(s.Name)
		if !ok {
			skill = Skill{Name: strings.TrimSpace(s.Name), Category: ParseCategory(s.Category)}
		}

		key := strings.ToLower(skill.Name)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, skill)
	}

	return skills
}
