package ai

import "context"

// Skill is one skill reported by a language model together with its category
// (technical, soft, domain or certification).
type Skill struct {
	Name     string
	Category string
}

type SkillExtractor interface {
	ExtractSkills(ctx context.Context, resumeText string) ([]Skill, error)
}
