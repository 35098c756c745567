package scoring

import (
	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/resume"
)

// skillScore is the category-weighted share of the listing's required skills
// that the profile has.
func (s *Scorer) skillScore(profile *resume.Profile, listing *linkedin.Listing) (float64, []string, []string) {
	required := s.vocabulary.Find(listing.Title + "\n" + listing.Description)
	if len(required) == 0 {
		return *s.opts.NeutralSkill, nil, nil
	}

	var total, matched float64
	var have, missing []string
	for _, skill := range required {
		w := s.categoryWeight(skill.Category)
		total += w
		if profile.HasSkill(skill.Name) {
			matched += w
			have = append(have, skill.Name)
		} else {
			missing = append(missing, skill.Name)
		}
	}

	if total == 0 {
		return *s.opts.NeutralSkill, have, missing
	}

	return clamp(matched / total), have, missing
}

func (s *Scorer) categoryWeight(c resume.Category) float64 {
	if w, ok := s.opts.CategoryWeights[c]; ok && w >= 0 {
		return w
	}
	return 1
}
