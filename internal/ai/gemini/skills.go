package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

//go:embed prompt.md
var systemPrompt string

//go:embed schema.json
var responseSchema string

const defaultMaxLogLength = 200

// SkillExtractor asks Gemini for the skills mentioned in a résumé.
type SkillExtractor struct {
	generator contentGenerator
	model     string
	logger    *zap.Logger
	maxLogLen int
}

type skillsResponse struct {
	Skills []struct {
		Name     string `mapstructure:"name"`
		Category string `mapstructure:"category"`
	} `mapstructure:"skills"`
}

func NewSkillExtractor(generator contentGenerator, model string, log *zap.Logger, maxLogLength int) *SkillExtractor {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &SkillExtractor{
		generator: generator,
		model:     model,
		logger:    logger.WithFields(log, logger.AIFields(Provider, model)...),
		maxLogLen: maxLogLength,
	}
}

var _ ai.SkillExtractor = (*SkillExtractor)(nil)

func (e *SkillExtractor) ExtractSkills(ctx context.Context, resumeText string) ([]ai.Skill, error) {
	resumeText = strings.TrimSpace(resumeText)
	if resumeText == "" {
		return nil, fmt.Errorf("resume text is required")
	}

	e.logger.Debug("gemini skill extraction request",
		zap.Int("resume_length", utf8.RuneCountInString(resumeText)),
		zap.String("resume_preview", utils.TruncateForLog(resumeText, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, systemPrompt, resumeText)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("gemini skill extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return parseSkills(raw)
}

func parseSkills(raw string) ([]ai.Skill, error) {
	cleaned := extractJSON(raw)

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(responseSchema),
		gojsonschema.NewStringLoader(cleaned),
	)
	if err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return nil, fmt.Errorf("gemini response does not match schema: %s", strings.Join(problems, "; "))
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	var decoded skillsResponse
	if err := mapstructure.Decode(data, &decoded); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	seen := make(map[string]struct{}, len(decoded.Skills))
	skills := make([]ai.Skill, 0, len(decoded.Skills))
	for _, s := range decoded.Skills {
		name := strings.TrimSpace(s.Name)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		skills = append(skills, ai.Skill{Name: name, Category: s.Category})
	}

	return skills, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
