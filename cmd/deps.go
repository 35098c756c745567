package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/jobmatch/internal/ai"
	"github.com/spigell/jobmatch/internal/ai/gemini"
	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/pipeline"
	"github.com/spigell/jobmatch/internal/resume"
	"github.com/spigell/jobmatch/internal/secrets"
)

// newPipeline wires the extractor, the scraper and the shared options. The
// returned func releases the browser when one was started.
func newPipeline(ctx context.Context, config *Config, logger *zap.Logger, surface string) (*pipeline.Pipeline, func()) {
	vocabulary := resume.DefaultVocabulary()
	if len(config.Resume.Vocabulary) > 0 {
		vocabulary = vocabulary.With(config.Resume.Vocabulary...)
	}

	opts := []resume.Option{resume.WithVocabulary(vocabulary)}
	if config.AI != nil && config.AI.Enabled {
		extractor, err := newSkillExtractor(ctx, config.AI, logger)
		if err != nil {
			logger.Warn("skipping language model skill extraction", zap.Error(err))
		} else {
			opts = append(opts, resume.WithSkillExtractor(extractor))
		}
	}

	var renderer linkedin.Renderer
	cleanup := func() {}
	if config.Scrape.Browser {
		browser := linkedin.NewBrowserRenderer(ctx, logger, config.Scrape.BrowserTimeout)
		renderer = browser
		cleanup = browser.Close
	}

	scraper := linkedin.New(logger, config.Scrape.Options, renderer)

	p := pipeline.New(logger, resume.NewExtractor(logger, opts...), scraper, surface, pipeline.Options{
		Filters:    config.Filters,
		Scoring:    config.Scoring,
		Rank:       config.Rank,
		Vocabulary: vocabulary,
	})

	return p, cleanup
}

func newSkillExtractor(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.SkillExtractor, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, fmt.Errorf("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, logger, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries)
	if err != nil {
		return nil, err
	}

	return gemini.NewSkillExtractor(generator, generator.Model(), logger, cfg.Gemini.MaxLogLength), nil
}

func (c *Config) searchParams() (linkedin.SearchParams, error) {
	workTypes, err := linkedin.ParseWorkTypes(c.Search.WorkTypes)
	if err != nil {
		return linkedin.SearchParams{}, err
	}

	return linkedin.SearchParams{
		Keywords:     strings.TrimSpace(c.Search.Keywords),
		Location:     strings.TrimSpace(c.Search.Location),
		WorkTypes:    workTypes,
		Count:        c.Search.Count,
		PostedWithin: c.Search.PostedWithin,
	}, nil
}

func (c *Config) desiredYears() *float64 {
	if c.Search.Years < 0 {
		return nil
	}
	years := c.Search.Years
	return &years
}
