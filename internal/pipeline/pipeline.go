// Package pipeline runs one job search end to end: résumé extraction,
// scraping, filtering, scoring and ranking.
package pipeline

import (
	"context"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/spigell/jobmatch/internal/errors"
	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/logger"
	"github.com/spigell/jobmatch/internal/ranking"
	"github.com/spigell/jobmatch/internal/resume"
	"github.com/spigell/jobmatch/internal/scoring"
)

const (
	SurfaceCLI = "cli"
	SurfaceWeb = "web"
)

type Extractor interface {
	Extract(ctx context.Context, doc resume.Document) (*resume.Profile, error)
}

type Searcher interface {
	Search(ctx context.Context, params *linkedin.SearchParams) iter.Seq[*linkedin.Listing]
}

// Options are the read-only settings shared by every run.
type Options struct {
	Filters    filtering.Config
	Scoring    scoring.Options
	Rank       ranking.Options
	Vocabulary *resume.Vocabulary
}

// Request is the input of a single run.
type Request struct {
	Document resume.Document
	Search   linkedin.SearchParams
	// DesiredYears replaces the experience found in the résumé when set.
	DesiredYears *float64
}

// Result is what a run produced. Listings holds everything that survived the
// filters; Ranked is the scored and truncated view of it.
type Result struct {
	RunID    string
	Profile  *resume.Profile
	Listings *linkedin.Listings
	Ranked   []*scoring.MatchResult
	// Skipped counts listings that could not be scored.
	Skipped int
}

type Pipeline struct {
	logger    *zap.Logger
	extractor Extractor
	searcher  Searcher
	opts      Options
	surface   string
	newID     func() string
}

func New(log *zap.Logger, extractor Extractor, searcher Searcher, surface string, opts Options) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		logger:    log,
		extractor: extractor,
		searcher:  searcher,
		opts:      opts,
		surface:   surface,
		newID:     uuid.NewString,
	}
}

// Run executes every stage in order. An unreadable résumé or invalid search
// input stops the run before any request is made.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result := &Result{RunID: p.newID()}
	log := logger.WithFields(p.logger, logger.RunFields(result.RunID, p.surface)...)

	if err := req.Search.Validate(); err != nil {
		return result, err
	}

	profile, err := p.extractor.Extract(ctx, req.Document)
	if err != nil {
		log.Error("resume extraction failed", zap.String("document", req.Document.Name), zap.Error(err))
		return result, err
	}
	if req.DesiredYears != nil {
		profile = profile.WithYears(*req.DesiredYears)
		log.Info("experience overridden by desired years", zap.Float64("years", *req.DesiredYears))
	}
	result.Profile = profile

	log.Info("starting the search",
		zap.String("keywords", req.Search.Keywords),
		zap.String("location", req.Search.Location),
		zap.Any("work_types", req.Search.WorkTypes),
	)

	listings := linkedin.Collect(p.searcher.Search(ctx, &req.Search))
	if err := ctx.Err(); err != nil {
		return result, err
	}
	log.Info("getting listings", zap.Int("count", listings.Len()))

	cfg := p.opts.Filters
	steps := filtering.Default(&cfg)
	listings, err = filtering.Run(ctx, &cfg, filtering.Deps{Logger: log}, steps, listings)
	if err != nil {
		if ctx.Err() != nil {
			return result, err
		}
		return result, apperrors.Internal("filtering listings", err)
	}
	for _, status := range filtering.Describe(steps) {
		log.Debug("filter status",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}
	result.Listings = listings

	prefs := scoring.Preferences{Location: req.Search.Location, WorkTypes: req.Search.WorkTypes}
	scorer := scoring.New(log, p.opts.Vocabulary, prefs, p.opts.Scoring)

	scored := make([]*scoring.MatchResult, 0, listings.Len())
	for _, listing := range listings.Items {
		match, err := scorer.Score(profile, listing)
		if err != nil {
			result.Skipped++
			log.Warn("excluding listing from ranking",
				zap.String("listing_id", listing.ID),
				zap.String("kind", string(apperrors.KindOf(err))),
				zap.Error(err),
			)
			continue
		}
		scored = append(scored, match)
	}

	result.Ranked = ranking.Rank(scored, p.opts.Rank)

	log.Info("run finished",
		zap.Int("scored", len(scored)),
		zap.Int("skipped", result.Skipped),
		zap.Int("ranked", len(result.Ranked)),
	)

	return result, nil
}
