// Package linkedin scrapes the public LinkedIn guest job search.
package linkedin

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/jobmatch/internal/utils"
)

const (
	guestURL  = "https://www.linkedin.com/jobs-guest/jobs/api"
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	// Cards returned by one guest search page.
	perPage = 25

	defaultDelay       = 2 * time.Second
	defaultJitter      = time.Second
	defaultMinInterval = time.Second
	defaultMaxFailures = 3
	defaultTimeout     = 15 * time.Second
)

// Options tune the scraper. Zero values select the defaults.
type Options struct {
	APIURL    string        `mapstructure:"api-url"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	// Delay and Jitter shape the pause between two page fetches. A nil
	// Jitter selects the default; zero keeps the pause fixed.
	Delay  time.Duration  `mapstructure:"delay"`
	Jitter *time.Duration `mapstructure:"jitter"`
	// MinInterval is the minimum spacing of any two requests.
	MinInterval time.Duration `mapstructure:"min-interval"`
	// MaxFailures consecutive failed pages end a query.
	MaxFailures       int  `mapstructure:"max-failures"`
	FetchDescriptions bool `mapstructure:"fetch-descriptions"`
}

// Renderer returns the HTML behind a URL. The default renderer is plain HTTP.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string

	renderer          Renderer
	limiter           *rate.Limiter
	delay             time.Duration
	jitter            time.Duration
	maxFailures       int
	fetchDescriptions bool
	now               func() time.Time
	sleep             func(ctx context.Context, d time.Duration) error
}

func New(logger *zap.Logger, opts Options, renderer Renderer) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		logger:            logger,
		APIURL:            valueOr(opts.APIURL, guestURL),
		UserAgent:         valueOr(opts.UserAgent, userAgent),
		HTTPClient:        &http.Client{Timeout: durationOr(opts.Timeout, defaultTimeout)},
		renderer:          renderer,
		limiter:           rate.NewLimiter(rate.Every(durationOr(opts.MinInterval, defaultMinInterval)), 1),
		delay:             durationOr(opts.Delay, defaultDelay),
		jitter:            defaultJitter,
		maxFailures:       opts.MaxFailures,
		fetchDescriptions: opts.FetchDescriptions,
		now:               time.Now,
		sleep:             utils.WaitFor,
	}

	if opts.Jitter != nil && *opts.Jitter >= 0 {
		c.jitter = *opts.Jitter
	}
	if c.maxFailures <= 0 {
		c.maxFailures = defaultMaxFailures
	}

	return c
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
