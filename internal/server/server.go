// Package server is the browser surface: an upload form, a results table
// and a CSV download. Every request runs its own pipeline; nothing is kept
// between requests.
package server

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	apperrors "github.com/spigell/jobmatch/internal/errors"
	"github.com/spigell/jobmatch/internal/pipeline"
)

const (
	appName = "jobmatch"

	defaultMaxUpload = 10 << 20
	// fasthttp does not cancel a handler when the client goes away, so every
	// search runs under a deadline.
	defaultRequestTimeout = 5 * time.Minute
	shutdownTimeout  = 5 * time.Second
)

// Runner executes one search. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

type Options struct {
	Listen string `mapstructure:"listen"`
	// MaxUploadBytes caps the résumé upload and the request body.
	MaxUploadBytes int `mapstructure:"max-upload-bytes"`
	// RequestTimeout bounds a whole search, scraping included. Zero selects
	// the default.
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	// DefaultCount is used when the form leaves the result count empty.
	DefaultCount int `mapstructure:"default-count"`
}

type Server struct {
	app    *fiber.App
	runner Runner
	logger *zap.Logger
	opts   Options
}

func New(logger *zap.Logger, runner Runner, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	s := &Server{
		runner: runner,
		logger: logger,
		opts:   opts,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		BodyLimit:             opts.MaxUploadBytes,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestLogger)

	s.app.Get("/", s.handleIndex)
	s.app.Post("/search", s.handleSearch)
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	return s
}

// App exposes the fiber application, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down the server")
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = statusFor(err)
	}

	s.logger.Debug("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("latency", time.Since(start)),
	)

	return err
}

func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperrors.KindExtraction:
		return fiber.StatusUnprocessableEntity
	case apperrors.KindScrape:
		return fiber.StatusBadGateway
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout
	}

	return fiber.StatusInternalServerError
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	message := err.Error()
	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.Status(code).JSON(fiber.Map{
			"error": message,
			"code":  code,
		})
	}

	return s.render(c.Status(code), "index", indexPage{Error: message, DefaultCount: s.defaultCount()})
}
