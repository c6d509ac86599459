package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/agent"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm"
)

type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Service turns a photo into validated ingredient records, retrying failed
// invocations and unparseable replies with linear backoff. It persists nothing.
type Service struct {
	agent     agent.Invoker
	converter Converter
	cfg       Config
	log       *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Service)

func WithConverter(c Converter) Option {
	return func(s *Service) {
		if c != nil {
			s.converter = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSleep replaces the backoff wait; it must return ctx.Err() when ctx ends first.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

func NewService(inv agent.Invoker, cfg Config, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay < 0 {
		cfg.BaseDelay = 0
	}
	s := &Service{
		agent:     inv,
		converter: PassthroughConverter{},
		cfg:       cfg,
		log:       logger,
		now:       time.Now,
		sleep:     sleepCtx,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ExtractIngredients runs up to MaxAttempts sequential attempts. Attempt k failing
// waits k*BaseDelay before attempt k+1. After the last failure it returns a single
// *ExhaustedError wrapping the final cause.
func (s *Service) ExtractIngredients(ctx context.Context, req Request) ([]entity.Ingredient, error) {
	if len(req.Image.Data) == 0 {
		return nil, common.NewAppError("INVALID_IMAGE", "image is empty", common.ErrInvalidInput)
	}
	img := req.Image
	if img.Name == "" {
		img.Name = constants.AttachmentName
	}
	if img.MediaType == "" {
		img.MediaType = constants.DefaultImageMediaType
	}

	rid := uuid.New().String()
	start := time.Now()

	converted, err := s.converter.Convert(ctx, img)
	if err != nil {
		s.log.Error("extract.convert.error", "req_id", rid, "media_type", img.MediaType, "error", err)
		return nil, fmt.Errorf("convert image: %w", err)
	}
	att := &agent.Attachment{Name: converted.Name, MediaType: converted.MediaType, Data: converted.Data}
	prompt := llm.BuildIngredientPrompt(req.Prompt, s.now())

	s.log.Info("extract.start",
		"req_id", rid,
		"max_attempts", s.cfg.MaxAttempts,
		"image_bytes", len(img.Data),
		"attachment_type", att.MediaType,
	)

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		items, err := s.attempt(ctx, prompt, att)
		if err == nil {
			s.log.Info("extract.ok",
				"req_id", rid,
				"attempt", attempt,
				"items", len(items),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return items, nil
		}
		lastErr = err
		s.log.Warn("extract.attempt.failed",
			"req_id", rid,
			"attempt", attempt,
			"max_attempts", s.cfg.MaxAttempts,
			"error", err,
		)
		if attempt == s.cfg.MaxAttempts {
			break
		}

		delay := time.Duration(attempt) * s.cfg.BaseDelay
		if werr := s.sleep(ctx, delay); werr != nil {
			s.log.Error("extract.aborted", "req_id", rid, "attempt", attempt, "error", werr)
			return nil, &ExhaustedError{Attempts: attempt, Err: werr}
		}
	}

	s.log.Error("extract.exhausted",
		"req_id", rid,
		"attempts", s.cfg.MaxAttempts,
		"error", lastErr,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil, &ExhaustedError{Attempts: s.cfg.MaxAttempts, Err: lastErr}
}

func (s *Service) attempt(ctx context.Context, prompt string, att *agent.Attachment) ([]entity.Ingredient, error) {
	text, err := s.agent.Invoke(ctx, prompt, att)
	if err != nil {
		return nil, err
	}
	raw, err := llm.DecodeIngredients(text)
	if err != nil {
		return nil, err
	}
	return llm.Enrich(raw, s.now()), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
