// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pixelsmith/pixelsmith/internal/events"
	"github.com/pixelsmith/pixelsmith/internal/generation"
	"github.com/pixelsmith/pixelsmith/internal/metrics"
	"github.com/pixelsmith/pixelsmith/internal/model"
	"github.com/pixelsmith/pixelsmith/internal/repository"
)

// Service errors.
var (
	ErrPromptRequired      = errors.New("prompt is required")
	ErrPromptTooLong       = errors.New("prompt exceeds maximum length")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrBalanceLookup       = errors.New("credit balance lookup failed")
	ErrContentPolicy       = errors.New("prompt rejected by content policy")
	ErrGenerationFailed    = errors.New("image generation failed")
	ErrGenerationNotFound  = errors.New("generation not found")
	ErrInvalidCursor       = errors.New("invalid pagination cursor")
)

const (
	maxPromptLength = 2000

	defaultPageSize = 20
	maxPageSize     = 100
)

// ImageGenerator produces image bytes for a prompt.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*generation.Image, error)
}

// ObjectStore persists image blobs and returns public URLs.
type ObjectStore interface {
	Put(ctx context.Context, userID string, data []byte, contentType string) (string, error)
}

// CreditLedger manages per-user credit balances.
type CreditLedger interface {
	GetCredits(ctx context.Context, userID string) (*model.CreditBalance, error)
	ReserveCredit(ctx context.Context, userID string) (int, error)
	RefundCredit(ctx context.Context, userID string) (int, error)
}

// GenerationStore persists generation records.
type GenerationStore interface {
	CreateGeneration(ctx context.Context, gen *model.Generation) error
	GetGenerationByID(ctx context.Context, id string) (*model.Generation, error)
	ListGenerations(ctx context.Context, userID, cursor string, limit int) ([]*model.Generation, string, error)
}

// BalanceCache caches credit balances for cheap reads.
type BalanceCache interface {
	GetBalance(ctx context.Context, userID string) (*model.CreditBalance, error)
	SetBalance(ctx context.Context, balance *model.CreditBalance) error
	InvalidateBalance(ctx context.Context, userID string) error
}

// EventPublisher emits generation lifecycle events.
type EventPublisher interface {
	PublishAsync(event events.GenerationEventPayload)
}

// GenerationService orchestrates the credit-gated generation workflow.
type GenerationService struct {
	generator ImageGenerator
	store     ObjectStore
	ledger    CreditLedger
	gens      GenerationStore
	balances  BalanceCache
	publisher EventPublisher
	logger    *slog.Logger
	metrics   metrics.Recorder
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(
	generator ImageGenerator,
	store ObjectStore,
	ledger CreditLedger,
	gens GenerationStore,
	balances BalanceCache,
	publisher EventPublisher,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *GenerationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &GenerationService{
		generator: generator,
		store:     store,
		ledger:    ledger,
		gens:      gens,
		balances:  balances,
		publisher: publisher,
		logger:    logger.With("component", "service.generation"),
		metrics:   recorder,
	}
}

// Generate runs the full workflow for one image: reserve a credit, call
// the upstream model, persist the image, and report the result. A failed
// generation refunds the reserved credit; a failed persistence does not,
// because the user still receives the image inline.
func (s *GenerationService) Generate(ctx context.Context, userID, prompt string) (*model.GenerationResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrPromptRequired
	}
	if len(prompt) > maxPromptLength {
		return nil, ErrPromptTooLong
	}

	s.metrics.IncGenerationRequested()

	remaining, err := s.ledger.ReserveCredit(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCredits) || errors.Is(err, repository.ErrBalanceNotFound) {
			s.metrics.IncInsufficientCredits()
			return nil, ErrInsufficientCredits
		}
		// A lookup failure means no generation was attempted at all,
		// which callers report differently from an upstream failure.
		return nil, fmt.Errorf("%w: %v", ErrBalanceLookup, err)
	}
	s.metrics.IncCreditReserved()
	s.invalidateBalance(ctx, userID)

	// The attempt gets its ID up front so failure events can reference it.
	genID := ulid.Make().String()

	start := time.Now()
	img, err := s.generator.Generate(ctx, prompt)
	s.metrics.ObserveGenerationDuration(time.Since(start))
	if err != nil {
		restored := s.refundCredit(ctx, userID, remaining)
		if errors.Is(err, generation.ErrContentPolicy) {
			s.metrics.IncGenerationCompleted("rejected")
			s.publishEvent(genID, userID, events.StatusRejected, false, restored)
			return nil, ErrContentPolicy
		}
		s.metrics.IncGenerationCompleted("failed")
		s.logger.Error("upstream generation failed",
			"user_id", userID,
			"error", err,
		)
		s.publishEvent(genID, userID, events.StatusFailed, false, restored)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	gen := &model.Generation{
		ID:          genID,
		UserID:      userID,
		Prompt:      prompt,
		ContentType: img.ContentType,
		CreatedAt:   time.Now().UTC(),
	}

	imageURL, persisted := s.persistImage(ctx, gen, img)

	result := &model.GenerationResult{
		Generation:       gen,
		ImageURL:         imageURL,
		Persisted:        persisted,
		CreditsRemaining: remaining,
	}

	s.metrics.IncGenerationCompleted("success")
	s.publishEvent(gen.ID, userID, events.StatusCompleted, persisted, remaining)

	return result, nil
}

// persistImage uploads the image and records the generation. Either step
// failing downgrades the response to inline delivery without failing the
// request.
func (s *GenerationService) persistImage(ctx context.Context, gen *model.Generation, img *generation.Image) (string, bool) {
	start := time.Now()
	publicURL, err := s.store.Put(ctx, gen.UserID, img.Data, img.ContentType)
	s.metrics.ObserveUploadDuration(time.Since(start))
	if err != nil {
		s.logger.Error("image upload failed, delivering inline",
			"user_id", gen.UserID,
			"generation_id", gen.ID,
			"error", err,
		)
		s.metrics.IncPersistenceFallback()
		return model.InlineImageURL(img.ContentType, img.Data), false
	}

	gen.ImageURL = publicURL
	if err := s.gens.CreateGeneration(ctx, gen); err != nil {
		s.logger.Error("generation insert failed, delivering inline",
			"user_id", gen.UserID,
			"generation_id", gen.ID,
			"error", err,
		)
		s.metrics.IncPersistenceFallback()
		return model.InlineImageURL(img.ContentType, img.Data), false
	}

	return publicURL, true
}

// refundCredit returns a reserved credit after a failed generation and
// reports the resulting balance. Best effort: a refund failure is
// logged, not surfaced, and the pre-refund balance is reported instead.
func (s *GenerationService) refundCredit(ctx context.Context, userID string, reserved int) int {
	restored, err := s.ledger.RefundCredit(ctx, userID)
	if err != nil {
		s.logger.Error("credit refund failed",
			"user_id", userID,
			"error", err,
		)
		return reserved
	}
	s.metrics.IncCreditRefunded()
	s.invalidateBalance(ctx, userID)
	return restored
}

// publishEvent emits a lifecycle event if a publisher is configured.
func (s *GenerationService) publishEvent(genID, userID, status string, persisted bool, remaining int) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAsync(events.GenerationEventPayload{
		GenerationID:     genID,
		UserID:           userID,
		Status:           status,
		Persisted:        persisted,
		CreditsRemaining: remaining,
		CompletedAt:      time.Now().UnixMilli(),
	})
}

func (s *GenerationService) invalidateBalance(ctx context.Context, userID string) {
	if s.balances == nil {
		return
	}
	if err := s.balances.InvalidateBalance(ctx, userID); err != nil {
		s.logger.Warn("balance cache invalidation failed",
			"user_id", userID,
			"error", err,
		)
	}
}

// GetBalance returns a user's credit balance, cache-first.
func (s *GenerationService) GetBalance(ctx context.Context, userID string) (*model.CreditBalance, error) {
	if s.balances != nil {
		cached, err := s.balances.GetBalance(ctx, userID)
		if err == nil && cached != nil {
			s.metrics.IncBalanceCacheHit()
			return cached, nil
		}
		s.metrics.IncBalanceCacheMiss()
	}

	balance, err := s.ledger.GetCredits(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBalanceNotFound) {
			return &model.CreditBalance{UserID: userID, Credits: 0}, nil
		}
		return nil, err
	}

	if s.balances != nil {
		if err := s.balances.SetBalance(ctx, balance); err != nil {
			s.logger.Warn("balance cache backfill failed",
				"user_id", userID,
				"error", err,
			)
		}
	}

	return balance, nil
}

// ListGenerationsOutput defines output for listing generations.
type ListGenerationsOutput struct {
	Generations []*model.Generation
	NextCursor  string
	HasMore     bool
}

// ListGenerations retrieves a user's generation history, newest first.
func (s *GenerationService) ListGenerations(ctx context.Context, userID, cursor string, limit int) (*ListGenerationsOutput, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}

	gens, nextCursor, err := s.gens.ListGenerations(ctx, userID, cursor, limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}

	return &ListGenerationsOutput{
		Generations: gens,
		NextCursor:  nextCursor,
		HasMore:     nextCursor != "",
	}, nil
}

// GetGeneration retrieves a single generation owned by the user.
func (s *GenerationService) GetGeneration(ctx context.Context, userID, id string) (*model.Generation, error) {
	gen, err := s.gens.GetGenerationByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGenerationNotFound) {
			return nil, ErrGenerationNotFound
		}
		return nil, err
	}

	// Ownership is not disclosed; other users' records look absent.
	if gen.UserID != userID {
		return nil, ErrGenerationNotFound
	}

	return gen, nil
}
