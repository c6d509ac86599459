package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/repository"
	"github.com/joseph-ayodele/pantry-tracker/internal/trend"
)

// ExpiringWithinDays is how far ahead an active ingredient counts as expiring soon.
const ExpiringWithinDays = 3

// Service computes the dashboard views for one owner.
type Service struct {
	ingredients repository.IngredientRepository
	recipes     repository.RecipeRepository
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock; the clock's location decides day boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new dashboard service.
func NewService(ingredients repository.IngredientRepository, recipes repository.RecipeRepository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		ingredients: ingredients,
		recipes:     recipes,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Trends returns the dense 30-day usage series ending today.
func (s *Service) Trends(ctx context.Context, ownerID uuid.UUID) ([]entity.UsageTrendPoint, error) {
	today := s.now()
	usedAt, err := s.ingredients.UsedSince(ctx, ownerID, trend.WindowStart(today))
	if err != nil {
		s.logger.Error("failed to load usage", "user_id", ownerID, "error", err)
		return nil, err
	}
	return trend.Fill(trend.Bucket(usedAt, today.Location()), today), nil
}

// Stats returns the inventory and recipe counters.
func (s *Service) Stats(ctx context.Context, ownerID uuid.UUID) (*entity.Statistics, error) {
	today := s.now()
	active, err := s.ingredients.CountActive(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	expiring, err := s.ingredients.CountExpiring(ctx, ownerID, today, today.AddDate(0, 0, ExpiringWithinDays))
	if err != nil {
		return nil, err
	}
	recipes, err := s.recipes.Count(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return &entity.Statistics{
		IngredientsCount:    active,
		ExpiringIngredients: expiring,
		RecipesCount:        recipes,
	}, nil
}

// Expiring lists active ingredients that expire within ExpiringWithinDays.
func (s *Service) Expiring(ctx context.Context, ownerID uuid.UUID) ([]entity.Ingredient, error) {
	today := s.now()
	return s.ingredients.ListExpiring(ctx, ownerID, today, today.AddDate(0, 0, ExpiringWithinDays))
}

// Popular ranks the owner's most used ingredients.
func (s *Service) Popular(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.PopularIngredient, error) {
	return s.ingredients.PopularUsed(ctx, ownerID, limit)
}

// Categories breaks the active inventory down by category.
func (s *Service) Categories(ctx context.Context, ownerID uuid.UUID) ([]entity.CategoryDistribution, error) {
	return s.ingredients.CategoryCounts(ctx, ownerID)
}
