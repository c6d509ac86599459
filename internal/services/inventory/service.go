package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/extract"
	"github.com/joseph-ayodele/pantry-tracker/internal/repository"
)

var imageTooLargeMessage = fmt.Sprintf("ファイルサイズは%dMB以下にしてください", constants.MaxImageMB)

// Extractor turns a photo into ingredient records; *extract.Service satisfies it.
type Extractor interface {
	ExtractIngredients(ctx context.Context, req extract.Request) ([]entity.Ingredient, error)
}

// Archiver keeps a copy of uploaded photos; *storage.Archive satisfies it.
type Archiver interface {
	Put(ctx context.Context, ownerID uuid.UUID, filename string, data []byte, contentType string) (string, error)
}

// Service handles ingredient intake and inventory business logic.
type Service struct {
	extractor   Extractor
	ingredients repository.IngredientRepository
	archive     Archiver
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a new inventory service. archive may be nil.
func NewService(extractor Extractor, ingredients repository.IngredientRepository, archive Archiver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor:   extractor,
		ingredients: ingredients,
		archive:     archive,
		logger:      logger,
		now:         time.Now,
	}
}

// IntakeRequest is one uploaded photo.
type IntakeRequest struct {
	Filename  string
	MediaType string
	Data      []byte
	Prompt    string
}

// IntakeResult is what the upload produced.
type IntakeResult struct {
	Ingredients []entity.Ingredient
	ArchiveKey  string
}

// Intake extracts ingredients from a photo and stores them for the owner.
// An empty extraction is a success with no records.
func (s *Service) Intake(ctx context.Context, ownerID uuid.UUID, req IntakeRequest) (*IntakeResult, error) {
	if ownerID == uuid.Nil {
		return nil, common.NewAppError("UNAUTHORIZED", "owner is required", common.ErrUnauthorized)
	}
	if err := validateImage(req); err != nil {
		return nil, err
	}

	items, err := s.extractor.ExtractIngredients(ctx, extract.Request{
		Prompt: strings.TrimSpace(req.Prompt),
		Image:  extract.Image{Name: req.Filename, MediaType: req.MediaType, Data: req.Data},
	})
	if err != nil {
		s.logger.Error("ingredient extraction failed", "user_id", ownerID, "file", req.Filename, "error", err)
		return nil, err
	}

	result := &IntakeResult{Ingredients: []entity.Ingredient{}}
	if len(items) > 0 {
		saved, err := s.ingredients.CreateBatch(ctx, ownerID, items)
		if err != nil {
			return nil, err
		}
		result.Ingredients = saved
	}

	if s.archive != nil {
		key, err := s.archive.Put(ctx, ownerID, req.Filename, req.Data, req.MediaType)
		if err != nil {
			s.logger.Warn("photo not archived", "user_id", ownerID, "file", req.Filename, "error", err)
		} else {
			result.ArchiveKey = key
		}
	}

	s.logger.Info("ingredients registered", "user_id", ownerID, "count", len(result.Ingredients))
	return result, nil
}

// List returns the owner's ingredients, optionally filtered by status and category.
// The category filter accepts the same loose labels as constants.Canonicalize.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, status, category string) ([]entity.Ingredient, error) {
	var (
		st  *constants.IngredientStatus
		cat *constants.Category
	)
	if status = strings.TrimSpace(status); status != "" {
		v := constants.IngredientStatus(status)
		if !v.Valid() {
			return nil, common.NewAppError("INVALID_INPUT", "unknown status: "+status, common.ErrInvalidInput)
		}
		st = &v
	}
	if strings.TrimSpace(category) != "" {
		v, ok := constants.Canonicalize(category)
		if !ok {
			return nil, common.NewAppError("INVALID_INPUT", "unknown category: "+category, common.ErrInvalidInput)
		}
		cat = &v
	}
	return s.ingredients.ListByOwner(ctx, ownerID, st, cat)
}

// MarkUsed records that an active ingredient was consumed today.
func (s *Service) MarkUsed(ctx context.Context, ownerID, id uuid.UUID) (*entity.Ingredient, error) {
	ing, err := s.ingredients.MarkUsed(ctx, ownerID, id, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("ingredient used", "user_id", ownerID, "ingredient_id", id)
	return ing, nil
}

func validateImage(req IntakeRequest) error {
	if len(req.Data) == 0 {
		return common.NewAppError("INVALID_INPUT", "image is required", common.ErrInvalidInput)
	}
	if !constants.IsImageMediaType(req.MediaType) {
		return common.NewAppError("INVALID_INPUT", "画像ファイルのみ受け付けます", common.ErrInvalidInput)
	}
	if int64(len(req.Data)) > constants.MaxImageBytes {
		return common.NewAppError("INVALID_INPUT", imageTooLargeMessage, common.ErrInvalidInput)
	}
	return nil
}
