package recipes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/agent"
	"github.com/joseph-ayodele/pantry-tracker/internal/async"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/llm"
	"github.com/joseph-ayodele/pantry-tracker/internal/repository"
)

const (
	// MsgEmptyContent is stored as the description when the agent returned nothing.
	MsgEmptyContent = "レシピの生成に失敗しました。"
	// MsgGenerationError is stored as the description when the invocation failed.
	MsgGenerationError = "レシピの生成中にエラーが発生しました。"

	descriptionLines    = 3
	descriptionMaxRunes = 100
	finishTimeout       = 10 * time.Second
)

// Submitter schedules detached work; *async.Queue satisfies it.
type Submitter interface {
	Submit(ctx context.Context, task async.Task) error
}

// Service runs the recipe job state machine: creating -> completed | failed.
type Service struct {
	recipes     repository.RecipeRepository
	ingredients repository.IngredientRepository
	agent       agent.Invoker
	queue       Submitter
	logger      *slog.Logger
}

// NewService creates a new recipe service.
func NewService(recipes repository.RecipeRepository, ingredients repository.IngredientRepository, inv agent.Invoker, queue Submitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		recipes:     recipes,
		ingredients: ingredients,
		agent:       inv,
		queue:       queue,
		logger:      logger,
	}
}

// Request persists a creating job and schedules its generation. It returns as soon
// as the job row exists; generation outcome is only visible by polling the job.
func (s *Service) Request(ctx context.Context, ownerID uuid.UUID, req entity.RecipeRequest) (uuid.UUID, error) {
	if ownerID == uuid.Nil {
		return uuid.Nil, common.NewAppError("UNAUTHORIZED", "owner is required", common.ErrUnauthorized)
	}
	req = normalize(req)
	if err := validate(req); err != nil {
		return uuid.Nil, err
	}

	job, err := s.recipes.Create(ctx, entity.Recipe{
		UserID:          ownerID,
		RecipeName:      req.RecipeName,
		PeopleCount:     req.PeopleCount,
		MealPreference:  req.MealPreference,
		CookingTime:     req.CookingTime,
		Allergies:       req.Allergies,
		OtherConditions: req.OtherConditions,
		Status:          constants.RecipeStatusCreating,
		Description:     PlaceholderDescription(req),
		Content:         "",
	})
	if err != nil {
		s.logger.Error("failed to create recipe job", "user_id", ownerID, "error", err)
		return uuid.Nil, err
	}

	jobID := job.ID
	task := async.Task{
		Name: "recipe.generate",
		Key:  jobID.String(),
		Run: func(taskCtx context.Context) error {
			return s.generate(taskCtx, jobID, ownerID, req)
		},
	}
	if err := s.queue.Submit(ctx, task); err != nil {
		s.logger.Error("recipe job not scheduled", "recipe_id", jobID, "error", err)
		s.finish(ctx, jobID, ownerID, constants.RecipeStatusFailed, MsgGenerationError, "")
		return jobID, nil
	}

	s.logger.Info("recipe job scheduled", "recipe_id", jobID, "user_id", ownerID)
	return jobID, nil
}

// generate invokes the agent exactly once and records the terminal state.
func (s *Service) generate(ctx context.Context, jobID, ownerID uuid.UUID, req entity.RecipeRequest) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("recipe generation panicked", "recipe_id", jobID, "panic", r)
			s.finish(ctx, jobID, ownerID, constants.RecipeStatusFailed, MsgGenerationError, "")
			err = fmt.Errorf("recipe generation panicked: %v", r)
		}
	}()

	if len(req.Ingredients) == 0 {
		req.Ingredients = s.inventory(ctx, ownerID)
	}

	content, invokeErr := s.agent.Invoke(ctx, llm.BuildRecipePrompt(req), nil)
	switch {
	case invokeErr != nil:
		s.logger.Error("recipe generation failed", "recipe_id", jobID, "error", invokeErr, "elapsed_ms", time.Since(start).Milliseconds())
		s.finish(ctx, jobID, ownerID, constants.RecipeStatusFailed, MsgGenerationError, "")
		return invokeErr
	case strings.TrimSpace(content) == "":
		s.logger.Warn("recipe generation returned no content", "recipe_id", jobID, "elapsed_ms", time.Since(start).Milliseconds())
		s.finish(ctx, jobID, ownerID, constants.RecipeStatusFailed, MsgEmptyContent, "")
		return errors.New("recipe generation returned no content")
	}

	s.finish(ctx, jobID, ownerID, constants.RecipeStatusCompleted, DeriveDescription(content), content)
	s.logger.Info("recipe generated", "recipe_id", jobID, "content_len", len(content), "elapsed_ms", time.Since(start).Milliseconds())
	return nil
}

// finish writes the terminal state on a context that outlives the task deadline.
func (s *Service) finish(ctx context.Context, jobID, ownerID uuid.UUID, status constants.RecipeStatus, description, content string) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finishTimeout)
	defer cancel()
	if err := s.recipes.Finish(writeCtx, ownerID, jobID, status, description, content); err != nil {
		s.logger.Error("failed to record recipe outcome", "recipe_id", jobID, "status", status, "error", err)
	}
}

func (s *Service) inventory(ctx context.Context, ownerID uuid.UUID) []entity.RecipeIngredient {
	if s.ingredients == nil {
		return nil
	}
	active := constants.IngredientStatusActive
	items, err := s.ingredients.ListByOwner(ctx, ownerID, &active, nil)
	if err != nil {
		s.logger.Warn("could not load inventory for recipe", "user_id", ownerID, "error", err)
		return nil
	}
	out := make([]entity.RecipeIngredient, 0, len(items))
	for _, it := range items {
		out = append(out, entity.RecipeIngredient{Name: it.Name, Quantity: it.Quantity, Unit: it.Unit})
	}
	return out
}

// Get returns one of the owner's recipe jobs.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*entity.Recipe, error) {
	return s.recipes.GetByID(ctx, ownerID, id)
}

// List returns the owner's recipe jobs, newest first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, limit int) ([]entity.Recipe, error) {
	return s.recipes.ListByOwner(ctx, ownerID, limit)
}

// PlaceholderDescription is shown while a job is creating.
func PlaceholderDescription(req entity.RecipeRequest) string {
	return fmt.Sprintf("%d人分の%sレシピを生成中...", req.PeopleCount, req.MealPreference)
}

// DeriveDescription joins the first three lines of content with spaces and cuts the
// result to 100 characters, appending "..." when anything was cut.
func DeriveDescription(content string) string {
	lines := strings.Split(content, "\n")
	if len(lines) > descriptionLines {
		lines = lines[:descriptionLines]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	desc := strings.Join(lines, " ")
	if utf8.RuneCountInString(desc) <= descriptionMaxRunes {
		return desc
	}
	return string([]rune(desc)[:descriptionMaxRunes]) + "..."
}

func normalize(req entity.RecipeRequest) entity.RecipeRequest {
	req.RecipeName = strings.TrimSpace(req.RecipeName)
	req.MealPreference = strings.TrimSpace(req.MealPreference)
	req.CookingTime = strings.TrimSpace(req.CookingTime)
	req.Allergies = trimList(req.Allergies)
	req.OtherConditions = strings.TrimSpace(req.OtherConditions)
	return req
}

const (
	maxAllergies     = 20
	maxAllergyLength = 50
)

// trimList trims every entry and drops the blank ones.
func trimList(items []string) []string {
	var out []string
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func validate(req entity.RecipeRequest) error {
	v := common.NewValidator().
		Field("recipe_name", req.RecipeName, common.Required, common.MaxLength(100)).
		Field("people_count", req.PeopleCount, common.IntRange(1, 20)).
		Field("meal_preference", req.MealPreference, common.MaxLength(200)).
		Field("cooking_time", req.CookingTime, common.MaxLength(200)).
		Field("allergies", req.Allergies, common.MaxItems(maxAllergies)).
		Field("other_conditions", req.OtherConditions, common.MaxLength(500))
	for i, a := range req.Allergies {
		v.Field(fmt.Sprintf("allergies[%d]", i), a, common.MaxLength(maxAllergyLength))
	}
	for i, ing := range req.Ingredients {
		field := fmt.Sprintf("ingredients[%d]", i)
		v.Field(field+".name", ing.Name, common.Required)
		v.Field(field+".quantity", ing.Quantity, common.PositiveNumber)
		if !ing.Unit.Valid() {
			v.Field(field+".unit", string(ing.Unit), invalidUnit)
		}
	}
	return common.ValidateAndReturnError(v)
}

func invalidUnit(fieldName string, value interface{}) *common.ValidationError {
	return &common.ValidationError{
		Field:   fieldName,
		Value:   value,
		Message: "must be one of " + strings.Join(constants.UnitsAsStringSlice(), ", "),
	}
}
