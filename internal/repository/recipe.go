package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

type RecipeRepository interface {
	Create(ctx context.Context, recipe entity.Recipe) (*entity.Recipe, error)
	Finish(ctx context.Context, userID, id uuid.UUID, status constants.RecipeStatus, description, content string) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*entity.Recipe, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Recipe, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

type recipeRepository struct {
	client *Client
	logger *slog.Logger
}

func NewRecipeRepository(client *Client, logger *slog.Logger) RecipeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &recipeRepository{client: client, logger: logger}
}

func (r *recipeRepository) Create(ctx context.Context, recipe entity.Recipe) (*entity.Recipe, error) {
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}
	if recipe.Status == "" {
		recipe.Status = constants.RecipeStatusCreating
	}
	now := time.Now().UTC()
	if recipe.CreatedAt.IsZero() {
		recipe.CreatedAt = now
	}
	recipe.UpdatedAt = recipe.CreatedAt
	allergies, err := encodeList(recipe.Allergies)
	if err != nil {
		return nil, dbError("encode allergies", err)
	}

	query, args := r.client.builder().
		Insert(tableRecipes).
		Columns(recipeColumns...).
		Values(
			recipe.ID, recipe.UserID, recipe.RecipeName, recipe.PeopleCount, recipe.MealPreference, recipe.CookingTime,
			allergies, recipe.OtherConditions, string(recipe.Status), recipe.Description, recipe.Content,
			recipe.CreatedAt.UTC(), recipe.UpdatedAt.UTC(),
		).
		Query()
	if _, err := r.client.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("recipe create failed", "user_id", recipe.UserID, "error", err)
		return nil, dbError("insert recipe", err)
	}
	r.logger.Info("recipe created", "recipe_id", recipe.ID, "user_id", recipe.UserID, "status", recipe.Status)
	return &recipe, nil
}

// Finish moves a creating recipe to a terminal status. The update only matches a row
// owned by userID that is still creating, so a terminal row is never rewritten.
func (r *recipeRepository) Finish(ctx context.Context, userID, id uuid.UUID, status constants.RecipeStatus, description, content string) error {
	if !status.Terminal() {
		return common.NewAppError("INVALID_STATUS", "recipe can only finish as completed or failed", common.ErrInvalidInput)
	}
	query, args := r.client.builder().
		Update(tableRecipes).
		Set("status", string(status)).
		Set("description", description).
		Set("content", content).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("user_id", userID),
			entsql.EQ("status", string(constants.RecipeStatusCreating)),
		)).
		Query()

	res, err := r.client.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("recipe finish failed", "recipe_id", id, "status", status, "error", err)
		return dbError("finish recipe", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.logger.Warn("recipe finish matched no pending row", "recipe_id", id, "status", status)
		return common.NewAppError("NOT_FOUND", "pending recipe not found", common.ErrNotFound)
	}
	r.logger.Info("recipe finished", "recipe_id", id, "status", status)
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*entity.Recipe, error) {
	b := r.client.builder()
	query, args := b.Select(recipeColumns...).
		From(b.Table(tableRecipes)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID))).
		Query()
	rec, err := scanRecipe(r.client.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbError("get recipe", err)
	}
	return rec, nil
}

// ListByOwner returns the newest recipes first. limit <= 0 means no limit.
func (r *recipeRepository) ListByOwner(ctx context.Context, userID uuid.UUID, limit int) ([]entity.Recipe, error) {
	b := r.client.builder()
	sel := b.Select(recipeColumns...).
		From(b.Table(tableRecipes)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.client.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list recipes", "user_id", userID, "error", err)
		return nil, dbError("list recipes", err)
	}
	defer rows.Close()

	result := []entity.Recipe{}
	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return nil, dbError("scan recipe", err)
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list recipes", err)
	}
	return result, nil
}

func (r *recipeRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	b := r.client.builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table(tableRecipes)).
		Where(entsql.EQ("user_id", userID)).
		Query()
	var n int
	if err := r.client.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, dbError("count recipes", err)
	}
	return n, nil
}

func scanRecipe(row rowScanner) (*entity.Recipe, error) {
	var (
		rec       entity.Recipe
		status    string
		allergies string
	)
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.RecipeName, &rec.PeopleCount, &rec.MealPreference, &rec.CookingTime,
		&allergies, &rec.OtherConditions, &status, &rec.Description, &rec.Content,
		scanTime(&rec.CreatedAt), scanTime(&rec.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	rec.Status = constants.RecipeStatus(status)
	if rec.Allergies, err = decodeList(allergies); err != nil {
		return nil, err
	}
	return &rec, nil
}

// encodeList stores a string list as a JSON array; an empty list is stored as "".
func encodeList(items []string) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode list column: %w", err)
	}
	return items, nil
}
