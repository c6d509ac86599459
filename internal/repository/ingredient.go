package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

type IngredientRepository interface {
	CreateBatch(ctx context.Context, userID uuid.UUID, items []entity.Ingredient) ([]entity.Ingredient, error)
	ListByOwner(ctx context.Context, userID uuid.UUID, status *constants.IngredientStatus, category *constants.Category) ([]entity.Ingredient, error)
	MarkUsed(ctx context.Context, userID, id uuid.UUID, at time.Time) (*entity.Ingredient, error)
	UsedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error)
	CountActive(ctx context.Context, userID uuid.UUID) (int, error)
	CountExpiring(ctx context.Context, userID uuid.UUID, from, through time.Time) (int, error)
	ListExpiring(ctx context.Context, userID uuid.UUID, from, through time.Time) ([]entity.Ingredient, error)
	PopularUsed(ctx context.Context, userID uuid.UUID, limit int) ([]entity.PopularIngredient, error)
	CategoryCounts(ctx context.Context, userID uuid.UUID) ([]entity.CategoryDistribution, error)
}

type ingredientRepository struct {
	client *Client
	logger *slog.Logger
}

func NewIngredientRepository(client *Client, logger *slog.Logger) IngredientRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ingredientRepository{
		client: client,
		logger: logger,
	}
}

// CreateBatch stores every item for userID in one transaction; all or nothing.
func (r *ingredientRepository) CreateBatch(ctx context.Context, userID uuid.UUID, items []entity.Ingredient) ([]entity.Ingredient, error) {
	if len(items) == 0 {
		return []entity.Ingredient{}, nil
	}

	tx, err := r.client.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, dbError("begin ingredient batch", err)
	}
	defer func() { _ = tx.Rollback() }()

	out := make([]entity.Ingredient, 0, len(items))
	now := time.Now().UTC()
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		if it.Status == "" {
			it.Status = constants.IngredientStatusActive
		}
		if it.CreatedAt.IsZero() {
			it.CreatedAt = now
		}
		if it.UpdatedAt.IsZero() {
			it.UpdatedAt = it.CreatedAt
		}
		it.UserID = userID
		it.ExpirationDate = dateOnly(it.ExpirationDate)

		query, args := r.client.builder().
			Insert(tableIngredients).
			Columns(ingredientColumns...).
			Values(
				it.ID, it.UserID, it.Name, it.Quantity, string(it.Unit), it.ExpirationDate,
				string(it.Category), it.Notes, string(it.Status), it.UsedAt, it.CreatedAt.UTC(), it.UpdatedAt.UTC(),
			).
			Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			r.logger.Error("failed to insert ingredient", "user_id", userID, "name", it.Name, "error", err)
			return nil, dbError("insert ingredient", err)
		}
		out = append(out, it)
	}

	if err := tx.Commit(); err != nil {
		return nil, dbError("commit ingredient batch", err)
	}
	r.logger.Info("ingredients stored", "user_id", userID, "count", len(out))
	return out, nil
}

// ListByOwner lists the owner's ingredients; nil status or category means any.
func (r *ingredientRepository) ListByOwner(ctx context.Context, userID uuid.UUID, status *constants.IngredientStatus, category *constants.Category) ([]entity.Ingredient, error) {
	pred := entsql.EQ("user_id", userID)
	if status != nil {
		pred = entsql.And(pred, entsql.EQ("status", string(*status)))
	}
	if category != nil {
		pred = entsql.And(pred, entsql.EQ("category", string(*category)))
	}
	b := r.client.builder()
	query, args := b.Select(ingredientColumns...).
		From(b.Table(tableIngredients)).
		Where(pred).
		OrderBy("expiration_date", "name").
		Query()

	return r.query(ctx, "list ingredients", query, args)
}

func (r *ingredientRepository) query(ctx context.Context, op, query string, args []any) ([]entity.Ingredient, error) {
	rows, err := r.client.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("ingredient query failed", "op", op, "error", err)
		return nil, dbError(op, err)
	}
	defer rows.Close()

	result := []entity.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, dbError("scan ingredient", err)
		}
		result = append(result, *ing)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(op, err)
	}
	return result, nil
}

// MarkUsed moves an active ingredient to used and stamps used_at.
func (r *ingredientRepository) MarkUsed(ctx context.Context, userID, id uuid.UUID, at time.Time) (*entity.Ingredient, error) {
	at = at.UTC()
	query, args := r.client.builder().
		Update(tableIngredients).
		Set("status", string(constants.IngredientStatusUsed)).
		Set("used_at", at).
		Set("updated_at", at).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.EQ("user_id", userID),
			entsql.EQ("status", string(constants.IngredientStatusActive)),
		)).
		Query()

	res, err := r.client.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to mark ingredient used", "id", id, "error", err)
		return nil, dbError("mark ingredient used", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, common.NewAppError("NOT_FOUND", "active ingredient not found", common.ErrNotFound)
	}
	return r.get(ctx, userID, id)
}

func (r *ingredientRepository) get(ctx context.Context, userID, id uuid.UUID) (*entity.Ingredient, error) {
	b := r.client.builder()
	query, args := b.Select(ingredientColumns...).
		From(b.Table(tableIngredients)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("user_id", userID))).
		Query()
	ing, err := scanIngredient(r.client.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, dbError("get ingredient", err)
	}
	return ing, nil
}

// UsedSince returns used_at for every ingredient of userID used at or after since.
func (r *ingredientRepository) UsedSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]time.Time, error) {
	b := r.client.builder()
	query, args := b.Select("used_at").
		From(b.Table(tableIngredients)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.NotNull("used_at"),
			entsql.GTE("used_at", since.UTC()),
		)).
		OrderBy("used_at").
		Query()

	rows, err := r.client.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query usage", "user_id", userID, "error", err)
		return nil, dbError("query usage", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(scanTime(&t)); err != nil {
			return nil, dbError("scan usage", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("query usage", err)
	}
	return out, nil
}

func (r *ingredientRepository) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.count(ctx, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("status", string(constants.IngredientStatusActive)),
	))
}

// CountExpiring counts active ingredients whose expiration date falls within [from, through].
func (r *ingredientRepository) CountExpiring(ctx context.Context, userID uuid.UUID, from, through time.Time) (int, error) {
	return r.count(ctx, expiringPredicate(userID, from, through))
}

// ListExpiring returns active ingredients expiring within [from, through], soonest first.
func (r *ingredientRepository) ListExpiring(ctx context.Context, userID uuid.UUID, from, through time.Time) ([]entity.Ingredient, error) {
	b := r.client.builder()
	query, args := b.Select(ingredientColumns...).
		From(b.Table(tableIngredients)).
		Where(expiringPredicate(userID, from, through)).
		OrderBy("expiration_date", "name").
		Query()
	return r.query(ctx, "list expiring ingredients", query, args)
}

func expiringPredicate(userID uuid.UUID, from, through time.Time) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("status", string(constants.IngredientStatusActive)),
		entsql.GTE("expiration_date", dateOnly(from)),
		entsql.LTE("expiration_date", dateOnly(through)),
	)
}

// PopularUsed ranks used ingredient names by how often they were used.
func (r *ingredientRepository) PopularUsed(ctx context.Context, userID uuid.UUID, limit int) ([]entity.PopularIngredient, error) {
	if limit <= 0 {
		limit = 10
	}
	query, args := popularQuery(r.client.builder(), userID, limit)
	rows, err := r.client.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to rank ingredients", "user_id", userID, "error", err)
		return nil, dbError("rank ingredients", err)
	}
	defer rows.Close()

	out := []entity.PopularIngredient{}
	for rows.Next() {
		var p entity.PopularIngredient
		if err := rows.Scan(&p.Name, &p.UsageCount); err != nil {
			return nil, dbError("scan ranking", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("rank ingredients", err)
	}
	return out, nil
}

func popularQuery(b *entsql.DialectBuilder, userID uuid.UUID, limit int) (string, []any) {
	return b.Select("name", "COUNT(*) AS usage_count").
		From(b.Table(tableIngredients)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("status", string(constants.IngredientStatusUsed)),
		)).
		GroupBy("name").
		OrderBy(entsql.Desc("usage_count"), "name").
		Limit(limit).
		Query()
}

// CategoryCounts groups the active inventory by category.
func (r *ingredientRepository) CategoryCounts(ctx context.Context, userID uuid.UUID) ([]entity.CategoryDistribution, error) {
	b := r.client.builder()
	query, args := b.Select("category", "COUNT(*) AS category_count").
		From(b.Table(tableIngredients)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("status", string(constants.IngredientStatusActive)),
		)).
		GroupBy("category").
		OrderBy("category").
		Query()

	rows, err := r.client.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to group categories", "user_id", userID, "error", err)
		return nil, dbError("group categories", err)
	}
	defer rows.Close()

	out := []entity.CategoryDistribution{}
	for rows.Next() {
		var (
			c   entity.CategoryDistribution
			cat string
		)
		if err := rows.Scan(&cat, &c.Count); err != nil {
			return nil, dbError("scan categories", err)
		}
		c.Category = constants.Category(cat)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("group categories", err)
	}
	return out, nil
}

func (r *ingredientRepository) count(ctx context.Context, pred *entsql.Predicate) (int, error) {
	b := r.client.builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table(tableIngredients)).
		Where(pred).
		Query()
	var n int
	if err := r.client.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, dbError("count ingredients", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIngredient(row rowScanner) (*entity.Ingredient, error) {
	var (
		ing                    entity.Ingredient
		unit, category, status string
		notes                  sql.NullString
	)
	err := row.Scan(
		&ing.ID, &ing.UserID, &ing.Name, &ing.Quantity, &unit, scanTime(&ing.ExpirationDate),
		&category, &notes, &status, scanNullTime(&ing.UsedAt), scanTime(&ing.CreatedAt), scanTime(&ing.UpdatedAt),
	)
	if err != nil {
		return nil, err
	}
	ing.Unit = constants.Unit(unit)
	ing.Category = constants.Category(category)
	ing.Status = constants.IngredientStatus(status)
	ing.ExpirationDate = dateOnly(ing.ExpirationDate)
	if notes.Valid {
		n := notes.String
		ing.Notes = &n
	}
	return &ing, nil
}
