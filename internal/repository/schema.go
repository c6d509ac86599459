package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	tableIngredients = "user_ingredients"
	tableRecipes     = "recipes"
)

var ingredientColumns = []string{
	"id", "user_id", "name", "quantity", "unit", "expiration_date", "category",
	"notes", "status", "used_at", "created_at", "updated_at",
}

var recipeColumns = []string{
	"id", "user_id", "recipes_name", "people_count", "meal_preference", "cooking_time",
	"allergies", "other_conditions", "status", "description", "content", "created_at", "updated_at",
}

// column types per dialect: uuid, real, date, timestamp
var columnTypes = map[string][4]string{
	dialect.Postgres: {"UUID", "DOUBLE PRECISION", "DATE", "TIMESTAMPTZ"},
	dialect.SQLite:   {"TEXT", "REAL", "DATE", "TIMESTAMP"},
}

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS user_ingredients (
	id              {uuid} PRIMARY KEY,
	user_id         {uuid} NOT NULL,
	name            TEXT NOT NULL,
	quantity        {real} NOT NULL CHECK (quantity > 0),
	unit            TEXT NOT NULL,
	expiration_date {date} NOT NULL,
	category        TEXT NOT NULL,
	notes           TEXT,
	status          TEXT NOT NULL DEFAULT 'active',
	used_at         {ts},
	created_at      {ts} NOT NULL,
	updated_at      {ts} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_user_ingredients_user_status ON user_ingredients (user_id, status);
CREATE INDEX IF NOT EXISTS idx_user_ingredients_user_used_at ON user_ingredients (user_id, used_at);
CREATE TABLE IF NOT EXISTS recipes (
	id               {uuid} PRIMARY KEY,
	user_id          {uuid} NOT NULL,
	recipes_name     TEXT NOT NULL,
	people_count     INTEGER NOT NULL CHECK (people_count > 0),
	meal_preference  TEXT NOT NULL DEFAULT '',
	cooking_time     TEXT NOT NULL DEFAULT '',
	allergies        TEXT NOT NULL DEFAULT '',
	other_conditions TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL CHECK (status IN ('creating', 'completed', 'failed')),
	description      TEXT NOT NULL DEFAULT '',
	content          TEXT NOT NULL DEFAULT '',
	created_at       {ts} NOT NULL,
	updated_at       {ts} NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recipes_user_created ON recipes (user_id, created_at);
`

// SchemaDDL renders the table definitions for a dialect.
func SchemaDDL(dialectName string) (string, error) {
	types, ok := columnTypes[dialectName]
	if !ok {
		return "", fmt.Errorf("no schema for dialect %q", dialectName)
	}
	r := strings.NewReplacer("{uuid}", types[0], "{real}", types[1], "{date}", types[2], "{ts}", types[3])
	return r.Replace(schemaTemplate), nil
}

// EnsureSchema creates missing tables and indexes. Existing tables are left untouched.
func EnsureSchema(ctx context.Context, c *Client) error {
	ddl, err := SchemaDDL(c.dialect)
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Tables lists the tables this package manages.
func Tables() []string {
	return []string{tableIngredients, tableRecipes}
}

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, c *Client, table string) (int, error) {
	b := c.builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table(table)).Query()
	var n int
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, dbError("count "+table, err)
	}
	return n, nil
}
