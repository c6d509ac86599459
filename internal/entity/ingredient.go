package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// Ingredient represents one tracked food item for data transfer between layers.
type Ingredient struct {
	ID             uuid.UUID                  `json:"id"`
	UserID         uuid.UUID                  `json:"user_id"`
	Name           string                     `json:"name"`
	Quantity       float64                    `json:"quantity"`
	Unit           constants.Unit             `json:"unit"`
	ExpirationDate time.Time                  `json:"expiration_date"`
	Category       constants.Category         `json:"category"`
	Notes          *string                    `json:"notes,omitempty"`
	Status         constants.IngredientStatus `json:"status"`
	UsedAt         *time.Time                 `json:"used_at,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// Statistics is the dashboard summary for one owner.
type Statistics struct {
	IngredientsCount    int `json:"ingredients_count"`
	ExpiringIngredients int `json:"expiring_ingredients"`
	RecipesCount        int `json:"recipes_count"`
}

// UsageTrendPoint is the number of ingredients used on one calendar day, labeled "MM/DD".
type UsageTrendPoint struct {
	Date       string `json:"date"`
	UsageCount int    `json:"usage_count"`
}

// PopularIngredient is a used ingredient name with its number of uses.
type PopularIngredient struct {
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
}

// CategoryDistribution is the number of active ingredients in one category.
type CategoryDistribution struct {
	Category constants.Category `json:"category"`
	Count    int                `json:"count"`
}
