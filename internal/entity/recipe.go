package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
)

// RecipeIngredient is an ingredient line offered to the recipe generator.
type RecipeIngredient struct {
	Name     string         `json:"name"`
	Quantity float64        `json:"quantity"`
	Unit     constants.Unit `json:"unit"`
}

// RecipeRequest carries the user's recipe parameters. Optional fields are empty when absent.
type RecipeRequest struct {
	RecipeName      string             `json:"recipe_name"`
	PeopleCount     int                `json:"people_count"`
	MealPreference  string             `json:"meal_preference,omitempty"`
	CookingTime     string             `json:"cooking_time,omitempty"`
	Allergies       []string           `json:"allergies,omitempty"`
	OtherConditions string             `json:"other_conditions,omitempty"`
	Ingredients     []RecipeIngredient `json:"ingredients,omitempty"`
}

// Recipe represents a recipe generation job and, once completed, its result.
type Recipe struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	RecipeName      string                 `json:"recipe_name"`
	PeopleCount     int                    `json:"people_count"`
	MealPreference  string                 `json:"meal_preference,omitempty"`
	CookingTime     string                 `json:"cooking_time,omitempty"`
	Allergies       []string               `json:"allergies,omitempty"`
	OtherConditions string                 `json:"other_conditions,omitempty"`
	Status          constants.RecipeStatus `json:"status"`
	Description     string                 `json:"description"`
	Content         string                 `json:"content"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}
