package constants

// RecipeStatus is the canonical status for rows in recipes.
type RecipeStatus string

// Stable values (store these exact strings in DB).
const (
	RecipeStatusCreating  RecipeStatus = "creating"  // job persisted, generation pending
	RecipeStatusCompleted RecipeStatus = "completed" // terminal: content stored
	RecipeStatusFailed    RecipeStatus = "failed"    // terminal: description carries the failure message
)

// Terminal reports whether no further transition is allowed.
func (s RecipeStatus) Terminal() bool {
	return s == RecipeStatusCompleted || s == RecipeStatusFailed
}

// IngredientStatus is the canonical status for rows in user_ingredients.
type IngredientStatus string

const (
	IngredientStatusActive  IngredientStatus = "active"
	IngredientStatusUsed    IngredientStatus = "used"
	IngredientStatusExpired IngredientStatus = "expired"
)

// Valid reports whether s is a known ingredient status.
func (s IngredientStatus) Valid() bool {
	switch s {
	case IngredientStatusActive, IngredientStatusUsed, IngredientStatusExpired:
		return true
	}
	return false
}
