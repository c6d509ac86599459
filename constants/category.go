package constants

import (
	"strings"
)

// Category is the closed set of food categories an ingredient may carry.
type Category string

const (
	Vegetable Category = "野菜"
	Fruit     Category = "果物"
	Meat      Category = "肉"
	Fish      Category = "魚"
	Egg       Category = "卵"
	Grain     Category = "雑穀"
	Frozen    Category = "冷凍食品"
	Other     Category = "その他"
)

var allCategories = []Category{
	Vegetable,
	Fruit,
	Meat,
	Fish,
	Egg,
	Grain,
	Frozen,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Valid reports whether s is exactly one of the stored category values.
func (c Category) Valid() bool {
	for _, cat := range allCategories {
		if c == cat {
			return true
		}
	}
	return false
}

// Canonicalize maps loose user input (English labels, stray whitespace) onto a category.
// Ingredient list filters go through it; parsed model output must match exactly.
func Canonicalize(input string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Other, false
	}

	synonyms := map[string]Category{
		"vegetable":  Vegetable,
		"vegetables": Vegetable,
		"fruit":      Fruit,
		"meat":       Meat,
		"fish":       Fish,
		"seafood":    Fish,
		"egg":        Egg,
		"eggs":       Egg,
		"grain":      Grain,
		"grains":     Grain,
		"frozen":     Frozen,
		"other":      Other,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == string(cat) {
			return cat, true
		}
	}

	return Other, false
}
