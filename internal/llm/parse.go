package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

// ErrUnparseableResponse marks a completion that held no valid ingredient array.
var ErrUnparseableResponse = errors.New("response contained no valid ingredient array")

// RawIngredient is one element of the model's reply, before enrichment.
type RawIngredient struct {
	Name           string  `json:"name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	ExpirationDate string  `json:"expirationDate"`
	Category       string  `json:"category"`
	Notes          *string `json:"notes,omitempty"`
}

// ArraySpan returns the text from the first '[' through the last ']'.
func ArraySpan(text string) (string, bool) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// DecodeIngredients pulls the array span out of free text, decodes it as JSON and
// validates every element. Any failure rejects the whole reply; the returned error
// wraps ErrUnparseableResponse. An explicit empty array is a valid, non-nil result.
func DecodeIngredients(text string) ([]RawIngredient, error) {
	span, ok := ArraySpan(text)
	if !ok {
		return nil, fmt.Errorf("%w: no array literal", ErrUnparseableResponse)
	}

	schema, err := ingredientsSchema()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableResponse, err)
	}
	if err := validateWith(schema, []byte(span)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableResponse, err)
	}

	out := []RawIngredient{}
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableResponse, err)
	}
	for i, r := range out {
		if _, err := time.Parse(time.DateOnly, r.ExpirationDate); err != nil {
			return nil, fmt.Errorf("%w: item %d: expirationDate %q is not a calendar date", ErrUnparseableResponse, i, r.ExpirationDate)
		}
	}
	return out, nil
}

// Enrich turns validated records into active ingredients with fresh identities.
// The owner is left unset for the caller to assign.
func Enrich(raw []RawIngredient, now time.Time) []entity.Ingredient {
	now = now.UTC()
	out := make([]entity.Ingredient, 0, len(raw))
	for _, r := range raw {
		exp, _ := time.Parse(time.DateOnly, r.ExpirationDate)
		out = append(out, entity.Ingredient{
			ID:             uuid.New(),
			Name:           strings.TrimSpace(r.Name),
			Quantity:       r.Quantity,
			Unit:           constants.Unit(r.Unit),
			ExpirationDate: exp,
			Category:       constants.Category(r.Category),
			Notes:          r.Notes,
			Status:         constants.IngredientStatusActive,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	return out
}

// ParseIngredients returns the enriched records embedded in a completion, or
// (nil, false) when the completion holds no valid array.
func ParseIngredients(text string, now time.Time) ([]entity.Ingredient, bool) {
	raw, err := DecodeIngredients(text)
	if err != nil {
		return nil, false
	}
	return Enrich(raw, now), true
}
