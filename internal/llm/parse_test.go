package llm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

var fixedNow = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func TestParseIngredientsWithSurroundingProse(t *testing.T) {
	text := "写真から次の食材を見つけました。\n" +
		`[{"name":"にんじん","quantity":3,"unit":"本","expirationDate":"2025-06-10","category":"野菜"},` +
		`{"name":"鶏もも肉","quantity":300,"unit":"g","expirationDate":"2025-06-03","category":"肉","notes":"冷蔵"}]` +
		"\n以上です。"

	got, ok := ParseIngredients(text, fixedNow)
	require.True(t, ok)
	require.Len(t, got, 2)

	carrot := got[0]
	assert.Equal(t, "にんじん", carrot.Name)
	assert.Equal(t, 3.0, carrot.Quantity)
	assert.Equal(t, constants.UnitStick, carrot.Unit)
	assert.Equal(t, constants.Vegetable, carrot.Category)
	assert.Equal(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC), carrot.ExpirationDate)
	assert.Nil(t, carrot.Notes)
	assert.Equal(t, constants.IngredientStatusActive, carrot.Status)
	assert.Equal(t, fixedNow, carrot.CreatedAt)
	assert.Equal(t, fixedNow, carrot.UpdatedAt)
	assert.NotEqual(t, uuid.Nil, carrot.ID)
	assert.Equal(t, uuid.Nil, carrot.UserID)

	require.NotNil(t, got[1].Notes)
	assert.Equal(t, "冷蔵", *got[1].Notes)
	assert.NotEqual(t, got[0].ID, got[1].ID)
}

func TestParseIngredientsEmptyArrayIsSuccess(t *testing.T) {
	got, ok := ParseIngredients("ここには何もありません。[]", fixedNow)
	require.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParseIngredientsRejects(t *testing.T) {
	valid := `{"name":"卵","quantity":6,"unit":"個","expirationDate":"2025-06-12","category":"卵"}`
	cases := map[string]string{
		"no brackets":          "I could not see any food in this image.",
		"close before open":    "] nothing here [",
		"not json":             "[name: 卵, quantity: 6]",
		"code not data":        "[console.log('x')]",
		"unit outside set":     `[{"name":"卵","quantity":6,"unit":"kg","expirationDate":"2025-06-12","category":"卵"}]`,
		"category outside set": `[{"name":"卵","quantity":6,"unit":"個","expirationDate":"2025-06-12","category":"乳製品"}]`,
		"zero quantity":        `[{"name":"卵","quantity":0,"unit":"個","expirationDate":"2025-06-12","category":"卵"}]`,
		"negative quantity":    `[{"name":"卵","quantity":-1,"unit":"個","expirationDate":"2025-06-12","category":"卵"}]`,
		"quantity as string":   `[{"name":"卵","quantity":"6","unit":"個","expirationDate":"2025-06-12","category":"卵"}]`,
		"missing date":         `[{"name":"卵","quantity":6,"unit":"個","category":"卵"}]`,
		"bad date format":      `[{"name":"卵","quantity":6,"unit":"個","expirationDate":"2025/06/12","category":"卵"}]`,
		"impossible date":      `[{"name":"卵","quantity":6,"unit":"個","expirationDate":"2025-13-40","category":"卵"}]`,
		"blank name":           `[{"name":"  ","quantity":6,"unit":"個","expirationDate":"2025-06-12","category":"卵"}]`,
		"extra field":          `[{"name":"卵","quantity":6,"unit":"個","expirationDate":"2025-06-12","category":"卵","price":200}]`,
		"null notes":           `[{"name":"卵","quantity":6,"unit":"個","expirationDate":"2025-06-12","category":"卵","notes":null}]`,
		"one bad among good":   "[" + valid + `,{"name":"牛乳","quantity":1,"unit":"L","expirationDate":"2025-06-12","category":"その他"}]`,
		"object not array":     valid,
		"array of strings":     `["卵","牛乳"]`,
		"two arrays":           "[" + valid + "] and also [" + valid + "]",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := ParseIngredients(text, fixedNow)
			assert.False(t, ok)
			assert.Nil(t, got)

			_, err := DecodeIngredients(text)
			assert.ErrorIs(t, err, ErrUnparseableResponse)
		})
	}
}

func TestArraySpanIsGreedy(t *testing.T) {
	span, ok := ArraySpan("a [1, [2]] b ] c")
	require.True(t, ok)
	assert.Equal(t, "[1, [2]] b ]", span)
}

func TestBuildIngredientPrompt(t *testing.T) {
	p := BuildIngredientPrompt("  冷蔵庫の上段だけ  ", fixedNow)
	assert.Contains(t, p, "2025-06-01")
	assert.Contains(t, p, "パック")
	assert.Contains(t, p, "雑穀")
	assert.Contains(t, p, "[]")
	assert.Contains(t, p, "追加の指示: 冷蔵庫の上段だけ")

	assert.NotContains(t, BuildIngredientPrompt(" ", fixedNow), "追加の指示")
}

func TestIngredientExampleSatisfiesSchema(t *testing.T) {
	raw, err := DecodeIngredients(ingredientExample)
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestBuildRecipePrompt(t *testing.T) {
	full := BuildRecipePrompt(entity.RecipeRequest{
		RecipeName:     "肉じゃが",
		PeopleCount:    2,
		MealPreference: "和食",
		Allergies:      []string{"えび", "かに"},
		Ingredients: []entity.RecipeIngredient{
			{Name: "じゃがいも", Quantity: 3, Unit: constants.UnitPiece},
			{Name: "豚肉", Quantity: 200.5, Unit: constants.UnitGram},
		},
	})
	assert.Contains(t, full, "「肉じゃが」")
	assert.Contains(t, full, "人数: 2人分")
	assert.Contains(t, full, "料理の好み: 和食")
	assert.Contains(t, full, "アレルギー: えび, かに\n")
	assert.NotContains(t, full, "調理時間")
	assert.NotContains(t, full, "その他の条件")
	assert.Contains(t, full, "【使用できる食材】")
	assert.Contains(t, full, "- じゃがいも：3個")
	assert.Contains(t, full, "- 豚肉：200.5g")

	bare := BuildRecipePrompt(entity.RecipeRequest{RecipeName: "カレー", PeopleCount: 4})
	assert.NotContains(t, bare, "料理の好み")
	assert.NotContains(t, bare, "アレルギー")
	assert.NotContains(t, bare, "【使用できる食材】")
}
