package llm

import (
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

const ingredientExample = `[{"name":"にんじん","quantity":3,"unit":"本","expirationDate":"2025-06-10","category":"野菜"},` +
	`{"name":"牛乳","quantity":1000,"unit":"ml","expirationDate":"2025-06-05","category":"その他","notes":"開封済み"}]`

// BuildIngredientPrompt composes the instruction sent with an ingredient photo. The
// reply format mirrors BuildIngredientsJSONSchema; today anchors expiry estimates.
func BuildIngredientPrompt(additional string, today time.Time) string {
	parts := []string{
		"あなたは食材の写真を読み取るアシスタントです。写っている食材をすべて特定し、JSON配列だけを返してください。説明文は不要です。",
		"配列の各要素は次のキーを持つオブジェクトです。",
		"name: 食材名(文字列)。",
		"quantity: 数量(0より大きい数値)。",
		"unit: 単位。必ず次のいずれか: " + strings.Join(constants.UnitsAsStringSlice(), ", ") + "。",
		"expirationDate: 賞味期限または消費期限(YYYY-MM-DD)。",
		"category: 分類。必ず次のいずれか: " + strings.Join(constants.AsStringSlice(), ", ") + "。",
		"notes: 補足(任意)。不要ならキーごと省略してください。",
		"期限が写っていない場合は、今日(" + today.Format("2006-01-02") + ")を基準に一般的な保存期間から推定してください。",
		"null は出力しないでください。上記以外のキーも出力しないでください。",
		"食材が見つからない場合は空の配列 [] を返してください。",
		"出力例: " + ingredientExample,
	}
	if a := strings.TrimSpace(additional); a != "" {
		parts = append(parts, "追加の指示: "+a)
	}
	return strings.Join(parts, "\n")
}

// BuildRecipePrompt renders a recipe request. Optional conditions appear only when set.
func BuildRecipePrompt(req entity.RecipeRequest) string {
	var b strings.Builder
	b.WriteString("以下の条件で「")
	b.WriteString(strings.TrimSpace(req.RecipeName))
	b.WriteString("」のレシピを作成してください。\n\n")

	b.WriteString("人数: ")
	b.WriteString(strconv.Itoa(req.PeopleCount))
	b.WriteString("人分\n")

	optional := []struct{ label, value string }{
		{"料理の好み", req.MealPreference},
		{"調理時間", req.CookingTime},
		{"アレルギー", strings.Join(req.Allergies, ", ")},
		{"その他の条件", req.OtherConditions},
	}
	for _, o := range optional {
		if v := strings.TrimSpace(o.value); v != "" {
			b.WriteString(o.label)
			b.WriteString(": ")
			b.WriteString(v)
			b.WriteString("\n")
		}
	}

	if len(req.Ingredients) > 0 {
		b.WriteString("\n【使用できる食材】\n")
		for _, ing := range req.Ingredients {
			b.WriteString("- ")
			b.WriteString(ing.Name)
			b.WriteString("：")
			b.WriteString(strconv.FormatFloat(ing.Quantity, 'f', -1, 64))
			b.WriteString(string(ing.Unit))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n以下の形式で回答してください。\n")
	b.WriteString("# 料理名\n\n## 材料\n- 材料名: 分量\n\n## 作り方\n1. 手順\n\n## ポイント\n- 調理のコツ\n")
	return b.String()
}
