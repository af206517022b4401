package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"moodchef/internal/pkg/common"
)

// 食譜來源標記
const (
	SourceSearch     = "search"
	SourceGenerative = "generative"
)

const (
	maxServings = 12
	maxFlexInt  = 1 << 20
)

// Brief 給生成服務的需求摘要
type Brief struct {
	Mood        string
	Minutes     int
	Ingredients []string
	Diet        string
	Cuisine     string
	OnlyThese   bool
	Count       int
}

// generatedRecipe 生成服務回傳的食譜，數字欄位可能是字串
type generatedRecipe struct {
	Title           string   `json:"title"`
	TimeMinutes     flexInt  `json:"time_minutes"`
	Serves          flexInt  `json:"serves"`
	IngredientsList []string `json:"ingredients_list"`
	Ingredients     []string `json:"ingredients"`
	Steps           []string `json:"steps"`
	WhyItFits       string   `json:"why_it_fits"`
	Variation       string   `json:"variation"`
}

// flexInt 接受數字或 "25 min" 這類字串，取開頭的整數，無法解析時為 0
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*f = flexInt(min(max(t, 0), maxFlexInt))
	case string:
		if m := leadingInt.FindString(t); m != "" {
			n, _ := strconv.Atoi(strings.TrimSpace(m))
			*f = flexInt(min(n, maxFlexInt))
		}
	}
	return nil
}

var (
	emphasisPattern   = regexp.MustCompile("\\*\\*|__|\\*|`")
	listPrefixPattern = regexp.MustCompile(`^\s*(?:(?i:step)\s*\d+\s*[:.)\-]\s*|\d+\s*[.)]\s+|[-•*]\s+)`)
	headingPattern    = regexp.MustCompile(`^\s*#+\s*`)
	leadingInt        = regexp.MustCompile(`^\s*\d+`)

	errNoRecipes = errors.New("no recipes in generated output")
)

// BuildPrompt 組出要求 JSON 輸出的提示詞
func BuildPrompt(b Brief) string {
	count := max(b.Count, 1)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Suggest %d recipe(s) for someone who feels %q and has at most %d minutes to cook.\n", count, b.Mood, b.Minutes)
	fmt.Fprintf(&sb, "Available ingredients: %s.\n", strings.Join(b.Ingredients, ", "))
	if strings.TrimSpace(b.Diet) != "" {
		fmt.Fprintf(&sb, "Diet preference: %s. Respect it strictly.\n", b.Diet)
	}
	if strings.TrimSpace(b.Cuisine) != "" {
		fmt.Fprintf(&sb, "Preferred cuisine: %s.\n", b.Cuisine)
	}
	if b.OnlyThese {
		sb.WriteString("Use only the listed ingredients plus pantry staples (salt, pepper, oil, water, spices).\n")
	}
	sb.WriteString(`Respond with JSON only, no prose, in this shape: {"recipes":[{"title":string,"time_minutes":number,"serves":number,"ingredients_list":[string],"steps":[string],"why_it_fits":string,"variation":string}]}`)
	return sb.String()
}

// ParseGenerated 解析生成服務的輸出並清理格式。
// 依序嘗試：去除 ``` 區塊後直接解析、取出第一段括號平衡的 JSON、補上鍵的引號。
// 全部失敗或沒有可用食譜時回傳 ErrGenerationFailed。
func ParseGenerated(raw string, budget int) ([]RecipeResult, error) {
	recipes, err := decodeGenerated(raw)
	if err != nil {
		return nil, common.ErrGenerationFailed.Wrap(err)
	}

	var out []RecipeResult
	for _, g := range recipes {
		if r, ok := cleanGenerated(g, budget); ok {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, common.ErrGenerationFailed.Wrap(errNoRecipes)
	}
	return out, nil
}

func decodeGenerated(raw string) ([]generatedRecipe, error) {
	text := common.StripCodeFence(raw)
	recipes, err := decodeRecipes(text)
	if err == nil {
		return recipes, nil
	}

	if extracted, ok := common.ExtractJSON(text); ok {
		text = extracted
		if recipes, err = decodeRecipes(text); err == nil {
			return recipes, nil
		}
	}

	recipes, err = decodeRecipes(common.QuoteJSONKeys(text))
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated recipes: %w", err)
	}
	return recipes, nil
}

// decodeRecipes 接受 {"recipes":[...]}、陣列或單一物件
func decodeRecipes(text string) ([]generatedRecipe, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "[") {
		var list []generatedRecipe
		if err := common.ParseJSON(text, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var wrapped struct {
		Recipes []generatedRecipe `json:"recipes"`
	}
	if err := common.ParseJSON(text, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Recipes != nil {
		return wrapped.Recipes, nil
	}

	var single generatedRecipe
	if err := common.ParseJSON(text, &single); err != nil {
		return nil, err
	}
	return []generatedRecipe{single}, nil
}

func cleanGenerated(g generatedRecipe, budget int) (RecipeResult, bool) {
	title := strings.TrimSpace(headingPattern.ReplaceAllString(cleanText(g.Title), ""))
	ingredients := g.IngredientsList
	if len(ingredients) == 0 {
		ingredients = g.Ingredients
	}
	steps := cleanLines(g.Steps)
	if title == "" || len(steps) == 0 {
		return RecipeResult{}, false
	}

	minutes := budget
	if g.TimeMinutes > 0 {
		minutes = min(int(g.TimeMinutes), budget)
	}
	serves := defaultServings
	if g.Serves > 0 {
		serves = min(int(g.Serves), maxServings)
	}

	return RecipeResult{
		Title:           title,
		TimeMinutes:     max(minutes, 1),
		Serves:          serves,
		IngredientsList: cleanLines(ingredients),
		Steps:           steps,
		WhyItFits:       cleanText(g.WhyItFits),
		Variation:       cleanText(g.Variation),
		Source:          SourceGenerative,
	}, true
}

func cleanLines(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = listPrefixPattern.ReplaceAllString(cleanText(line), "")
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func cleanText(s string) string {
	return strings.TrimSpace(emphasisPattern.ReplaceAllString(s, ""))
}
