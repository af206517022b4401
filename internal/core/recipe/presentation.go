package recipe

import (
	"fmt"
	"slices"
	"strings"
)

const (
	heroSeparator    = " • "
	heroSuffix       = " — "
	defaultServings  = 2
	whyIngredientCap = 5
	variationMissCap = 2
)

// Presentation 組裝回應所需的使用者輸入
type Presentation struct {
	Mood      string
	Minutes   int
	CSV       string   // 使用者食材，已整理為 CSV
	RawItems  []string // CSV 切分後的原始輸入
	Diet      string
	OnlyThese bool
}

// Present 由入選食譜（Detail 可為 nil）與結構化步驟組出回應
func Present(f Finalist, steps []string, p Presentation) RecipeResult {
	userNorm := NormalizeAll(p.RawItems)

	result := RecipeResult{
		Title:           heroTitle(f, p.RawItems, userNorm),
		TimeMinutes:     presentedTime(f, p.Minutes),
		Serves:          defaultServings,
		IngredientsList: orderForHero(buildIngredientList(f), userNorm),
		Steps:           resolveSteps(steps, f.Detail),
		Variation:       buildVariation(f),
		Source:          SourceSearch,
		SourceID:        f.ID,
	}
	if f.Detail != nil {
		if f.Detail.Servings > 0 {
			result.Serves = f.Detail.Servings
		}
		result.SourceURL = f.Detail.SourceURL
	}
	result.WhyItFits = buildWhy(p, result.TimeMinutes, f.Overlap, len(distinctTokens(userNorm)))
	return result
}

// heroTitle 以使用者原始輸入中被用到的食材作為標題前綴
func heroTitle(f Finalist, raw, userNorm []string) string {
	base := "Recipe"
	switch {
	case f.Detail != nil && strings.TrimSpace(f.Detail.Title) != "":
		base = f.Detail.Title
	case strings.TrimSpace(f.Title) != "":
		base = f.Title
	}

	used := make(map[string]struct{}, len(f.UsedIngredients))
	for _, ing := range f.UsedIngredients {
		used[Normalize(ing.matchName())] = struct{}{}
	}
	var hero []string
	for i, item := range raw {
		if _, ok := used[userNorm[i]]; ok {
			hero = append(hero, TitleCase(item))
		}
	}
	if len(hero) == 0 {
		return base
	}
	return strings.Join(hero, heroSeparator) + heroSuffix + base
}

// presentedTime 顯示時間不超過使用者給的預算
func presentedTime(f Finalist, budget int) int {
	ready := budget
	switch {
	case f.Detail != nil && f.Detail.ReadyInMinutes > 0:
		ready = f.Detail.ReadyInMinutes
	case f.ReadyInMinutes > 0:
		ready = f.ReadyInMinutes
	}
	return min(ready, budget)
}

// buildIngredientList 依序收集已用、缺少、完整食材，去除重複
func buildIngredientList(f Finalist) []string {
	var out []string
	seen := make(map[string]struct{})
	push := func(refs []IngredientRef) {
		for _, ref := range refs {
			line := ref.Label()
			if strings.TrimSpace(line) == "" {
				continue
			}
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			out = append(out, line)
		}
	}
	push(f.UsedIngredients)
	push(f.MissedIngredients)
	if f.Detail != nil {
		push(f.Detail.ExtendedIngredients)
	}
	return out
}

// orderForHero 符合使用者食材的項目排在前面，其餘維持原順序
func orderForHero(list, userNorm []string) []string {
	user := tokenSet(userNorm)
	var hero, others []string
	for _, line := range list {
		if _, ok := user[Normalize(line)]; ok {
			hero = append(hero, line)
		} else {
			others = append(others, line)
		}
	}
	return append(hero, others...)
}

func buildWhy(p Presentation, minutes, overlap, total int) string {
	items := SplitCSV(p.CSV)
	top := strings.Join(items[:min(len(items), whyIngredientCap)], ", ")
	if len(items) > whyIngredientCap {
		top += "…"
	}

	clauses := []string{
		fmt.Sprintf("Matches your mood: %s.", p.Mood),
		fmt.Sprintf("Fits your time (~%d min).", minutes),
		fmt.Sprintf("Uses %d/%d of your ingredients: %s.", overlap, total, top),
	}
	if strings.TrimSpace(p.Diet) != "" {
		clauses = append(clauses, fmt.Sprintf("Diet preference: %s.", p.Diet))
	}
	if p.OnlyThese {
		clauses = append(clauses, "Only-these mode: allowing pantry staples only.")
	}
	return strings.Join(clauses, " ")
}

func buildVariation(f Finalist) string {
	var missed []string
	for _, m := range f.MissedIngredients {
		if strings.TrimSpace(m.Original) != "" {
			missed = append(missed, m.Original)
		}
	}
	if len(missed) > 0 {
		return fmt.Sprintf("Try adding %s for extra flavor.", strings.Join(missed[:min(len(missed), variationMissCap)], ", "))
	}

	if f.Detail != nil {
		switch {
		case slices.Contains(f.Detail.Cuisines, "Italian"):
			return "Variation: add chilli flakes and a splash of pasta water for gloss."
		case slices.Contains(f.Detail.Cuisines, "Mexican"):
			return "Variation: finish with lime juice and fresh coriander."
		case slices.Contains(f.Detail.DishTypes, "salad"):
			return "Variation: toss with toasted nuts or seeds for crunch."
		}
	}
	return "Variation: adjust herbs/spices to match your mood (smoky paprika, zesty lemon, or fresh herbs)."
}
