package recipe

import "strings"

// DietTag 標準化的飲食標籤，空字串代表無
type DietTag string

// 支援的飲食標籤
const (
	DietNone        DietTag = ""
	DietVegan       DietTag = "vegan"
	DietVegetarian  DietTag = "vegetarian"
	DietPescetarian DietTag = "pescetarian"
	DietKetogenic   DietTag = "ketogenic"
	DietPaleo       DietTag = "paleo"
	DietLowFODMAP   DietTag = "low FODMAP"
	DietWhole30     DietTag = "whole30"
)

// DietProfile 使用者飲食偏好解析結果
type DietProfile struct {
	Tag          DietTag
	Intolerances []string
}

// MapDiet 從自由文字解析飲食標籤與過敏原。
// 標籤依優先順序取第一個符合者；過敏原各自獨立判斷，可同時成立。
func MapDiet(raw string) DietProfile {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return DietProfile{}
	}

	var profile DietProfile
	for _, rule := range tables.Diets {
		if containsAny(s, rule.Keywords) {
			profile.Tag = rule.Tag
			break
		}
	}
	for _, rule := range tables.Intolerances {
		if containsAny(s, rule.Keywords) {
			profile.Intolerances = append(profile.Intolerances, rule.Tag)
		}
	}
	return profile
}

// PassesDiet 檢查食譜細節是否符合飲食限制。
// 沒有細節資料時視為通過；只信任服務端的標記，不從食材推論飲食類型。
func PassesDiet(detail *Detail, tag DietTag, intolerances []string) bool {
	if detail == nil {
		return true
	}

	if tag != DietNone {
		for _, rule := range tables.Diets {
			if rule.Tag != tag {
				continue
			}
			if rule.Flag != "" && detail.flag(rule.Flag) != nil && !*detail.flag(rule.Flag) {
				return false
			}
			if rule.Annotation != "" && !detail.hasDiet(rule.Annotation) {
				return false
			}
			break
		}
	}

	if len(intolerances) == 0 || len(detail.ExtendedIngredients) == 0 {
		return true
	}

	lines := make([]string, 0, len(detail.ExtendedIngredients))
	for _, ing := range detail.ExtendedIngredients {
		lines = append(lines, strings.ToLower(ing.Label()))
	}
	for _, t := range intolerances {
		rule, ok := tables.byTag[t]
		if !ok || rule.re == nil {
			continue
		}
		for _, line := range lines {
			if rule.re.MatchString(line) {
				return false
			}
		}
	}
	return true
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
