package recipe

import (
	"regexp"
	"strings"
)

// maxIngredients 使用者輸入的食材上限
const maxIngredients = 20

var (
	nonLetterPattern   = regexp.MustCompile(`[^a-z\s]`)
	pluralPattern      = regexp.MustCompile(`(?:es|s)+\b`)
	ingestDelimiters   = regexp.MustCompile(`[,;\n ]+`)
	wordInitialPattern = regexp.MustCompile(`\b[a-z]`)
)

// Normalize 將食材字串轉為比對用的標準形式。
// 小寫、去除非字母字元、去掉每個字尾的 s/es，結果可重複套用不變。
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = nonLetterPattern.ReplaceAllString(s, "")
	s = pluralPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SplitIngredients 解析使用者輸入，回傳逗號連接的 CSV 與各項食材（最多 20 項）
func SplitIngredients(raw string) (string, []string) {
	var items []string
	for _, piece := range ingestDelimiters.Split(raw, -1) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		items = append(items, piece)
		if len(items) == maxIngredients {
			break
		}
	}
	return strings.Join(items, ","), items
}

// SplitCSV 以逗號切分已整理過的 CSV（顯示用）
func SplitCSV(csv string) []string {
	var out []string
	for _, piece := range strings.Split(csv, ",") {
		if piece = strings.TrimSpace(piece); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// TitleCase 將每個單字開頭的小寫字母轉大寫
func TitleCase(s string) string {
	return wordInitialPattern.ReplaceAllStringFunc(s, strings.ToUpper)
}

// NormalizeAll 逐項標準化，輸出與輸入位置一一對應
func NormalizeAll(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = Normalize(item)
	}
	return out
}

// distinctTokens 去重並移除空字串，保留原順序
func distinctTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
