package recipe

import "strings"

// IsPantry 判斷食材是否屬於常備品。
// 完全相符或包含任一常備品字串即成立（"extra virgin olive oil" 含 "oil"），會有誤判但可接受。
func IsPantry(name string) bool {
	n := strings.ToLower(name)
	if _, ok := tables.staples[n]; ok {
		return true
	}
	for _, staple := range tables.PantryStaples {
		if strings.Contains(n, staple) {
			return true
		}
	}
	return false
}

// nonPantryMissing 回傳候選食譜中缺少且不屬於常備品的食材
func nonPantryMissing(c Candidate) []string {
	var out []string
	for _, m := range c.MissedIngredients {
		label := strings.ToLower(m.Label())
		if !IsPantry(label) {
			out = append(out, label)
		}
	}
	return out
}
