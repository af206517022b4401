package recipe

import "sort"

// Rank 依使用者食材的重疊數篩選並排序候選食譜。
//
// 篩選依序採用第一個非空的層級：
//  1. 用到全部使用者食材
//  2. 至少用到 min(2, 食材數) 項
//  3. 全部候選
//
// 排序：重疊數高者優先，其次缺少食材少者，再其次搜尋服務的使用數多者；完全相同時保留原順序。
func Rank(userIngredients []string, candidates []Candidate) []Ranked {
	user := distinctTokens(NormalizeAll(userIngredients))
	total := len(user)

	all := make([]Ranked, len(candidates))
	for i, c := range candidates {
		all[i] = Ranked{Candidate: c, Overlap: overlapCount(user, c)}
	}

	ranked := filterRanked(all, func(r Ranked) bool { return r.Overlap == total })
	if len(ranked) == 0 {
		atLeast := min(2, total)
		ranked = filterRanked(all, func(r Ranked) bool { return r.Overlap >= atLeast })
	}
	if len(ranked) == 0 {
		ranked = all
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Overlap != b.Overlap {
			return a.Overlap > b.Overlap
		}
		if a.MissedIngredientCount != b.MissedIngredientCount {
			return a.MissedIngredientCount < b.MissedIngredientCount
		}
		return a.UsedIngredientCount > b.UsedIngredientCount
	})
	return ranked
}

// overlapCount 計算使用者食材（已去重）出現在候選食譜已用食材中的數量
func overlapCount(user []string, c Candidate) int {
	used := make(map[string]struct{}, len(c.UsedIngredients))
	for _, ing := range c.UsedIngredients {
		used[Normalize(ing.matchName())] = struct{}{}
	}
	n := 0
	for _, u := range user {
		if _, ok := used[u]; ok {
			n++
		}
	}
	return n
}

func filterRanked(in []Ranked, keep func(Ranked) bool) []Ranked {
	var out []Ranked
	for _, r := range in {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
