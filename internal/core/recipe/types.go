package recipe

import (
	"context"
	"strings"
)

// readySentinel 沒有任何時間資訊時使用的預設值
const readySentinel = 999

// IngredientRef 搜尋服務回傳的食材
type IngredientRef struct {
	Name     string `json:"name"`
	Original string `json:"original"`
}

// Label 顯示用文字，優先使用原始字串
func (i IngredientRef) Label() string {
	if strings.TrimSpace(i.Original) != "" {
		return i.Original
	}
	return i.Name
}

// matchName 比對用文字，優先使用名稱
func (i IngredientRef) matchName() string {
	if strings.TrimSpace(i.Name) != "" {
		return i.Name
	}
	return i.Original
}

// Candidate 搜尋服務回傳的候選食譜
type Candidate struct {
	ID                    int64           `json:"id"`
	Title                 string          `json:"title"`
	Image                 string          `json:"image,omitempty"`
	UsedIngredients       []IngredientRef `json:"usedIngredients"`
	MissedIngredients     []IngredientRef `json:"missedIngredients"`
	UsedIngredientCount   int             `json:"usedIngredientCount"`
	MissedIngredientCount int             `json:"missedIngredientCount"`
	ReadyInMinutes        int             `json:"readyInMinutes,omitempty"`
}

// Detail 候選食譜的完整資料
type Detail struct {
	ID                  int64           `json:"id"`
	Title               string          `json:"title"`
	ReadyInMinutes      int             `json:"readyInMinutes"`
	Servings            int             `json:"servings"`
	Vegan               *bool           `json:"vegan"`
	Vegetarian          *bool           `json:"vegetarian"`
	Diets               []string        `json:"diets"`
	Cuisines            []string        `json:"cuisines"`
	DishTypes           []string        `json:"dishTypes"`
	ExtendedIngredients []IngredientRef `json:"extendedIngredients"`
	Summary             string          `json:"summary"`
	Instructions        string          `json:"instructions"`
	SourceURL           string          `json:"sourceUrl"`
}

func (d *Detail) flag(name string) *bool {
	switch name {
	case "vegan":
		return d.Vegan
	case "vegetarian":
		return d.Vegetarian
	}
	return nil
}

func (d *Detail) hasDiet(key string) bool {
	for _, diet := range d.Diets {
		if strings.EqualFold(diet, key) {
			return true
		}
	}
	return false
}

// Ranked 已計算重疊數的候選食譜，建立後不再修改
type Ranked struct {
	Candidate
	Overlap int
}

// Finalist 通過所有篩選的候選食譜，Detail 可能為 nil（未補充資料的退回結果）
type Finalist struct {
	Ranked
	Detail *Detail
}

// readyIn 優先使用細節資料的時間
func (f Finalist) readyIn() int {
	if f.Detail != nil && f.Detail.ReadyInMinutes > 0 {
		return f.Detail.ReadyInMinutes
	}
	if f.ReadyInMinutes > 0 {
		return f.ReadyInMinutes
	}
	return readySentinel
}

// RecipeResult 對外回傳的食譜
type RecipeResult struct {
	Title           string   `json:"title"`
	TimeMinutes     int      `json:"time_minutes"`
	Serves          int      `json:"serves"`
	IngredientsList []string `json:"ingredients_list"`
	Steps           []string `json:"steps"`
	WhyItFits       string   `json:"why_it_fits"`
	Variation       string   `json:"variation"`
	Source          string   `json:"source,omitempty"`
	SourceID        int64    `json:"source_id,omitempty"`
	SourceURL       string   `json:"source_url,omitempty"`
}

// Request 推薦請求
type Request struct {
	Mood        string
	Minutes     int
	Ingredients string
	Diet        string
	OnlyThese   bool
	Cuisine     string
}

// Searcher 食譜搜尋服務
type Searcher interface {
	Configured() bool
	FindByIngredients(ctx context.Context, csv string, number int) ([]Candidate, error)
	Information(ctx context.Context, id int64) (*Detail, error)
	Instructions(ctx context.Context, id int64) ([]string, error)
}

// Generator 生成式食譜服務，validate 失敗的回應不會寫入快取
type Generator interface {
	Configured() bool
	Complete(ctx context.Context, prompt string, validate func(string) error) (string, error)
}
