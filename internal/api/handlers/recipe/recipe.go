package recipe

import (
	"context"
	"net/http"

	"moodchef/internal/core/recipe"
	"moodchef/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SuggestRequest 推薦請求，欄位名稱沿用前端送出的格式
type SuggestRequest struct {
	Mood        string `json:"mood" binding:"required"`
	Minutes     int    `json:"minutes"`
	Ingredients string `json:"ingredients" binding:"required"`
	Diet        string `json:"diet,omitempty"`
	OnlyThese   bool   `json:"onlyThese"`
	Cuisine     string `json:"cuisine,omitempty"`
}

// SuggestionsResponse 多筆推薦
type SuggestionsResponse struct {
	Recipes []recipe.RecipeResult `json:"recipes"`
}

// Suggester 推薦服務
type Suggester interface {
	Suggest(ctx context.Context, req recipe.Request) ([]recipe.RecipeResult, error)
}

// Handler 食譜處理程序
type Handler struct {
	suggester Suggester
}

// NewHandler 創建新的食譜處理程序
func NewHandler(suggester Suggester) *Handler {
	return &Handler{suggester: suggester}
}

// HandleSuggest 回傳最佳的一筆食譜
func (h *Handler) HandleSuggest(c *gin.Context) {
	results, ok := h.suggest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, results[0])
}

// HandleSuggestAll 回傳所有入選食譜，第一筆為最佳結果
func (h *Handler) HandleSuggestAll(c *gin.Context) {
	results, ok := h.suggest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SuggestionsResponse{Recipes: results})
}

func (h *Handler) suggest(c *gin.Context) ([]recipe.RecipeResult, bool) {
	requestID := common.RequestID(c)

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("請求格式無效",
			zap.Error(err),
			zap.String("request_id", requestID),
		)
		common.WriteError(c, common.BindingError(err))
		return nil, false
	}

	common.LogInfo("開始處理食譜推薦請求",
		zap.String("request_id", requestID),
		zap.Int("minutes", req.Minutes),
		zap.Bool("only_these", req.OnlyThese),
		zap.String("client_ip", c.ClientIP()),
	)

	ctx := common.WithRequestID(c.Request.Context(), requestID)
	results, err := h.suggester.Suggest(ctx, recipe.Request{
		Mood:        req.Mood,
		Minutes:     req.Minutes,
		Ingredients: req.Ingredients,
		Diet:        req.Diet,
		OnlyThese:   req.OnlyThese,
		Cuisine:     req.Cuisine,
	})
	if err != nil {
		common.WriteError(c, err)
		return nil, false
	}
	if len(results) == 0 {
		common.WriteError(c, common.ErrNoRecipes)
		return nil, false
	}
	return results, true
}
