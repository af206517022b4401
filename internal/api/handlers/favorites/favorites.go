package favorites

import (
	"context"
	"net/http"

	"moodchef/internal/api/middleware"
	"moodchef/internal/core/favorites"
	"moodchef/internal/core/recipe"
	"moodchef/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// Store 收藏儲存
type Store interface {
	Save(ctx context.Context, userID string, r recipe.RecipeResult) (*favorites.View, error)
	List(ctx context.Context, userID string) ([]favorites.View, error)
	Delete(ctx context.Context, userID, id string) error
}

// SaveRequest 收藏請求，內容為完整的食譜
type SaveRequest struct {
	recipe.RecipeResult
}

// ListResponse 收藏列表
type ListResponse struct {
	Favorites []favorites.View `json:"favorites"`
}

// Handler 收藏處理程序，需搭配 middleware.Auth
type Handler struct {
	store Store
}

// NewHandler 創建收藏處理程序
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// HandleList 列出收藏
func (h *Handler) HandleList(c *gin.Context) {
	views, err := h.store.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Favorites: views})
}

// HandleSave 儲存收藏
func (h *Handler) HandleSave(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.WriteError(c, common.BindingError(err))
		return
	}

	view, err := h.store.Save(c.Request.Context(), middleware.UserID(c), req.RecipeResult)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// HandleDelete 刪除收藏
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		common.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
