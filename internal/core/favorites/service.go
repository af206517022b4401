package favorites

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"moodchef/internal/core/recipe"
	"moodchef/internal/pkg/common"
)

// Favorite 使用者收藏的食譜，Data 為完整 RecipeResult JSON
type Favorite struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:64;not null;index:idx_favorites_user_created,priority:1"`
	Title     string    `gorm:"size:512;not null"`
	Data      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_favorites_user_created,priority:2"`
}

// View 對外回傳的收藏
type View struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Recipe    recipe.RecipeResult `json:"recipe"`
	CreatedAt time.Time           `json:"created_at"`
}

// Service 收藏服務
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService 創建收藏服務
func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Save 儲存收藏
func (s *Service) Save(ctx context.Context, userID string, r recipe.RecipeResult) (*View, error) {
	if strings.TrimSpace(r.Title) == "" {
		return nil, common.NewValidationError("recipe title is required")
	}
	data, err := common.ToJSON(r)
	if err != nil {
		return nil, common.ErrInternalError.Wrap(err)
	}

	fav := Favorite{
		ID:        common.GenerateUUID(),
		UserID:    userID,
		Title:     r.Title,
		Data:      data,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&fav).Error; err != nil {
		return nil, common.ErrInternalError.Wrap(fmt.Errorf("failed to save favorite: %w", err))
	}

	common.LogInfo("Favorite saved",
		zap.String("id", fav.ID),
		zap.String("request_id", common.RequestIDFrom(ctx)),
	)
	return &View{ID: fav.ID, Title: fav.Title, Recipe: r, CreatedAt: fav.CreatedAt}, nil
}

// List 列出使用者的收藏，新的在前
func (s *Service) List(ctx context.Context, userID string) ([]View, error) {
	var rows []Favorite
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, common.ErrInternalError.Wrap(fmt.Errorf("failed to list favorites: %w", err))
	}

	views := make([]View, 0, len(rows))
	for _, row := range rows {
		var r recipe.RecipeResult
		if err := common.ParseJSON(row.Data, &r); err != nil {
			common.LogWarn("Skipping unreadable favorite", zap.String("id", row.ID), zap.Error(err))
			continue
		}
		views = append(views, View{ID: row.ID, Title: row.Title, Recipe: r, CreatedAt: row.CreatedAt})
	}
	return views, nil
}

// Delete 刪除收藏，不屬於該使用者的項目視為不存在
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Favorite{})
	if res.Error != nil {
		return common.ErrInternalError.Wrap(fmt.Errorf("failed to delete favorite: %w", res.Error))
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.Wrap(errors.New("favorite not found"))
	}
	return nil
}
