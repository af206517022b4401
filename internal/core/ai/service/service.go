package service

import (
	"context"
	"strings"

	"moodchef/internal/core/ai/provider"
	"moodchef/internal/infrastructure/cache"
	"moodchef/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	cacheKind    = "llm"
	systemPrompt = "You are a helpful home-cooking assistant. You always answer with valid JSON and nothing else."
)

// Service AI 服務，在模型前加上回應快取
type Service struct {
	provider provider.Provider
	cache    cache.Store
}

// NewService 創建 AI 服務，store 為 nil 時不使用快取
func NewService(p provider.Provider, store cache.Store) *Service {
	if store == nil {
		store = cache.Noop{}
	}
	return &Service{
		provider: p,
		cache:    store,
	}
}

// Configured 是否已設定模型金鑰
func (s *Service) Configured() bool {
	return s.provider != nil && s.provider.Configured()
}

// Complete 送出提示詞並回傳模型文字，相同模型與提示詞會命中快取。
// validate 不為 nil 時，只有通過檢查的回應才會寫入快取；未通過的快取內容視為未命中。
func (s *Service) Complete(ctx context.Context, prompt string, validate func(string) error) (string, error) {
	if !s.Configured() {
		return "", common.NewMisconfiguredError("OPENROUTER_API_KEY")
	}

	// 統一空白，確保快取 key 一致
	normalized := strings.Join(strings.Fields(prompt), " ")
	key := cache.Key(cacheKind, s.provider.Model(), normalized)
	if val, ok := cache.Lookup(ctx, s.cache, cacheKind, key); ok {
		if validate == nil || validate(val) == nil {
			return val, nil
		}
	}

	resp, err := s.provider.Generate(ctx, &provider.Request{
		Messages: []provider.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		JSONMode: true,
	})
	if err != nil {
		return "", err
	}

	common.LogInfo("Generated response from AI service",
		zap.String("model", resp.Model),
		zap.Int("content_length", len(resp.Content)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.String("request_id", common.RequestIDFrom(ctx)),
	)

	if validate != nil {
		if err := validate(resp.Content); err != nil {
			return resp.Content, err
		}
	}

	cache.Save(ctx, s.cache, cacheKind, key, resp.Content)
	return resp.Content, nil
}
