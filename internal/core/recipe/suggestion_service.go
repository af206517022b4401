package recipe

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"moodchef/internal/infrastructure/config"
	"moodchef/internal/infrastructure/metrics"
	"moodchef/internal/pkg/common"
)

const (
	maxMoodLength = 200
	maxMinutes    = 240

	onlyTheseHint = "Try unchecking 'only these ingredients' or add one more ingredient."
)

// Options 推薦流程參數
type Options struct {
	Source             string
	FetchCount         int
	LookAhead          int
	FinalistCap        int
	EnrichConcurrency  int
	OnlyTheseSupported bool
	GenerativeCount    int
}

// DefaultOptions 預設參數
func DefaultOptions() Options {
	return Options{
		Source:             SourceSearch,
		FetchCount:         20,
		LookAhead:          10,
		FinalistCap:        3,
		EnrichConcurrency:  4,
		OnlyTheseSupported: true,
		GenerativeCount:    3,
	}
}

// OptionsFromConfig 從設定建立參數
func OptionsFromConfig(cfg config.PipelineConfig) Options {
	return Options{
		Source:             cfg.Source,
		FetchCount:         cfg.FetchCount,
		LookAhead:          cfg.LookAhead,
		FinalistCap:        cfg.FinalistCap,
		EnrichConcurrency:  cfg.EnrichConcurrency,
		OnlyTheseSupported: cfg.OnlyTheseSupported,
		GenerativeCount:    cfg.GenerativeCount,
	}
}

// SuggestionService 食譜推薦服務
type SuggestionService struct {
	searcher  Searcher
	generator Generator
	opts      Options
}

// NewSuggestionService 創建推薦服務，未使用的來源可傳 nil
func NewSuggestionService(searcher Searcher, generator Generator, opts Options) *SuggestionService {
	return &SuggestionService{
		searcher:  searcher,
		generator: generator,
		opts:      opts,
	}
}

// Source 目前使用的食譜來源
func (s *SuggestionService) Source() string {
	return s.opts.Source
}

// Suggest 依心情、時間、食材與飲食偏好推薦食譜，第一筆為最佳結果
func (s *SuggestionService) Suggest(ctx context.Context, req Request) (results []RecipeResult, err error) {
	start := time.Now()
	defer func() {
		code := "ok"
		if err != nil {
			code = common.ErrCodeInternalError
			if ce, ok := common.AsCustomError(err); ok {
				code = ce.Code
			}
		}
		metrics.PipelineOutcomes.WithLabelValues(s.opts.Source, code).Inc()
		common.LogInfo("Suggestion finished",
			zap.String("source", s.opts.Source),
			zap.String("code", code),
			zap.Int("results", len(results)),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
	}()

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	if s.opts.Source == SourceGenerative {
		return s.generate(ctx, req)
	}
	return s.search(ctx, req)
}

// validateRequest 在呼叫任何外部服務前檢查輸入
func validateRequest(req Request) error {
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		return common.NewValidationError("mood is required")
	}
	if utf8.RuneCountInString(mood) > maxMoodLength {
		return common.NewValidationError("mood must be at most 200 characters")
	}
	if req.Minutes < 1 || req.Minutes > maxMinutes {
		return common.NewValidationError("minutes must be between 1 and 240")
	}
	if _, items := SplitIngredients(req.Ingredients); len(items) == 0 {
		return common.NewValidationError("ingredients are required")
	}
	return nil
}

func (s *SuggestionService) search(ctx context.Context, req Request) ([]RecipeResult, error) {
	if s.searcher == nil || !s.searcher.Configured() {
		return nil, common.NewMisconfiguredError("SPOONACULAR_API_KEY")
	}

	csv, items := SplitIngredients(req.Ingredients)
	profile := MapDiet(req.Diet)
	onlyThese := req.OnlyThese && s.opts.OnlyTheseSupported

	candidates, err := s.searcher.FindByIngredients(ctx, csv, s.opts.FetchCount)
	if err != nil {
		logUpstream(ctx, err)
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, common.ErrNoRecipes
	}

	ranked := Rank(items, candidates)
	finalists, err := SelectFinalists(ctx, s.searcher.Information, ranked,
		Constraints{
			Minutes:      req.Minutes,
			Diet:         profile.Tag,
			Intolerances: profile.Intolerances,
			OnlyThese:    onlyThese,
		},
		FinalistOptions{
			LookAhead:   s.opts.LookAhead,
			Cap:         s.opts.FinalistCap,
			Concurrency: s.opts.EnrichConcurrency,
		})
	if err != nil {
		return nil, common.ErrGatewayTimeout.Wrap(err)
	}

	if len(finalists) == 0 {
		if onlyThese {
			return nil, common.ErrNoMatch.WithHint(onlyTheseHint)
		}
		common.LogDebug("No finalist passed the filters, using top-ranked candidate",
			zap.Int64("id", ranked[0].ID),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		finalists = []Finalist{{Ranked: ranked[0]}}
	}

	steps := s.fetchInstructions(ctx, finalists)
	p := Presentation{
		Mood:      strings.TrimSpace(req.Mood),
		Minutes:   req.Minutes,
		CSV:       csv,
		RawItems:  SplitCSV(csv),
		Diet:      strings.TrimSpace(req.Diet),
		OnlyThese: onlyThese,
	}

	results := make([]RecipeResult, len(finalists))
	for i, f := range finalists {
		results[i] = Present(f, steps[i], p)
	}
	return results, nil
}

// fetchInstructions 並行取得每個入選食譜的結構化步驟，失敗時留空改用摘要推導
func (s *SuggestionService) fetchInstructions(ctx context.Context, finalists []Finalist) [][]string {
	steps := make([][]string, len(finalists))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.opts.EnrichConcurrency, 1))
	for i, f := range finalists {
		g.Go(func() error {
			st, err := s.searcher.Instructions(gctx, f.ID)
			if err != nil {
				common.LogWarn("Instructions lookup failed, using fallback steps",
					zap.Int64("id", f.ID),
					zap.String("request_id", common.RequestIDFrom(ctx)),
					zap.Error(err),
				)
				return nil
			}
			steps[i] = st
			return nil
		})
	}
	_ = g.Wait()
	return steps
}

func (s *SuggestionService) generate(ctx context.Context, req Request) ([]RecipeResult, error) {
	if s.generator == nil || !s.generator.Configured() {
		return nil, common.NewMisconfiguredError("OPENROUTER_API_KEY")
	}

	_, items := SplitIngredients(req.Ingredients)
	count := max(s.opts.GenerativeCount, 1)
	prompt := BuildPrompt(Brief{
		Mood:        strings.TrimSpace(req.Mood),
		Minutes:     req.Minutes,
		Ingredients: items,
		Diet:        strings.TrimSpace(req.Diet),
		Cuisine:     strings.TrimSpace(req.Cuisine),
		OnlyThese:   req.OnlyThese,
		Count:       count,
	})

	var (
		results  []RecipeResult
		parseErr error
	)
	raw, err := s.generator.Complete(ctx, prompt, func(raw string) error {
		results, parseErr = ParseGenerated(raw, req.Minutes)
		return parseErr
	})
	if err != nil {
		if parseErr != nil && err == parseErr {
			common.LogError("Failed to parse generated recipes",
				zap.Int("raw_length", len(raw)),
				zap.String("request_id", common.RequestIDFrom(ctx)),
				zap.Error(err),
			)
			return nil, err
		}
		logUpstream(ctx, err)
		if _, ok := common.AsCustomError(err); ok {
			return nil, err
		}
		return nil, common.ErrGenerationFailed.Wrap(err)
	}
	if len(results) > count {
		results = results[:count]
	}
	return results, nil
}

// logUpstream 記錄外部服務錯誤細節，回應內容不會回傳給用戶端
func logUpstream(ctx context.Context, err error) {
	fields := []zap.Field{
		zap.String("request_id", common.RequestIDFrom(ctx)),
		zap.Error(err),
	}
	if ue, ok := common.UpstreamDetails(err); ok {
		fields = append(fields,
			zap.String("service", ue.Service),
			zap.String("operation", ue.Operation),
			zap.Int("status", ue.Status),
			zap.String("body", ue.Body),
		)
	}
	common.LogError("Upstream collaborator failed", fields...)
}
