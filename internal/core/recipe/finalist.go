package recipe

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"moodchef/internal/infrastructure/metrics"
	"moodchef/internal/pkg/common"
)

// Constraints 篩選條件
type Constraints struct {
	Minutes      int
	Diet         DietTag
	Intolerances []string
	OnlyThese    bool
}

// FinalistOptions 篩選上限
type FinalistOptions struct {
	LookAhead   int // 最多檢查的候選數
	Cap         int // 最多保留的入選數
	Concurrency int // 同時補充資料的數量
}

// DetailLookup 取得候選食譜的完整資料
type DetailLookup func(ctx context.Context, id int64) (*Detail, error)

// SelectFinalists 依排序檢查候選食譜，補充資料後套用時間、飲食與 only-these 條件。
// 補充資料以批次並行，結果仍依原排序判斷；單筆查詢失敗會略過該候選。
// 只有 ctx 被取消時回傳錯誤。
func SelectFinalists(ctx context.Context, lookup DetailLookup, ranked []Ranked, cons Constraints, opts FinalistOptions) ([]Finalist, error) {
	window := ranked
	if len(window) > opts.LookAhead {
		window = window[:opts.LookAhead]
	}
	batch := max(opts.Concurrency, 1)

	// only-these 不需要細節資料，先排除以減少查詢
	var pending []Ranked
	for _, r := range window {
		if cons.OnlyThese {
			if missing := nonPantryMissing(r.Candidate); len(missing) > 0 {
				common.LogDebug("Candidate rejected by only-these",
					zap.Int64("id", r.ID),
					zap.Strings("missing", missing),
				)
				continue
			}
		}
		pending = append(pending, r)
	}

	var finalists []Finalist
	for start := 0; start < len(pending) && len(finalists) < opts.Cap; start += batch {
		end := min(start+batch, len(pending))
		group := pending[start:end]
		details := make([]*Detail, len(group))

		var g errgroup.Group
		for i, r := range group {
			g.Go(func() error {
				d, err := lookup(ctx, r.ID)
				if err != nil {
					metrics.EnrichmentLookups.WithLabelValues("error").Inc()
					common.LogWarn("Enrichment lookup failed, skipping candidate",
						zap.Int64("id", r.ID),
						zap.String("request_id", common.RequestIDFrom(ctx)),
						zap.Error(err),
					)
					return nil
				}
				metrics.EnrichmentLookups.WithLabelValues("ok").Inc()
				details[i] = d
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for i, r := range group {
			if details[i] == nil {
				continue
			}
			f := Finalist{Ranked: r, Detail: details[i]}
			if !admit(f, cons) {
				continue
			}
			finalists = append(finalists, f)
			if len(finalists) >= opts.Cap {
				break
			}
		}
	}
	return finalists, nil
}

// admit 時間與飲食條件
func admit(f Finalist, cons Constraints) bool {
	if f.readyIn() > cons.Minutes {
		return false
	}
	return PassesDiet(f.Detail, cons.Diet, cons.Intolerances)
}
