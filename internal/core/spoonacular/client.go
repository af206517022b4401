package spoonacular

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"moodchef/internal/core/recipe"
	"moodchef/internal/infrastructure/cache"
	"moodchef/internal/infrastructure/config"
	"moodchef/internal/infrastructure/metrics"
	"moodchef/internal/pkg/common"
)

const serviceName = "spoonacular"

// Client 食譜搜尋服務客戶端，補充資料與步驟會寫入快取
type Client struct {
	http   *resty.Client
	apiKey string
	cache  cache.Store
}

// analyzedInstruction analyzedInstructions 回應的一段
type analyzedInstruction struct {
	Name  string `json:"name"`
	Steps []struct {
		Number int    `json:"number"`
		Step   string `json:"step"`
	} `json:"steps"`
}

// NewClient 創建客戶端，store 為 nil 時不使用快取
func NewClient(cfg config.SpoonacularConfig, store cache.Store) *Client {
	if store == nil {
		store = cache.Noop{}
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetQueryParam("apiKey", cfg.APIKey)

	return &Client{
		http:   httpClient,
		apiKey: cfg.APIKey,
		cache:  store,
	}
}

// Configured 是否已設定 API Key
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// FindByIngredients 依食材搜尋候選食譜，排序偏好用到最多食材並忽略常備品
func (c *Client) FindByIngredients(ctx context.Context, csv string, number int) ([]recipe.Candidate, error) {
	var candidates []recipe.Candidate
	err := c.get(ctx, "findByIngredients", "/recipes/findByIngredients", func(r *resty.Request) {
		r.SetQueryParams(map[string]string{
			"ingredients":  csv,
			"number":       strconv.Itoa(number),
			"ranking":      "1",
			"ignorePantry": "true",
		})
	}, &candidates)
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

// Information 取得食譜完整資料
func (c *Client) Information(ctx context.Context, id int64) (*recipe.Detail, error) {
	key := cache.Key("detail", strconv.FormatInt(id, 10))
	var detail recipe.Detail
	if cache.LookupJSON(ctx, c.cache, "detail", key, &detail) {
		return &detail, nil
	}

	err := c.get(ctx, "information", "/recipes/{id}/information", func(r *resty.Request) {
		r.SetPathParam("id", strconv.FormatInt(id, 10)).
			SetQueryParam("includeNutrition", "false")
	}, &detail)
	if err != nil {
		return nil, err
	}

	cache.SaveJSON(ctx, c.cache, "detail", key, &detail)
	return &detail, nil
}

// Instructions 取得第一段有內容的結構化步驟
func (c *Client) Instructions(ctx context.Context, id int64) ([]string, error) {
	key := cache.Key("instructions", strconv.FormatInt(id, 10))
	var steps []string
	if cache.LookupJSON(ctx, c.cache, "instructions", key, &steps) {
		return steps, nil
	}

	var sections []analyzedInstruction
	err := c.get(ctx, "analyzedInstructions", "/recipes/{id}/analyzedInstructions", func(r *resty.Request) {
		r.SetPathParam("id", strconv.FormatInt(id, 10))
	}, &sections)
	if err != nil {
		return nil, err
	}

	for _, section := range sections {
		for _, s := range section.Steps {
			if text := strings.TrimSpace(s.Step); text != "" {
				steps = append(steps, text)
			}
		}
		if len(steps) > 0 {
			break
		}
	}

	cache.SaveJSON(ctx, c.cache, "instructions", key, steps)
	return steps, nil
}

// get 送出 GET 並解析 JSON。非 2xx 回傳 UPSTREAM_FAILED，連線失敗回傳 503 或 504
func (c *Client) get(ctx context.Context, operation, path string, build func(*resty.Request), out interface{}) (err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		metrics.UpstreamDuration.WithLabelValues(serviceName, operation).Observe(d.Seconds())
		common.LogUpstreamCall(serviceName, operation, d, err, common.RequestIDFrom(ctx))
	}()

	req := c.http.R().SetContext(ctx)
	build(req)

	resp, err := req.Get(path)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return common.ErrGatewayTimeout.Wrap(err)
		}
		return common.ErrServiceUnavailable.Wrap(err)
	}
	if !resp.IsSuccess() {
		return common.NewUpstreamError(serviceName, operation, resp.StatusCode(), resp.String())
	}
	if err := common.ParseJSONBytes(resp.Body(), out); err != nil {
		return common.NewUpstreamError(serviceName, operation, resp.StatusCode(),
			fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}
