package openrouter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"moodchef/internal/core/ai/provider"
	"moodchef/internal/infrastructure/config"
	"moodchef/internal/infrastructure/metrics"
	"moodchef/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	serviceName = "openrouter"
	operation   = "chat/completions"
)

// Client OpenRouter API 客戶端
type Client struct {
	http   *resty.Client
	config config.OpenRouterConfig
}

// Request 表示 API 請求
type Request struct {
	Model          string             `json:"model"`
	Messages       []provider.Message `json:"messages"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	Temperature    float64            `json:"temperature,omitempty"`
	ResponseFormat *ResponseFormat    `json:"response_format,omitempty"`
}

// ResponseFormat 要求模型輸出 JSON
type ResponseFormat struct {
	Type string `json:"type"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []Choice       `json:"choices"`
	Usage   provider.Usage `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message provider.Message `json:"message"`
}

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg config.OpenRouterConfig) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("HTTP-Referer", "https://moodchef.app").
		SetHeader("X-Title", "MoodChef")

	return &Client{
		http:   httpClient,
		config: cfg,
	}
}

// Model 當前模型
func (c *Client) Model() string {
	return c.config.Model
}

// Configured 是否已設定 API Key
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.config.APIKey) != ""
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (resp *provider.Response, err error) {
	start := time.Now()
	defer func() {
		d := time.Since(start)
		metrics.UpstreamDuration.WithLabelValues(serviceName, operation).Observe(d.Seconds())
		common.LogUpstreamCall(serviceName, operation, d, err, common.RequestIDFrom(ctx))
	}()

	body := Request{
		Model:       c.config.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = c.config.MaxTokens
	}
	if body.Temperature == 0 {
		body.Temperature = c.config.Temperature
	}
	if req.JSONMode {
		body.ResponseFormat = &ResponseFormat{Type: "json_object"}
	}

	common.LogDebug("Sending request to OpenRouter",
		zap.String("model", body.Model),
		zap.Int("messages", len(body.Messages)),
	)

	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, common.ErrGatewayTimeout.Wrap(err)
		}
		return nil, common.ErrServiceUnavailable.Wrap(err)
	}

	if !httpResp.IsSuccess() {
		return nil, common.NewUpstreamError(serviceName, operation, httpResp.StatusCode(), httpResp.String())
	}

	var result Response
	if err := common.ParseJSONBytes(httpResp.Body(), &result); err != nil {
		return nil, common.ErrGenerationFailed.Wrap(fmt.Errorf("failed to parse OpenRouter response: %w", err))
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return nil, common.ErrGenerationFailed.Wrap(errors.New("empty content in OpenRouter response"))
	}

	return &provider.Response{
		Content: result.Choices[0].Message.Content,
		Model:   result.Model,
		Usage:   result.Usage,
	}, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.http.GetClient().CloseIdleConnections()
	return nil
}
