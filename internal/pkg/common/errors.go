package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
	Hint      string `json:"hint,omitempty"`
	NeedsAuth bool   `json:"needs_auth,omitempty"`
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 對外顯示的錯誤信息
	Err     error  // 原始錯誤（只寫入日誌）
	Status  int    // HTTP 狀態碼
	Hint    string // 給使用者的建議
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is 以錯誤代碼比對，讓預定義錯誤可搭配 errors.Is 使用
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap 複製錯誤並附加原始錯誤
func (e *CustomError) Wrap(err error) *CustomError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithHint 複製錯誤並附加建議
func (e *CustomError) WithHint(hint string) *CustomError {
	cp := *e
	cp.Hint = hint
	return &cp
}

// Response 轉換為 API 響應
func (e *CustomError) Response(requestID string) ErrorResponse {
	return ErrorResponse{
		Error:     e.Message,
		Code:      e.Code,
		RequestID: requestID,
		Hint:      e.Hint,
		NeedsAuth: e.Code == ErrCodeUnauthorized,
	}
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// UpstreamError 外部服務回傳非成功狀態時的細節，僅供日誌診斷
type UpstreamError struct {
	Service   string
	Operation string
	Status    int
	Body      string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s failed: %d %s", e.Service, e.Operation, e.Status, e.Body)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"    // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"       // 401
	ErrCodeNotFound        = "NOT_FOUND"          // 404
	ErrCodeNoRecipes       = "NO_RECIPES_FOUND"   // 404
	ErrCodeNoMatch         = "NO_MATCHING_RECIPE" // 404
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"  // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"        // 500
	ErrCodeMisconfigured      = "SERVICE_MISCONFIGURED" // 500
	ErrCodeGenerationFailed   = "GENERATION_FAILED"     // 500
	ErrCodeUpstreamFailed     = "UPSTREAM_FAILED"       // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"   // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"       // 504
)

// 預定義錯誤
var (
	ErrUnauthorized    = NewError(ErrCodeUnauthorized, "Sign in to continue", http.StatusUnauthorized, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)

	// 業務錯誤
	ErrNoRecipes        = NewError(ErrCodeNoRecipes, "No recipes found with your ingredients.", http.StatusNotFound, nil)
	ErrNoMatch          = NewError(ErrCodeNoMatch, "No suitable recipe matched your filters.", http.StatusNotFound, nil)
	ErrGenerationFailed = NewError(ErrCodeGenerationFailed, "Could not generate a recipe right now.", http.StatusInternalServerError, nil)
	ErrCacheMiss        = errors.New("cache miss")
	ErrCacheFull        = NewError("CACHE_FULL", "Cache is full", http.StatusServiceUnavailable, nil)
)

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) *CustomError {
	return NewError(ErrCodeInvalidRequest, message, http.StatusBadRequest, nil)
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	ce, ok := AsCustomError(err)
	return ok && ce.Code == ErrCodeInvalidRequest
}

// NewMisconfiguredError 外部服務未設定（例如缺少 API Key）
func NewMisconfiguredError(what string) *CustomError {
	return NewError(ErrCodeMisconfigured, "Service is not configured.", http.StatusInternalServerError,
		fmt.Errorf("%s missing", what))
}

// NewUpstreamError 外部服務回傳非成功狀態，狀態碼對外可見，回應內容只記錄在日誌
func NewUpstreamError(service, operation string, status int, body string) *CustomError {
	return NewError(ErrCodeUpstreamFailed,
		fmt.Sprintf("%s failed with upstream status %d", operation, status),
		http.StatusBadGateway,
		&UpstreamError{Service: service, Operation: operation, Status: status, Body: body})
}

// AsCustomError 從錯誤鏈中取出 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// UpstreamDetails 從錯誤鏈中取出外部服務細節
func UpstreamDetails(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
