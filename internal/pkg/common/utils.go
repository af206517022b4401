package common

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type requestIDKey struct{}

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RequestID 取得請求 ID，requestid 中間件會寫入回應標頭
func RequestID(c *gin.Context) string {
	if id := c.Writer.Header().Get("X-Request-ID"); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	id := GenerateUUID()
	c.Header("X-Request-ID", id)
	return id
}

// WithRequestID 將請求 ID 放入 context，供下游記錄日誌
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom 從 context 取出請求 ID，沒有時回傳空字串
func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WriteError 寫入錯誤響應，非 CustomError 一律視為內部錯誤
func WriteError(c *gin.Context, err error) {
	ce, ok := AsCustomError(err)
	if !ok {
		ce = ErrInternalError.Wrap(err)
	}
	c.AbortWithStatusJSON(ce.Status, ce.Response(RequestID(c)))
}
