package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"moodchef/internal/pkg/common"
)

// UserIDKey gin context 中存放使用者 ID 的鍵
const UserIDKey = "user_id"

// TokenValidator 驗證 Bearer token 並回傳使用者 ID
type TokenValidator struct {
	secret []byte
	issuer string
}

// NewTokenValidator 使用 HS256 共用密鑰，issuer 為空時不檢查
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret), issuer: issuer}
}

// Configured 是否已設定密鑰
func (v *TokenValidator) Configured() bool {
	return len(v.secret) > 0
}

// ValidateToken 驗證 token，sub 為使用者 ID
func (v *TokenValidator) ValidateToken(tokenString string) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(sub) == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}

// Auth 驗證中間件，失敗時回傳 401 與 needs_auth
func Auth(v *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !v.Configured() {
			common.WriteError(c, common.NewMisconfiguredError("JWT_SECRET"))
			return
		}

		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			common.WriteError(c, common.ErrUnauthorized)
			return
		}

		userID, err := v.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			common.LogDebug("Token rejected",
				zap.String("request_id", common.RequestID(c)),
				zap.Error(err),
			)
			common.WriteError(c, common.ErrUnauthorized.Wrap(err))
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID 取得已驗證的使用者 ID
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
