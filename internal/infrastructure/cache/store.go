package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"moodchef/internal/infrastructure/config"
	"moodchef/internal/infrastructure/metrics"
	"moodchef/internal/pkg/common"
)

// Store 快取儲存介面，找不到時 Get 回傳 common.ErrCacheMiss
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// New 依設定建立快取，停用時回傳不儲存任何資料的 Store
func New(cfg *config.Config) (Store, error) {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return Noop{}, nil
	}
	switch cfg.Cache.Backend {
	case "redis":
		return NewRedisStore(cfg.Redis, cfg.Cache.TTL)
	case "memory", "":
		return NewManager(cfg.Cache), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Key 由多個部分組成快取鍵，內容以 SHA-256 雜湊
func Key(kind string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return kind + ":" + hex.EncodeToString(hash[:])
}

// Lookup 讀取字串並記錄命中率，任何錯誤都視為未命中
func Lookup(ctx context.Context, s Store, kind, key string) (string, bool) {
	val, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("Cache read failed", zap.String("type", kind), zap.Error(err))
		}
		metrics.CacheOps.WithLabelValues(kind, "miss").Inc()
		common.LogCacheMiss(kind)
		return "", false
	}
	metrics.CacheOps.WithLabelValues(kind, "hit").Inc()
	common.LogCacheHit(kind)
	return val, true
}

// LookupJSON 讀取並解析 JSON，解析失敗視為未命中
func LookupJSON(ctx context.Context, s Store, kind, key string, v interface{}) bool {
	val, ok := Lookup(ctx, s, kind, key)
	if !ok {
		return false
	}
	if err := common.ParseJSON(val, v); err != nil {
		common.LogWarn("Cached value is not valid JSON", zap.String("type", kind), zap.Error(err))
		return false
	}
	return true
}

// Save 寫入字串，失敗只記錄日誌
func Save(ctx context.Context, s Store, kind, key, value string) {
	if err := s.Set(ctx, key, value); err != nil {
		common.LogWarn("Cache write failed", zap.String("type", kind), zap.Error(err))
	}
}

// SaveJSON 序列化後寫入
func SaveJSON(ctx context.Context, s Store, kind, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		common.LogWarn("Failed to marshal cache value", zap.String("type", kind), zap.Error(err))
		return
	}
	Save(ctx, s, kind, key, string(data))
}

// Noop 停用快取時使用
type Noop struct{}

func (Noop) Get(context.Context, string) (string, error) { return "", common.ErrCacheMiss }

func (Noop) Set(context.Context, string, string) error { return nil }

func (Noop) Ping(context.Context) error { return nil }

func (Noop) Close() error { return nil }
