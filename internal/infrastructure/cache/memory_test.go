package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moodchef/internal/infrastructure/config"
	"moodchef/internal/pkg/common"
)

// fakeClock 可手動推進的時鐘
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestManager(t *testing.T, maxSize int) (*CacheManager, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	m := NewManager(config.CacheConfig{MaxSize: maxSize, TTL: time.Minute})
	m.now = clock.now
	t.Cleanup(func() { _ = m.Close() })
	return m, clock
}

func TestManagerGetSet(t *testing.T) {
	m, _ := newTestManager(t, 10)
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrCacheMiss)

	require.NoError(t, m.Set(ctx, "k", "v"))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	stats := m.GetStats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRatio, 1e-9)
	assert.NoError(t, m.Ping(ctx))
}

func TestManagerExpiry(t *testing.T) {
	m, clock := newTestManager(t, 10)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v"))
	clock.advance(2 * time.Minute)

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	assert.Equal(t, 0, m.GetStats().Size)
	assert.Equal(t, int64(1), m.GetStats().Evictions)
}

func TestManagerFullCleansExpiredFirst(t *testing.T) {
	m, clock := newTestManager(t, 2)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "old", "1"))
	clock.advance(2 * time.Minute)
	require.NoError(t, m.Set(ctx, "fresh", "2"))
	require.NoError(t, m.Set(ctx, "new", "3"))

	_, err := m.Get(ctx, "old")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	got, err := m.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
}

func TestManagerEvictsLeastUsed(t *testing.T) {
	m, clock := newTestManager(t, 2)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	clock.advance(time.Second)
	require.NoError(t, m.Set(ctx, "b", "2"))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)

	clock.advance(time.Second)
	require.NoError(t, m.Set(ctx, "c", "3"))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, common.ErrCacheMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestManagerOverwriteDoesNotEvict(t *testing.T) {
	m, _ := newTestManager(t, 1)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", "1"))
	require.NoError(t, m.Set(ctx, "a", "2"))

	got, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "2", got)
	assert.Equal(t, int64(0), m.GetStats().Evictions)
}

func TestManagerCloseTwice(t *testing.T) {
	m := NewManager(config.CacheConfig{MaxSize: 1, TTL: time.Minute, CleanupInterval: time.Millisecond})
	require.NoError(t, m.Set(context.Background(), "a", "1"))

	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())
	assert.Equal(t, 0, m.GetStats().Size)
}

func TestKey(t *testing.T) {
	a := Key("detail", "1")
	assert.Equal(t, a, Key("detail", "1"))
	assert.NotEqual(t, a, Key("instructions", "1"))
	assert.NotEqual(t, Key("llm", "ab", "c"), Key("llm", "a", "bc"))
	assert.Regexp(t, `^detail:[0-9a-f]{64}$`, a)
}

func TestLookupJSON(t *testing.T) {
	m, _ := newTestManager(t, 10)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	var out payload
	assert.False(t, LookupJSON(ctx, m, "test", "k", &out))

	SaveJSON(ctx, m, "test", "k", payload{Name: "soup"})
	assert.True(t, LookupJSON(ctx, m, "test", "k", &out))
	assert.Equal(t, "soup", out.Name)

	Save(ctx, m, "test", "bad", "{")
	assert.False(t, LookupJSON(ctx, m, "test", "bad", &out))
}

// failingStore 每次操作都失敗
type failingStore struct{ Noop }

func (failingStore) Get(context.Context, string) (string, error) { return "", errors.New("down") }

func (failingStore) Set(context.Context, string, string) error { return errors.New("down") }

func TestLookupTreatsErrorsAsMiss(t *testing.T) {
	ctx := context.Background()
	_, ok := Lookup(ctx, failingStore{}, "test", "k")
	assert.False(t, ok)

	// 寫入失敗不會中斷流程
	Save(ctx, failingStore{}, "test", "k", "v")
}

func TestNew(t *testing.T) {
	store, err := New(&config.Config{Cache: config.CacheConfig{Enabled: false}})
	require.NoError(t, err)
	assert.IsType(t, Noop{}, store)

	store, err = New(&config.Config{Cache: config.CacheConfig{Enabled: true, Backend: "memory", MaxSize: 5, TTL: time.Minute}})
	require.NoError(t, err)
	assert.IsType(t, &CacheManager{}, store)
	_ = store.Close()

	_, err = New(&config.Config{Cache: config.CacheConfig{Enabled: true, Backend: "memcached"}})
	assert.Error(t, err)
}
