package ratelimit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestLimiter 创建使用可控时钟的限流器
func newTestLimiter(t *testing.T, max int) (*Limiter, *time.Time) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rate_limit.json")
	l := New(path, max, time.Hour, zap.NewNop())

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	return l, &now
}

func TestLimiterQuota(t *testing.T) {
	t.Run("sixth submission within window is rejected", func(t *testing.T) {
		l, _ := newTestLimiter(t, 5)

		for i := 0; i < 5; i++ {
			assert.True(t, l.Allow("203.0.113.7"), "submission %d should pass", i+1)
		}
		assert.False(t, l.Allow("203.0.113.7"))
	})

	t.Run("different ip is unaffected", func(t *testing.T) {
		l, _ := newTestLimiter(t, 5)

		for i := 0; i < 5; i++ {
			require.True(t, l.Allow("203.0.113.7"))
		}
		require.False(t, l.Allow("203.0.113.7"))
		assert.True(t, l.Allow("198.51.100.9"))
	})

	t.Run("ip that prefixes another ip is not miscounted", func(t *testing.T) {
		l, _ := newTestLimiter(t, 5)

		for i := 0; i < 5; i++ {
			require.True(t, l.Allow("10.0.0.11"))
		}
		// "10.0.0.1" 是 "10.0.0.11" 的字符串前缀，但不能共享其配额
		assert.True(t, l.Allow("10.0.0.1"))
	})

	t.Run("rejected submission leaves no record", func(t *testing.T) {
		l, _ := newTestLimiter(t, 1)

		require.True(t, l.Allow("203.0.113.7"))
		require.False(t, l.Allow("203.0.113.7"))

		table := l.load()
		assert.Len(t, table, 1)
	})
}

func TestLimiterSlidingWindow(t *testing.T) {
	t.Run("expired entries are purged and quota refreshes", func(t *testing.T) {
		l, now := newTestLimiter(t, 5)

		for i := 0; i < 5; i++ {
			require.True(t, l.Allow("203.0.113.7"))
		}
		require.False(t, l.Allow("203.0.113.7"))

		// 窗口滑过之后配额恢复
		*now = now.Add(61 * time.Minute)
		assert.True(t, l.Allow("203.0.113.7"))
	})

	t.Run("purge compacts the persisted table", func(t *testing.T) {
		l, now := newTestLimiter(t, 5)

		require.True(t, l.Allow("203.0.113.7"))
		*now = now.Add(2 * time.Hour)
		require.True(t, l.Allow("198.51.100.9"))

		data, err := os.ReadFile(l.path)
		require.NoError(t, err)

		var table map[string]int64
		require.NoError(t, json.Unmarshal(data, &table))
		assert.Len(t, table, 1, "expired entry should have been rewritten away")
	})
}

func TestLimiterPersistence(t *testing.T) {
	t.Run("counts survive across limiter instances", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rate_limit.json")

		first := New(path, 2, time.Hour, zap.NewNop())
		require.True(t, first.Allow("203.0.113.7"))
		require.True(t, first.Allow("203.0.113.7"))

		second := New(path, 2, time.Hour, zap.NewNop())
		assert.False(t, second.Allow("203.0.113.7"))
	})

	t.Run("missing store file counts as no prior submissions", func(t *testing.T) {
		l := New(filepath.Join(t.TempDir(), "does-not-exist.json"), 5, time.Hour, zap.NewNop())
		assert.True(t, l.Allow("203.0.113.7"))
	})

	t.Run("corrupt store file counts as no prior submissions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rate_limit.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		l := New(path, 5, time.Hour, zap.NewNop())
		assert.True(t, l.Allow("203.0.113.7"))
	})

	t.Run("unwritable store degrades to allow", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("cannot produce an unwritable directory as root")
		}

		dir := t.TempDir()
		require.NoError(t, os.Chmod(dir, 0555))
		t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

		l := New(filepath.Join(dir, "rate_limit.json"), 5, time.Hour, zap.NewNop())
		for i := 0; i < 10; i++ {
			assert.True(t, l.Allow("203.0.113.7"))
		}
	})
}
