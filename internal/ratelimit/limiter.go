package ratelimit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limiter 基于持久化文件的滑动窗口限流器
//
// 记录表是一个小 JSON 对象，键为 "ip_纳秒时间戳"，值为提交的 Unix 秒。
// 每次判定都完整执行 读取 → 清理过期项 → 计数 → 写回，没有后台清理任务。
// 进程内用互斥锁串行化读改写；跨进程的并发写仍可能竞争，允许配额被
// 短暂突破（可接受的降级）。
//
// 存储不可读、内容损坏一律当作"没有历史提交"处理；写回失败只记日志，
// 限流退化为放行，绝不因为存储故障拦截正常流量。
type Limiter struct {
	path   string
	max    int
	window time.Duration
	logger *zap.Logger

	mu  sync.Mutex
	now func() time.Time // 测试注入
}

// New 创建限流器
func New(path string, max int, window time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{
		path:   path,
		max:    max,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Allow 判定来源 IP 是否允许提交
//
// 达到配额时返回 false 且不写入任何记录；放行时插入一条新记录
// 并把压缩后的记录表整体写回。
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	table := l.load()

	// 清理超过窗口期的记录
	cutoff := l.now().Add(-l.window).Unix()
	for key, ts := range table {
		if ts <= cutoff {
			delete(table, key)
		}
	}

	// 统计该 IP 的未过期记录。前缀必须带分隔符，
	// 避免 "10.0.0.1" 匹配到 "10.0.0.11" 的记录。
	prefix := ip + "_"
	count := 0
	for key := range table {
		if strings.HasPrefix(key, prefix) {
			count++
		}
	}

	if count >= l.max {
		return false
	}

	now := l.now()
	table[fmt.Sprintf("%s_%d", ip, now.UnixNano())] = now.Unix()
	l.persist(table)

	return true
}

// load 读取持久化的记录表，任何失败都返回空表
func (l *Limiter) load() map[string]int64 {
	table := make(map[string]int64)

	data, err := os.ReadFile(l.path)
	if err != nil {
		return table
	}

	if err := json.Unmarshal(data, &table); err != nil {
		l.logger.Warn("rate limit store corrupt, starting empty",
			zap.String("path", l.path),
			zap.Error(err),
		)
		return make(map[string]int64)
	}

	return table
}

// persist 整体写回记录表，失败只记日志
func (l *Limiter) persist(table map[string]int64) {
	data, err := json.Marshal(table)
	if err != nil {
		l.logger.Warn("rate limit store marshal failed", zap.Error(err))
		return
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			l.logger.Warn("rate limit store dir create failed",
				zap.String("dir", dir),
				zap.Error(err),
			)
			return
		}
	}

	if err := os.WriteFile(l.path, data, 0644); err != nil {
		l.logger.Warn("rate limit store write failed",
			zap.String("path", l.path),
			zap.Error(err),
		)
	}
}
