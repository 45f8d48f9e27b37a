package health

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// Checker 健康检查器
//
// 存活检查恒为轻量；就绪检查覆盖限流存储目录与中继可达性。
type Checker struct {
	health healthcheck.Handler
	logger *zap.Logger
}

// NewChecker 创建健康检查器
//
// relayAddr 为空（未配置备用中继）时跳过中继检查。
func NewChecker(storePath, relayAddr string, logger *zap.Logger) *Checker {
	h := healthcheck.NewHandler()

	h.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(200))

	h.AddReadinessCheck("rate-limit-store", storeDirCheck(storePath))

	if relayAddr != "" {
		h.AddReadinessCheck("smtp-relay", healthcheck.TCPDialCheck(relayAddr, 5*time.Second))
	}

	return &Checker{health: h, logger: logger}
}

// Handler 返回健康检查处理器（/live 与 /ready）
func (c *Checker) Handler() http.Handler {
	return c.health
}

// storeDirCheck 校验限流存储所在目录存在且可写
func storeDirCheck(storePath string) healthcheck.Check {
	return func() error {
		dir := filepath.Dir(storePath)

		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("rate limit store dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("rate limit store path %s is not a directory", dir)
		}

		probe, err := os.CreateTemp(dir, ".healthcheck-*")
		if err != nil {
			return fmt.Errorf("rate limit store dir not writable: %w", err)
		}
		probe.Close()
		os.Remove(probe.Name())

		return nil
	}
}
