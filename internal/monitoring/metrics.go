package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
//
// 使用独立的 Registry，避免测试中重复注册冲突。
type Metrics struct {
	registry *prometheus.Registry

	// 提交指标：按最终结果计数
	SubmissionsTotal *prometheus.CounterVec

	// 投递指标：每次通道尝试按 通道/种类/结果 计数
	DeliveryAttempts *prometheus.CounterVec

	// 限流指标：按限流层计数（window = 滑动窗口，burst = 突发限流）
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		SubmissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactform_submissions_total",
				Help: "Total number of contact form submissions by outcome",
			},
			[]string{"outcome"},
		),

		DeliveryAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactform_delivery_attempts_total",
				Help: "Total number of mail delivery attempts by transport, kind and result",
			},
			[]string{"transport", "kind", "result"},
		),

		RateLimitBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contactform_rate_limit_blocks_total",
				Help: "Total number of submissions blocked by rate limiting",
			},
			[]string{"limiter"},
		),
	}
}

// RecordOutcome 记录一次提交的最终结果
func (m *Metrics) RecordOutcome(outcome string) {
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// RecordDeliveryAttempt 记录一次投递尝试
func (m *Metrics) RecordDeliveryAttempt(transport, kind, result string) {
	m.DeliveryAttempts.WithLabelValues(transport, kind, result).Inc()
}

// RecordRateLimitBlock 记录一次限流拦截
func (m *Metrics) RecordRateLimitBlock(limiter string) {
	m.RateLimitBlocks.WithLabelValues(limiter).Inc()
}

// Handler 返回 /metrics 的 HTTP 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
