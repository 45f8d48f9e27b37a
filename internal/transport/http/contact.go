package httptransport

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"contactform/backend/internal/config"
	"contactform/backend/internal/domain"
	"contactform/backend/internal/mailer"
	"contactform/backend/internal/monitoring"
)

// RateLimiter 按来源 IP 判定提交配额
type RateLimiter interface {
	Allow(ip string) bool
}

// MailDispatcher 投递通知与自动回复
type MailDispatcher interface {
	SendNotification(msg *domain.OutboundMessage) bool
	SendAutoReply(msg *domain.OutboundMessage) bool
}

// BackupWriter 在投递完全失败时持久化提交内容
type BackupWriter interface {
	Append(sub *domain.Submission) error
}

// ContactHandler 联系表单的请求管线
//
// 单请求内严格线性：蜜罐 → 限流 → 验证 → 组装 → 投递 → 跳转。
// 除限流器的持久化记录外，任何组件都不跨请求保留状态。
type ContactHandler struct {
	cfg        *config.Config
	limiter    RateLimiter
	composer   *mailer.Composer
	dispatcher MailDispatcher
	backup     BackupWriter
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewContactHandler 创建联系表单处理器
func NewContactHandler(
	cfg *config.Config,
	limiter RateLimiter,
	composer *mailer.Composer,
	dispatcher MailDispatcher,
	backup BackupWriter,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *ContactHandler {
	return &ContactHandler{
		cfg:        cfg,
		limiter:    limiter,
		composer:   composer,
		dispatcher: dispatcher,
		backup:     backup,
		metrics:    metrics,
		logger:     logger,
	}
}

// Landing 处理对表单端点的直接访问（非 POST），跳回落地页
func (h *ContactHandler) Landing(c *gin.Context) {
	redirectLanding(c, h.cfg.Redirect.Target)
}

// Submit 处理一次表单提交
func (h *ContactHandler) Submit(c *gin.Context) {
	target := h.cfg.Redirect.Target

	// 蜜罐字段对人类不可见，非空即机器人提交；静默拒绝，不尝试投递
	if c.PostForm("website") != "" {
		h.finishRejected(c, domain.RejectSpam, "", "honeypot triggered")
		return
	}

	ip := clientIP(c.Request)

	// 按来源 IP 的滑动窗口配额
	if !h.limiter.Allow(ip) {
		h.metrics.RecordRateLimitBlock("window")
		h.finishRejected(c, domain.RejectRateLimited, ip, "rate limit exceeded")
		return
	}

	// 字段清洗与验证：要么得到完整 Submission，要么单一拒绝原因
	sub, reason := domain.ParseSubmission(domain.FormInput{
		Name:    c.PostForm("name"),
		Company: c.PostForm("company"),
		Email:   c.PostForm("email"),
		Product: c.PostForm("product"),
		Message: c.PostForm("message"),
	})
	if reason != "" {
		h.finishRejected(c, reason, ip, "validation failed")
		return
	}

	sub.ID = uuid.NewString()
	sub.SourceIP = ip
	sub.ReceivedAt = time.Now().UTC()

	// 通知投递：主通道失败则回退备用通道
	notification := h.composer.Notification(sub)
	if h.dispatcher.SendNotification(notification) {
		// 自动回复是尽力而为，其结果绝不改变通知的投递结论
		if h.cfg.Mail.AutoReply {
			if !h.dispatcher.SendAutoReply(h.composer.AutoReply(sub)) {
				h.logger.Warn("auto-reply failed but notification succeeded",
					zap.String("submission_id", sub.ID),
					zap.String("email", sub.Email),
				)
			}
		}

		h.logger.Info("contact form success",
			zap.String("submission_id", sub.ID),
			zap.String("name", sub.Name),
			zap.String("email", sub.Email),
			zap.String("ip", ip),
		)
		h.metrics.RecordOutcome("success")
		redirectSuccess(c, target)
		return
	}

	// 两个通道都失败：先落备份，任何询盘都不能静默丢失
	if err := h.backup.Append(sub); err != nil {
		h.logger.Error("backup write failed",
			zap.String("submission_id", sub.ID),
			zap.Error(err),
		)
	}

	h.logger.Error("contact form delivery failed",
		zap.String("submission_id", sub.ID),
		zap.String("name", sub.Name),
		zap.String("email", sub.Email),
		zap.String("ip", ip),
	)
	h.metrics.RecordOutcome(string(domain.RejectSendFailed))
	redirectError(c, target, domain.RejectSendFailed)
}

// finishRejected 记录拒绝并跳转，对外只暴露查询参数里的状态标记
func (h *ContactHandler) finishRejected(c *gin.Context, reason domain.RejectReason, ip, detail string) {
	h.logger.Info("contact form rejected",
		zap.String("reason", string(reason)),
		zap.String("ip", ip),
		zap.String("detail", detail),
	)
	h.metrics.RecordOutcome(string(reason))
	redirectError(c, h.cfg.Redirect.Target, reason)
}

// clientIP 解析访问者 IP：Client-Ip → X-Forwarded-For 首跳 → 对端地址
func clientIP(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("Client-Ip")); ip != "" {
		return ip
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
