package mailer

import (
	"go.uber.org/zap"

	"contactform/backend/internal/domain"
	"contactform/backend/internal/monitoring"
)

// 投递种类，用于日志与指标
const (
	KindNotification = "notification"
	KindAutoReply    = "auto_reply"
)

// Transport 表示一种独立的邮件投递通道
type Transport interface {
	// Name 返回通道名，用于日志与指标
	Name() string
	// Send 同步投递一封邮件，成功返回 nil
	Send(msg *domain.OutboundMessage) error
}

// Dispatcher 按固定顺序在各通道间做投递回退
//
// 通知按主通道 → 备用通道的顺序尝试；自动回复走同样的回退链，
// 但其结果只记录，从不影响通知的投递结论。
type Dispatcher struct {
	transports []Transport
	metrics    *monitoring.Metrics
	logger     *zap.Logger
}

// NewDispatcher 创建投递器，transports 按尝试顺序给出
func NewDispatcher(logger *zap.Logger, metrics *monitoring.Metrics, transports ...Transport) *Dispatcher {
	return &Dispatcher{
		transports: transports,
		metrics:    metrics,
		logger:     logger,
	}
}

// SendNotification 投递询盘通知，返回是否有任一通道成功
func (d *Dispatcher) SendNotification(msg *domain.OutboundMessage) bool {
	return d.send(KindNotification, msg)
}

// SendAutoReply 投递自动回复，结果仅用于日志与指标
func (d *Dispatcher) SendAutoReply(msg *domain.OutboundMessage) bool {
	return d.send(KindAutoReply, msg)
}

// send 依次尝试各通道，首个成功即返回；每次尝试都记录
func (d *Dispatcher) send(kind string, msg *domain.OutboundMessage) bool {
	for _, t := range d.transports {
		err := t.Send(msg)
		if err == nil {
			d.logger.Info("mail sent",
				zap.String("kind", kind),
				zap.String("transport", t.Name()),
				zap.String("to", msg.To),
			)
			if d.metrics != nil {
				d.metrics.RecordDeliveryAttempt(t.Name(), kind, "success")
			}
			return true
		}

		d.logger.Warn("mail transport failed",
			zap.String("kind", kind),
			zap.String("transport", t.Name()),
			zap.String("to", msg.To),
			zap.Error(err),
		)
		if d.metrics != nil {
			d.metrics.RecordDeliveryAttempt(t.Name(), kind, "failure")
		}
	}

	d.logger.Error("all mail transports failed",
		zap.String("kind", kind),
		zap.String("to", msg.To),
	)
	return false
}
