package domain

import "time"

// DefaultProduct 表单未选择产品时使用的占位值
const DefaultProduct = "Not specified"

// RejectReason 表示提交被拒绝的原因，取值直接对应跳转 URL 中的 error 参数
type RejectReason string

const (
	RejectSpam         RejectReason = "spam"          // 蜜罐字段非空（机器人提交）
	RejectRateLimited  RejectReason = "rate_limit"    // 超出同一来源 IP 的提交配额
	RejectMissingField RejectReason = "missing"       // 必填字段为空
	RejectInvalidEmail RejectReason = "invalid_email" // 邮箱格式校验失败
	RejectSendFailed   RejectReason = "send_failed"   // 所有投递通道均失败
)

// Submission 表示一条通过官网联系表单提交的询盘
//
// 到达投递环节的 Submission 保证所有必填字段非空、Email 已通过严格校验。
type Submission struct {
	ID         string    // 提交的唯一标识，用于日志与备份记录的关联
	Name       string    // 提交者姓名
	Company    string    // 提交者公司
	Email      string    // 提交者邮箱（已清洗并通过校验）
	Product    string    // 感兴趣的产品，未填写时为 DefaultProduct
	Message    string    // 询盘正文
	SourceIP   string    // 来源 IP
	ReceivedAt time.Time // 接收时间（UTC）
}

// OutboundMessage 表示一封待投递的邮件，纯文本与 HTML 两种表示承载相同内容
type OutboundMessage struct {
	To        string // 收件人地址
	ToName    string // 收件人显示名
	Subject   string // 邮件主题
	HTMLBody  string // HTML 正文
	TextBody  string // 纯文本正文
	ReplyTo   string // 可选：回复地址（通知邮件回复到提交者）
	ReplyName string // 可选：回复显示名
}
