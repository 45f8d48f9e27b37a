package mailer

import (
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"

	"contactform/backend/internal/domain"
)

// newBoundary 生成 multipart 分隔符
//
// 分隔符必须在消息之间唯一，头部声明与正文分隔使用同一个值。
func newBoundary() string {
	return "=_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// formatAddress 格式化 "显示名 <地址>" 形式的邮件头
func formatAddress(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("UTF-8", name), address)
}

// buildMessage 组装完整的邮件（头部 + multipart/alternative 正文）
//
// 两个 part 承载同一内容：先纯文本后 HTML，行结束符统一为 CRLF。
func buildMessage(fromName, fromAddress string, msg *domain.OutboundMessage) []byte {
	boundary := newBoundary()

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", formatAddress(fromName, fromAddress))
	fmt.Fprintf(&b, "To: %s\r\n", formatAddress(msg.ToName, msg.To))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", formatAddress(msg.ReplyName, msg.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(toCRLF(msg.TextBody))
	b.WriteString("\r\n\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	b.WriteString(toCRLF(msg.HTMLBody))
	b.WriteString("\r\n\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)

	return []byte(b.String())
}

// toCRLF 把裸 LF 统一成 CRLF
func toCRLF(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	return strings.ReplaceAll(value, "\n", "\r\n")
}
