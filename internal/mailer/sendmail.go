package mailer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"contactform/backend/internal/domain"
)

// sendmailTimeout 单次调用 sendmail 的时间上限
const sendmailTimeout = 10 * time.Second

// SendmailTransport 主投递通道：把组装好的邮件交给本机的 sendmail
//
// 同步且二值：成功或失败，不重试。收件人从邮件头读取（-t），
// 单独的点行不作为结束符（-i）。
type SendmailTransport struct {
	path        string // sendmail 可执行文件路径
	fromName    string
	fromAddress string
}

// NewSendmailTransport 创建本机投递通道
func NewSendmailTransport(path, fromName, fromAddress string) *SendmailTransport {
	return &SendmailTransport{
		path:        path,
		fromName:    fromName,
		fromAddress: fromAddress,
	}
}

// Name 返回通道名，用于日志与指标
func (t *SendmailTransport) Name() string { return "sendmail" }

// Send 投递一封邮件
func (t *SendmailTransport) Send(msg *domain.OutboundMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendmailTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.path, "-t", "-i", "-f", t.fromAddress)
	cmd.Stdin = bytes.NewReader(buildMessage(t.fromName, t.fromAddress, msg))

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("sendmail %s: %w (output: %s)", t.path, err, bytes.TrimSpace(out))
	}

	return nil
}
