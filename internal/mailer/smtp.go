package mailer

import (
	"bufio"
	"bytes"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"os"
	"strconv"

	"contactform/backend/internal/config"
	"contactform/backend/internal/domain"
)

// smtpState 标识 SMTP 会话推进到的阶段，出错时随错误一起上报
type smtpState int

const (
	stateConnect  smtpState = iota // 已建立连接，等待问候
	stateGreeted                   // 收到 220 问候
	stateEhloSent                  // EHLO 已被接受（多行能力应答已读完）
	stateAuthUser                  // AUTH LOGIN 已被接受，等待用户名
	stateAuthPass                  // 用户名已被接受，等待密码
	stateAuthed                    // 密码已被接受，认证完成
	stateMailFrom                  // MAIL FROM 已被接受
	stateRcptTo                    // RCPT TO 已被接受
	stateData                      // DATA 已被接受，正在传输正文
	stateSent                      // 正文以点行结束并收到 250
	stateClosed                    // QUIT 后连接已关闭
)

var smtpStateNames = map[smtpState]string{
	stateConnect:  "connect",
	stateGreeted:  "greeted",
	stateEhloSent: "ehlo",
	stateAuthUser: "auth-user",
	stateAuthPass: "auth-pass",
	stateAuthed:   "authed",
	stateMailFrom: "mail-from",
	stateRcptTo:   "rcpt-to",
	stateData:     "data",
	stateSent:     "sent",
	stateClosed:   "closed",
}

func (s smtpState) String() string {
	if name, ok := smtpStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// SMTP 应答码
const (
	codeReady        = 220 // 服务就绪
	codeOK           = 250 // 请求完成
	codeAuthOK       = 235 // 认证通过
	codeAuthContinue = 334 // 认证挑战，继续
	codeStartData    = 354 // 开始传输正文
)

// SMTPTransport 备用投递通道：经加密会话向配置的中继做认证提交
//
// 协议逐步推进，每一步校验期望应答码；任何一步应答异常即中止会话、
// 关闭连接并作为通道失败返回，由上层决定是否记录。
type SMTPTransport struct {
	cfg         config.RelayConfig
	fromName    string
	fromAddress string
	helloName   string

	// dial 建立到中继的连接，测试可注入
	dial func() (net.Conn, error)
}

// NewSMTPTransport 创建中继投递通道
func NewSMTPTransport(cfg config.RelayConfig, fromName, fromAddress string) *SMTPTransport {
	helloName, err := os.Hostname()
	if err != nil || helloName == "" {
		helloName = "localhost"
	}

	t := &SMTPTransport{
		cfg:         cfg,
		fromName:    fromName,
		fromAddress: fromAddress,
		helloName:   helloName,
	}
	t.dial = t.dialTLS
	return t
}

// Name 返回通道名，用于日志与指标
func (t *SMTPTransport) Name() string { return "smtp-relay" }

// dialTLS 在有限的连接超时内建立到中继的隐式 TLS 连接
func (t *SMTPTransport) dialTLS() (net.Conn, error) {
	dialer := &net.Dialer{Timeout: t.cfg.ConnectTimeout}
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	return tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{ServerName: t.cfg.Host})
}

// Send 投递一封邮件
//
// 会话序列：问候 → EHLO → AUTH LOGIN（base64 用户名、密码）→
// MAIL FROM → RCPT TO → DATA → 正文 + 点行 → QUIT。
func (t *SMTPTransport) Send(msg *domain.OutboundMessage) error {
	conn, err := t.dial()
	if err != nil {
		return fmt.Errorf("smtp connect %s: %w", t.cfg.Host, err)
	}
	defer conn.Close()

	s := &smtpSession{
		conn:  conn,
		r:     bufio.NewReader(conn),
		state: stateConnect,
	}

	// 问候
	if err := s.expect(stateGreeted, codeReady); err != nil {
		return err
	}

	steps := []struct {
		next    smtpState
		command string
		want    int
	}{
		{stateEhloSent, "EHLO " + t.helloName, codeOK},
		{stateAuthUser, "AUTH LOGIN", codeAuthContinue},
		{stateAuthPass, base64.StdEncoding.EncodeToString([]byte(t.cfg.Username)), codeAuthContinue},
		{stateAuthed, base64.StdEncoding.EncodeToString([]byte(t.cfg.Password)), codeAuthOK},
		{stateMailFrom, fmt.Sprintf("MAIL FROM:<%s>", t.fromAddress), codeOK},
		{stateRcptTo, fmt.Sprintf("RCPT TO:<%s>", msg.To), codeOK},
		{stateData, "DATA", codeStartData},
	}

	for _, step := range steps {
		if err := s.cmd(step.next, step.command, step.want); err != nil {
			return err
		}
	}

	// 正文：透明点填充后以单独的点行结束
	payload := dotStuff(buildMessage(t.fromName, t.fromAddress, msg))
	if _, err := s.conn.Write(append(payload, '.', '\r', '\n')); err != nil {
		return fmt.Errorf("smtp %s: write body: %w", s.state, err)
	}
	if err := s.expect(stateSent, codeOK); err != nil {
		return err
	}

	// QUIT 之后服务器可能直接断开，应答不再校验
	fmt.Fprintf(s.conn, "QUIT\r\n")
	s.state = stateClosed

	return nil
}

// smtpSession 持有一次会话的连接与推进状态
type smtpSession struct {
	conn  net.Conn
	r     *bufio.Reader
	state smtpState
}

// cmd 发送一条命令并校验应答码，通过后推进到 next 状态
func (s *smtpSession) cmd(next smtpState, command string, want int) error {
	if _, err := fmt.Fprintf(s.conn, "%s\r\n", command); err != nil {
		return fmt.Errorf("smtp %s: write: %w", s.state, err)
	}
	return s.expect(next, want)
}

// expect 读取应答并校验状态码，通过后推进到 next 状态
func (s *smtpSession) expect(next smtpState, want int) error {
	code, line, err := s.reply()
	if err != nil {
		return fmt.Errorf("smtp %s: read reply: %w", s.state, err)
	}
	if code != want {
		return fmt.Errorf("smtp %s: expected %d, got %d (%s)", s.state, want, code, line)
	}
	s.state = next
	return nil
}

// reply 读取一条应答，吃掉 "250-" 形式的多行后续，返回三位状态码
func (s *smtpSession) reply() (int, string, error) {
	var last string
	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			return 0, "", err
		}
		last = trimCRLF(line)

		if len(last) < 4 || last[3] != '-' {
			break
		}
	}

	if len(last) < 3 {
		return 0, last, fmt.Errorf("short reply %q", last)
	}
	code, err := strconv.Atoi(last[:3])
	if err != nil {
		return 0, last, fmt.Errorf("malformed reply %q", last)
	}
	return code, last, nil
}

func trimCRLF(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}

// dotStuff 对以点开头的行做透明填充，防止正文内容提前结束 DATA
func dotStuff(data []byte) []byte {
	if len(data) > 0 && data[0] == '.' {
		data = append([]byte{'.'}, data...)
	}
	return bytes.ReplaceAll(data, []byte("\r\n."), []byte("\r\n.."))
}
