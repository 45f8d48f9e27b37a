package mailer

import (
	"fmt"
	"html/template"
	"strings"

	"contactform/backend/internal/config"
	"contactform/backend/internal/domain"
)

// notificationTmpl 发给企业负责人的询盘通知
var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #1a1a1a; color: white; padding: 20px; text-align: center; }
.content { background: #f9f9f9; padding: 20px; border: 1px solid #ddd; }
.field { margin-bottom: 15px; }
.label { font-weight: bold; color: #ffa500; }
.value { margin-top: 5px; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h2>New Website Inquiry</h2></div>
<div class="content">
<div class="field"><div class="label">From:</div><div class="value">{{.Name}}</div></div>
<div class="field"><div class="label">Company:</div><div class="value">{{.Company}}</div></div>
<div class="field"><div class="label">Email:</div><div class="value">{{.Email}}</div></div>
<div class="field"><div class="label">Product Interest:</div><div class="value">{{.Product}}</div></div>
<div class="field"><div class="label">Message:</div><div class="value">{{.MessageHTML}}</div></div>
</div>
</div>
</body>
</html>
`))

// autoReplyTmpl 发给提交者的自动回复
var autoReplyTmpl = template.Must(template.New("autoreply").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.8; color: #333; }
.container { max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background: #1a1a1a; color: white; padding: 30px 20px; text-align: center; }
.content { background: #ffffff; padding: 30px; border: 1px solid #ddd; }
.footer { background: #f9f9f9; padding: 20px; text-align: center; font-size: 14px; color: #666; border-top: 1px solid #ddd; }
.highlight { color: #ffa500; font-weight: bold; }
.contact-info { background: #f5f5f5; padding: 15px; border-left: 4px solid #ffa500; margin: 20px 0; }
</style>
</head>
<body>
<div class="container">
<div class="header"><h1>{{.BusinessName}}</h1></div>
<div class="content">
<p>Dear {{.Name}},</p>
<p>Thank you for your inquiry. We have received your message and appreciate your interest in {{.BusinessName}}.</p>
<p>Our team will review your requirements and respond within <span class="highlight">24 hours</span> during business days.</p>
<p>If your inquiry is urgent, please feel free to contact us directly:</p>
<div class="contact-info">
<strong>Phone:</strong> {{.Phone}}<br>
<strong>Email:</strong> {{.FromAddress}}
</div>
<p>Best regards,<br><strong>{{.BusinessName}} Team</strong></p>
</div>
<div class="footer">
<p><strong>{{.BusinessName}}</strong><br>{{.Address}}<br>{{.Website}}</p>
</div>
</div>
</body>
</html>
`))

// Composer 根据邮件身份配置渲染通知与自动回复
//
// 纯函数式：同一 Submission 渲染结果确定，不持有请求间状态。
type Composer struct {
	cfg config.MailConfig
}

// NewComposer 创建消息组装器
func NewComposer(cfg config.MailConfig) *Composer {
	return &Composer{cfg: cfg}
}

// Notification 渲染发给企业负责人的询盘通知
//
// Reply-To 指向提交者，负责人可直接回复。正文字段在嵌入 HTML 前
// 再做一次转义（清洗后的纵深防御），换行在 HTML 表示中转为 <br>。
func (c *Composer) Notification(sub *domain.Submission) *domain.OutboundMessage {
	var html strings.Builder
	_ = notificationTmpl.Execute(&html, struct {
		Name, Company, Email, Product string
		MessageHTML                   template.HTML
	}{
		Name:        sub.Name,
		Company:     sub.Company,
		Email:       sub.Email,
		Product:     sub.Product,
		MessageHTML: nl2br(sub.Message),
	})

	var text strings.Builder
	text.WriteString("New Website Inquiry\n\n")
	fmt.Fprintf(&text, "From: %s\n", sub.Name)
	fmt.Fprintf(&text, "Company: %s\n", sub.Company)
	fmt.Fprintf(&text, "Email: %s\n", sub.Email)
	fmt.Fprintf(&text, "Product Interest: %s\n\n", sub.Product)
	fmt.Fprintf(&text, "Message:\n%s\n", sub.Message)

	return &domain.OutboundMessage{
		To:        c.cfg.ToAddress,
		ToName:    c.cfg.ToName,
		Subject:   fmt.Sprintf("Website Inquiry from %s (%s)", sub.Name, sub.Company),
		HTMLBody:  html.String(),
		TextBody:  text.String(),
		ReplyTo:   sub.Email,
		ReplyName: sub.Name,
	}
}

// AutoReply 渲染发给提交者的自动回复，无 Reply-To
func (c *Composer) AutoReply(sub *domain.Submission) *domain.OutboundMessage {
	var html strings.Builder
	_ = autoReplyTmpl.Execute(&html, struct {
		Name, BusinessName, Phone, FromAddress, Website, Address string
	}{
		Name:         sub.Name,
		BusinessName: c.cfg.BusinessName,
		Phone:        c.cfg.Phone,
		FromAddress:  c.cfg.FromAddress,
		Website:      c.cfg.Website,
		Address:      c.cfg.Address,
	})

	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\n", sub.Name)
	fmt.Fprintf(&text, "Thank you for your inquiry. We have received your message and appreciate your interest in %s.\n\n", c.cfg.BusinessName)
	text.WriteString("Our team will review your requirements and respond within 24 hours during business days.\n\n")
	text.WriteString("If your inquiry is urgent, please feel free to contact us directly:\n")
	fmt.Fprintf(&text, "Phone: %s\n", c.cfg.Phone)
	fmt.Fprintf(&text, "Email: %s\n\n", c.cfg.FromAddress)
	fmt.Fprintf(&text, "Best regards,\n%s Team\n\n---\n%s\n%s\n%s\n",
		c.cfg.BusinessName, c.cfg.BusinessName, c.cfg.Address, c.cfg.Website)

	return &domain.OutboundMessage{
		To:       sub.Email,
		ToName:   sub.Name,
		Subject:  fmt.Sprintf("Thank you for contacting %s", c.cfg.BusinessName),
		HTMLBody: html.String(),
		TextBody: text.String(),
	}
}

// nl2br 先转义再把换行转成 <br>，保证用户内容不会注入标记
func nl2br(value string) template.HTML {
	escaped := template.HTMLEscapeString(value)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
	return template.HTML(escaped)
}
