package domain

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

// 验证相关的错误定义
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmailTooLong     = errors.New("email address too long")
	ErrLocalPartTooLong = errors.New("local part too long (max 64 chars)")
	ErrDomainTooLong    = errors.New("domain too long (max 253 chars)")
	ErrInvalidLocalPart = errors.New("invalid local part format")
	ErrInvalidDomain    = errors.New("invalid domain format")
)

// RFC 5322 邮箱地址长度限制
const (
	MaxEmailLength     = 254 // 整个邮箱地址最大长度
	MaxLocalPartLength = 64  // 本地部分最大长度(@前面)
	MaxDomainLength    = 253 // 域名最大长度
)

var (
	// HTML/XML 标签（含未闭合的残片）
	tagRegex = regexp.MustCompile(`<[^>]*>?`)

	// 邮箱地址中不合法的字符，清洗时直接剔除
	emailIllegalRegex = regexp.MustCompile("[^a-zA-Z0-9!#$%&'*+/=?^_`{|}~@.\\[\\]-]")

	// 本地部分验证（首尾必须是字母或数字）
	localPartRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

	// 域名验证（支持子域名，至少一个点）
	domainRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]?(\.[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9]?)+$`)
)

// SanitizeText 清洗自由文本字段：剔除标签并去除首尾空白
//
// 渲染进邮件正文前还会再做一次 HTML 转义，这里的清洗只负责
// 去掉提交内容里夹带的标记。
func SanitizeText(value string) string {
	return strings.TrimSpace(tagRegex.ReplaceAllString(value, ""))
}

// SanitizeEmail 清洗邮箱字段：去除首尾空白并剔除地址中不合法的字符
func SanitizeEmail(value string) string {
	return emailIllegalRegex.ReplaceAllString(strings.TrimSpace(value), "")
}

// ValidateEmail 完整验证邮箱地址
func ValidateEmail(email string) error {
	// 长度检查
	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}

	// 使用标准库进行基础格式验证
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	// 分离本地部分和域名
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ErrInvalidEmail
	}

	localPart := email[:at]
	domainPart := email[at+1:]

	if err := validateLocalPart(localPart); err != nil {
		return err
	}

	return validateDomain(domainPart)
}

// validateLocalPart 验证邮箱本地部分
func validateLocalPart(localPart string) error {
	if localPart == "" {
		return ErrInvalidLocalPart
	}

	if len(localPart) > MaxLocalPartLength {
		return ErrLocalPartTooLong
	}

	if !localPartRegex.MatchString(localPart) {
		return ErrInvalidLocalPart
	}

	// 不允许连续的点
	if strings.Contains(localPart, "..") {
		return ErrInvalidLocalPart
	}

	return nil
}

// validateDomain 验证域名
func validateDomain(domainPart string) error {
	if domainPart == "" {
		return ErrInvalidDomain
	}

	if len(domainPart) > MaxDomainLength {
		return ErrDomainTooLong
	}

	if !domainRegex.MatchString(domainPart) {
		return ErrInvalidDomain
	}

	return nil
}

// FormInput 表单提交的原始字段值
type FormInput struct {
	Name    string
	Company string
	Email   string
	Product string
	Message string
}

// ParseSubmission 清洗并验证表单字段，生成 Submission
//
// 验证没有部分成功：要么得到完整的 Submission（reason 为空），
// 要么得到单一的拒绝原因。
func ParseSubmission(input FormInput) (*Submission, RejectReason) {
	name := SanitizeText(input.Name)
	company := SanitizeText(input.Company)
	email := strings.TrimSpace(input.Email)
	product := SanitizeText(input.Product)
	message := SanitizeText(input.Message)

	if product == "" {
		product = DefaultProduct
	}

	// 必填字段检查
	if name == "" || company == "" || email == "" || message == "" {
		return nil, RejectMissingField
	}

	// 邮箱：先清洗再严格校验
	email = SanitizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, RejectInvalidEmail
	}

	return &Submission{
		Name:    name,
		Company: company,
		Email:   email,
		Product: product,
		Message: message,
	}, ""
}
