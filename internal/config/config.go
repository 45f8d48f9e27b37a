package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host       string // 监听地址，默认 "0.0.0.0"
	Port       int    // 监听端口，默认 8080
	HealthPort int    // 健康检查监听端口，默认 8086
}

// MailConfig 定义邮件身份与自动回复的业务配置
type MailConfig struct {
	FromAddress  string // 发件人地址
	FromName     string // 发件人显示名
	ToAddress    string // 通知收件人地址（企业负责人）
	ToName       string // 通知收件人显示名
	AutoReply    bool   // 是否向提交者发送自动回复
	SendmailPath string // 本机 sendmail 可执行文件路径
	BusinessName string // 自动回复中的企业名称
	Phone        string // 自动回复中的联系电话
	Website      string // 自动回复中的网站地址
	Address      string // 自动回复中的公司地址
}

// RelayConfig 定义备用 SMTP 中继的连接配置
//
// 凭据只从环境变量 / .env 加载，不进入源码仓库。
type RelayConfig struct {
	Host           string        // 中继主机，留空表示禁用备用通道
	Port           int           // 中继端口，默认 465（隐式 TLS）
	Username       string        // AUTH LOGIN 用户名
	Password       string        // AUTH LOGIN 密码
	ConnectTimeout time.Duration // 连接超时，默认 10s
}

// RateLimitConfig 定义提交限流配置
type RateLimitConfig struct {
	MaxPerWindow int           // 窗口内单 IP 最大提交数，默认 5
	Window       time.Duration // 滑动窗口长度，默认 1h
	StorePath    string        // 限流记录的持久化文件路径
	BurstRate    float64       // 进程级突发限流：每秒放行数
	BurstSize    int           // 进程级突发限流：桶容量
}

// RedirectConfig 定义结果跳转目标
type RedirectConfig struct {
	Target string // 表单结果页地址，状态以查询参数附加其上
}

// BackupConfig 定义投递失败时的备份记录配置
type BackupConfig struct {
	Path string // 追加写入的备份文件路径
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空只输出到控制台
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server    ServerConfig
	Mail      MailConfig
	Relay     RelayConfig
	RateLimit RateLimitConfig
	Redirect  RedirectConfig
	Backup    BackupConfig
	CORS      CORSConfig
	Log       LogConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: CONTACTFORM_
// 例如: CONTACTFORM_MAIL_TO_ADDRESS, CONTACTFORM_RELAY_PASSWORD
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，.env 是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("contactform")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.health_port", 8086)
	viper.SetDefault("mail.from_address", "")
	viper.SetDefault("mail.from_name", "")
	viper.SetDefault("mail.to_address", "")
	viper.SetDefault("mail.to_name", "")
	viper.SetDefault("mail.auto_reply", true)
	viper.SetDefault("mail.sendmail_path", "/usr/sbin/sendmail")
	viper.SetDefault("mail.business_name", "")
	viper.SetDefault("mail.phone", "")
	viper.SetDefault("mail.website", "")
	viper.SetDefault("mail.address", "")
	viper.SetDefault("relay.host", "")
	viper.SetDefault("relay.port", 465)
	viper.SetDefault("relay.username", "")
	viper.SetDefault("relay.password", "")
	viper.SetDefault("relay.connect_timeout", "10s")
	viper.SetDefault("ratelimit.max_per_window", 5)
	viper.SetDefault("ratelimit.window", "1h")
	viper.SetDefault("ratelimit.store_path", "data/rate_limit.json")
	viper.SetDefault("ratelimit.burst_rate", 10)
	viper.SetDefault("ratelimit.burst_size", 20)
	viper.SetDefault("redirect.target", "index.html")
	viper.SetDefault("backup.path", "data/form_submissions.txt")
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("log.file", "")

	window, err := time.ParseDuration(viper.GetString("ratelimit.window"))
	if err != nil {
		return nil, fmt.Errorf("invalid ratelimit.window: %w", err)
	}

	connectTimeout, err := time.ParseDuration(viper.GetString("relay.connect_timeout"))
	if err != nil {
		connectTimeout = 10 * time.Second
	}

	maxPerWindow := viper.GetInt("ratelimit.max_per_window")
	if maxPerWindow <= 0 {
		maxPerWindow = 5
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:       viper.GetString("server.host"),
			Port:       viper.GetInt("server.port"),
			HealthPort: viper.GetInt("server.health_port"),
		},
		Mail: MailConfig{
			FromAddress:  viper.GetString("mail.from_address"),
			FromName:     viper.GetString("mail.from_name"),
			ToAddress:    viper.GetString("mail.to_address"),
			ToName:       viper.GetString("mail.to_name"),
			AutoReply:    viper.GetBool("mail.auto_reply"),
			SendmailPath: viper.GetString("mail.sendmail_path"),
			BusinessName: viper.GetString("mail.business_name"),
			Phone:        viper.GetString("mail.phone"),
			Website:      viper.GetString("mail.website"),
			Address:      viper.GetString("mail.address"),
		},
		Relay: RelayConfig{
			Host:           viper.GetString("relay.host"),
			Port:           viper.GetInt("relay.port"),
			Username:       viper.GetString("relay.username"),
			Password:       viper.GetString("relay.password"),
			ConnectTimeout: connectTimeout,
		},
		RateLimit: RateLimitConfig{
			MaxPerWindow: maxPerWindow,
			Window:       window,
			StorePath:    viper.GetString("ratelimit.store_path"),
			BurstRate:    viper.GetFloat64("ratelimit.burst_rate"),
			BurstSize:    viper.GetInt("ratelimit.burst_size"),
		},
		Redirect: RedirectConfig{
			Target: viper.GetString("redirect.target"),
		},
		Backup: BackupConfig{
			Path: viper.GetString("backup.path"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
			File:        viper.GetString("log.file"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate 检查配置的完整性
func (c *Config) validate() error {
	if c.Mail.FromAddress == "" {
		return fmt.Errorf("mail.from_address must be set")
	}
	if c.Mail.ToAddress == "" {
		return fmt.Errorf("mail.to_address must be set")
	}

	// 配置了中继主机就必须带上凭据，否则 AUTH LOGIN 必然失败
	if c.Relay.Host != "" {
		if c.Relay.Username == "" || c.Relay.Password == "" {
			return fmt.Errorf("relay.username and relay.password must be set when relay.host is configured")
		}
		if c.Relay.Port <= 0 || c.Relay.Port > 65535 {
			return fmt.Errorf("invalid relay.port: %d", c.Relay.Port)
		}
	}

	return nil
}

// RelayAddr 返回中继的 host:port 地址，未配置中继时返回空串
func (c *Config) RelayAddr() string {
	if c.Relay.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Relay.Host, c.Relay.Port)
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 注意：
//   - 如果文件不存在，静默失败（.env 是可选的）
//   - 已存在的环境变量不会被 .env 覆盖
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	// 从子目录运行时尝试父目录的 .env
	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
