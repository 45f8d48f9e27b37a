package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"contactform/backend/internal/backup"
	"contactform/backend/internal/config"
	"contactform/backend/internal/health"
	"contactform/backend/internal/logger"
	"contactform/backend/internal/mailer"
	"contactform/backend/internal/monitoring"
	"contactform/backend/internal/ratelimit"
	httptransport "contactform/backend/internal/transport/http"
)

// main 启动联系表单网关：HTTP 入口 + 独立端口的健康检查。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting contact form gateway",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
		zap.Bool("auto_reply", cfg.Mail.AutoReply),
	)

	metrics := monitoring.NewMetrics()

	// 限流器：按来源 IP 的滑动窗口，记录表持久化到本地文件
	limiter := ratelimit.New(
		cfg.RateLimit.StorePath,
		cfg.RateLimit.MaxPerWindow,
		cfg.RateLimit.Window,
		log,
	)

	// 投递链：本机 sendmail 为主，配置了中继则以其为备用
	transports := []mailer.Transport{
		mailer.NewSendmailTransport(cfg.Mail.SendmailPath, cfg.Mail.FromName, cfg.Mail.FromAddress),
	}
	if cfg.Relay.Host != "" {
		transports = append(transports,
			mailer.NewSMTPTransport(cfg.Relay, cfg.Mail.FromName, cfg.Mail.FromAddress))
		log.Info("smtp relay fallback enabled", zap.String("relay", cfg.RelayAddr()))
	} else {
		log.Warn("no smtp relay configured, sendmail is the only transport")
	}
	dispatcher := mailer.NewDispatcher(log, metrics, transports...)

	composer := mailer.NewComposer(cfg.Mail)
	backupWriter := backup.NewWriter(cfg.Backup.Path)

	handler := httptransport.NewContactHandler(
		cfg, limiter, composer, dispatcher, backupWriter, metrics, log,
	)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:  cfg,
		Handler: handler,
		Metrics: metrics,
		Logger:  log,
	})

	checker := health.NewChecker(cfg.RateLimit.StorePath, cfg.RelayAddr(), log)

	mainServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	healthServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HealthPort),
		Handler:           checker.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", mainServer.Addr))
		if err := mainServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("health server listening", zap.String("addr", healthServer.Addr))
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = healthServer.Shutdown(shutdownCtx)
		return mainServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
	log.Info("server stopped")
}
