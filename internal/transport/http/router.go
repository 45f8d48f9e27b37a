package httptransport

import (
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"contactform/backend/internal/config"
	"contactform/backend/internal/domain"
	"contactform/backend/internal/middleware"
	"contactform/backend/internal/monitoring"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config  *config.Config
	Handler *ContactHandler
	Metrics *monitoring.Metrics
	Logger  *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RecoveryHandler(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.BodySizeLimit(middleware.FormBodyLimit))

	// CORS：官网表单可能跨域提交
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 进程级突发限流只挡提交入口
	burst := rate.NewLimiter(
		rate.Limit(deps.Config.RateLimit.BurstRate),
		deps.Config.RateLimit.BurstSize,
	)
	throttled := middleware.Throttle(
		burst,
		errorURL(deps.Config.Redirect.Target, domain.RejectRateLimited),
		func() { deps.Metrics.RecordRateLimitBlock("burst") },
	)

	router.POST("/contact", throttled, deps.Handler.Submit)

	// 直接访问（非 POST）一律跳回落地页
	router.GET("/contact", deps.Handler.Landing)
	router.HEAD("/contact", deps.Handler.Landing)
	router.HandleMethodNotAllowed = true
	router.NoMethod(deps.Handler.Landing)

	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	return router
}
