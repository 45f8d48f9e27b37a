package httptransport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"contactform/backend/internal/config"
	"contactform/backend/internal/mailer"
	"contactform/backend/internal/monitoring"
)

// newTestRouter 组装完整路由，突发限流参数可调
func newTestRouter(t *testing.T, burstRate float64, burstSize int) (*gin.Engine, *fakeDispatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Mail: config.MailConfig{
			FromAddress: "office@example.com",
			ToAddress:   "owner@example.com",
			AutoReply:   false,
		},
		RateLimit: config.RateLimitConfig{
			BurstRate: burstRate,
			BurstSize: burstSize,
		},
		Redirect: config.RedirectConfig{Target: "index.html"},
		CORS:     config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	metrics := monitoring.NewMetrics()
	dispatcher := &fakeDispatcher{notifyOK: true, replyOK: true}

	handler := NewContactHandler(
		cfg,
		&fakeLimiter{allow: true},
		mailer.NewComposer(cfg.Mail),
		dispatcher,
		&fakeBackup{},
		metrics,
		zap.NewNop(),
	)

	router := NewRouter(RouterDependencies{
		Config:  cfg,
		Handler: handler,
		Metrics: metrics,
		Logger:  zap.NewNop(),
	})

	return router, dispatcher
}

func TestRouterBurstThrottle(t *testing.T) {
	// 容量耗尽后的提交直接按限流跳转，不触达处理管线
	router, dispatcher := newTestRouter(t, 0, 1)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, newFormRequest())
	require.Equal(t, http.StatusSeeOther, first.Code)
	assert.Equal(t, "index.html?success=true", first.Header().Get("Location"))

	second := httptest.NewRecorder()
	router.ServeHTTP(second, newFormRequest())
	require.Equal(t, http.StatusSeeOther, second.Code)
	assert.Equal(t, "index.html?error=rate_limit", second.Header().Get("Location"))

	assert.Len(t, dispatcher.notifications, 1)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, 10, 10)

	// 先产生一次提交，确保指标有样本
	w := httptest.NewRecorder()
	router.ServeHTTP(w, newFormRequest())
	require.Equal(t, http.StatusSeeOther, w.Code)

	metricsResp := httptest.NewRecorder()
	router.ServeHTTP(metricsResp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, metricsResp.Code)
	assert.Contains(t, metricsResp.Body.String(), "contactform_submissions_total")
}

func TestRouterSecurityHeaders(t *testing.T) {
	router, _ := newTestRouter(t, 10, 10)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/contact", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

// newFormRequest 构造一次合法的表单提交请求
func newFormRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(validForm().Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "203.0.113.7:52000"
	return req
}
