package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Throttle 进程级突发限流
//
// 令牌桶挡在表单入口之前，独立于按 IP 的滑动窗口配额；
// 耗尽时直接按限流结果跳转，不触达后面的管线。
func Throttle(limiter *rate.Limiter, redirectURL string, onBlock func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			if onBlock != nil {
				onBlock()
			}
			c.Redirect(http.StatusSeeOther, redirectURL)
			c.Abort()
			return
		}
		c.Next()
	}
}
