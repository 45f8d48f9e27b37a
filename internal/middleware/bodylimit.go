package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// FormBodyLimit 联系表单请求体的默认上限
const FormBodyLimit = 64 * 1024 // 64KB

// BodySizeLimit 限制请求体大小的中间件
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}

		// 防止 Content-Length 谎报，读取侧同样设限
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Header("X-Max-Body-Size", strconv.FormatInt(maxBytes, 10))

		c.Next()
	}
}
