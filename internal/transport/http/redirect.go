package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contactform/backend/internal/domain"
)

// 结果通过跳转目标的查询参数向前端页面传递，
// 本服务的响应体永远不携带诊断信息。

// successURL 构造成功跳转地址
func successURL(target string) string {
	return target + querySep(target) + "success=true"
}

// errorURL 构造带拒绝原因的跳转地址
func errorURL(target string, reason domain.RejectReason) string {
	return target + querySep(target) + "error=" + string(reason)
}

// querySep 根据目标地址是否已带查询串选择连接符
func querySep(target string) string {
	if strings.Contains(target, "?") {
		return "&"
	}
	return "?"
}

// redirectSuccess 跳转到成功结果页
func redirectSuccess(c *gin.Context, target string) {
	c.Redirect(http.StatusSeeOther, successURL(target))
}

// redirectError 跳转到带拒绝原因的结果页
func redirectError(c *gin.Context, target string, reason domain.RejectReason) {
	c.Redirect(http.StatusSeeOther, errorURL(target, reason))
}

// redirectLanding 跳转到落地页，不带任何状态参数
func redirectLanding(c *gin.Context, target string) {
	c.Redirect(http.StatusSeeOther, target)
}
