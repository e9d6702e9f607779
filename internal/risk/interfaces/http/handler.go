// Package http 风控模块的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/papertrading/internal/risk/application"
	"github.com/wyfcoding/papertrading/internal/risk/domain"
	"github.com/wyfcoding/pkg/response"
)

// RiskHandler 风控 HTTP 处理器
type RiskHandler struct {
	app *application.RiskService
}

// NewRiskHandler 创建 HTTP 处理器实例
func NewRiskHandler(app *application.RiskService) *RiskHandler {
	return &RiskHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *RiskHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/risk")
	{
		api.GET("/rules", h.GetRules)
		api.PUT("/rules", h.UpdateRules)
		api.GET("/breakers", h.ListActiveBreakers)
		api.POST("/breakers/sweep", h.SweepBreakers)
	}
}

// GetRules 查询当前规则集
func (h *RiskHandler) GetRules(c *gin.Context) {
	rules, err := h.app.GetRuleSet(c.Request.Context())
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if rules == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "rule set not configured", "")
		return
	}
	response.Success(c, rules)
}

// UpdateRules 保存规则集配置
func (h *RiskHandler) UpdateRules(c *gin.Context) {
	var rules domain.RuleSet
	if err := c.ShouldBindJSON(&rules); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := h.app.UpdateRuleSet(c.Request.Context(), &rules); err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, rules)
}

// ListActiveBreakers 列出生效中的熔断记录
func (h *RiskHandler) ListActiveBreakers(c *gin.Context) {
	breakers, err := h.app.ListActiveBreakers(c.Request.Context())
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, breakers)
}

// SweepBreakers 手动触发一次熔断清理
func (h *RiskHandler) SweepBreakers(c *gin.Context) {
	count, err := h.app.SweepBreakers(c.Request.Context())
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"deactivated": count})
}
