// Package http 技术指标服务的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/papertrading/internal/quant/application"
	"github.com/wyfcoding/pkg/response"
)

// QuantHandler 指标查询 HTTP 处理器
type QuantHandler struct {
	app *application.IndicatorQueryService
}

// NewQuantHandler 创建 HTTP 处理器实例
func NewQuantHandler(app *application.IndicatorQueryService) *QuantHandler {
	return &QuantHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *QuantHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/quant")
	{
		api.GET("/indicators/:symbol", h.GetIndicators)
	}
}

// GetIndicators 获取标的的指标快照
func (h *QuantHandler) GetIndicators(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "symbol is required", "")
		return
	}
	snapshot, err := h.app.GetIndicators(c.Request.Context(), symbol)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, snapshot)
}
