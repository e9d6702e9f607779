// Package http 市场模拟服务的 HTTP 接口
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/papertrading/internal/marketsim/application"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// MarketHandler 市场模拟 HTTP 处理器
type MarketHandler struct {
	simulator *application.Simulator
	query     *application.MarketQueryService
}

// NewMarketHandler 创建 HTTP 处理器实例
func NewMarketHandler(simulator *application.Simulator, query *application.MarketQueryService) *MarketHandler {
	return &MarketHandler{simulator: simulator, query: query}
}

// RegisterRoutes 注册路由
func (h *MarketHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/market")
	{
		api.GET("/instruments", h.ListInstruments)
		api.GET("/instruments/:symbol", h.GetInstrument)
		api.GET("/instruments/:symbol/history", h.GetHistory)
		api.POST("/simulate", h.SimulateTick)
	}
}

// SimulateTick 手动触发一次 tick（管理/联调用途；常规推进由后台任务驱动）
func (h *MarketHandler) SimulateTick(c *gin.Context) {
	results, err := h.simulator.SimulateTick(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "manual tick failed", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, results)
}

// ListInstruments 分页列出标的
func (h *MarketHandler) ListInstruments(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid offset", "")
		return
	}

	instruments, total, err := h.query.ListInstruments(c.Request.Context(), limit, offset)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"total": total, "instruments": instruments})
}

// GetInstrument 获取单个标的
func (h *MarketHandler) GetInstrument(c *gin.Context) {
	symbol := c.Param("symbol")
	instrument, err := h.query.GetInstrument(c.Request.Context(), symbol)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	if instrument == nil {
		response.ErrorWithStatus(c, http.StatusNotFound, "instrument not found", "")
		return
	}
	response.Success(c, instrument)
}

// GetHistory 获取价格历史
func (h *MarketHandler) GetHistory(c *gin.Context) {
	symbol := c.Param("symbol")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit <= 0 {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}
	points, err := h.query.GetPriceHistory(c.Request.Context(), symbol, limit)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, points)
}
