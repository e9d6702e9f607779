// Package http 订单执行模块的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/wyfcoding/papertrading/internal/account/domain"
	"github.com/wyfcoding/papertrading/internal/execution/application"
	"github.com/wyfcoding/papertrading/internal/execution/domain"
	positiondomain "github.com/wyfcoding/papertrading/internal/position/domain"
	"github.com/wyfcoding/pkg/response"
)

// ExecutionHandler 订单执行 HTTP 处理器
type ExecutionHandler struct {
	app      *application.ExecutionService
	stopLoss *application.StopLossMonitor
}

// NewExecutionHandler 创建 HTTP 处理器实例
func NewExecutionHandler(app *application.ExecutionService, stopLoss *application.StopLossMonitor) *ExecutionHandler {
	return &ExecutionHandler{app: app, stopLoss: stopLoss}
}

// RegisterRoutes 注册路由
func (h *ExecutionHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/trades")
	{
		api.POST("", h.ExecuteTrade)
		api.GET("/:owner_id", h.GetHistory)
		api.POST("/stop-loss/sweep", h.SweepStopLoss)
	}
}

// TradeRequest 交易请求
type TradeRequest struct {
	OwnerID  string `json:"owner_id" binding:"required"`
	Symbol   string `json:"symbol" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=BUY SELL"`
	Quantity int64  `json:"quantity" binding:"required,min=1"`
	// Competition 非空时在比赛作用域下交易
	Competition string `json:"competition"`
}

// ExecuteTrade 执行一笔交易
func (h *ExecutionHandler) ExecuteTrade(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	result, err := h.app.ExecuteOrder(c.Request.Context(), domain.TradeCommand{
		OwnerID:  req.OwnerID,
		Symbol:   req.Symbol,
		Side:     req.Type,
		Quantity: req.Quantity,
		Scope:    req.Competition,
	})
	if err != nil {
		switch {
		case domain.IsRejection(err),
			errors.Is(err, positiondomain.ErrInsufficientShares),
			errors.Is(err, accountdomain.ErrInsufficientBalance):
			response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		case errors.Is(err, accountdomain.ErrVersionConflict),
			errors.Is(err, positiondomain.ErrVersionConflict):
			response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
		case errors.Is(err, accountdomain.ErrHolderNotFound):
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
		default:
			response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		}
		return
	}
	response.Success(c, result)
}

// GetHistory 按持有人分页查询成交历史
func (h *ExecutionHandler) GetHistory(c *gin.Context) {
	ownerID := c.Param("owner_id")
	scope := c.Query("competition")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	transactions, total, err := h.app.GetHistory(c.Request.Context(), ownerID, scope, limit, offset)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"items": transactions, "total": total})
}

// SweepStopLoss 手动触发一轮止损巡检
func (h *ExecutionHandler) SweepStopLoss(c *gin.Context) {
	triggered, err := h.stopLoss.SweepStopLoss(c.Request.Context())
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"triggered": triggered})
}
