// Package http 持仓模块的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/papertrading/internal/position/application"
	"github.com/wyfcoding/pkg/response"
)

// PositionHandler 持仓 HTTP 处理器
type PositionHandler struct {
	app *application.PositionQueryService
}

// NewPositionHandler 创建 HTTP 处理器实例
func NewPositionHandler(app *application.PositionQueryService) *PositionHandler {
	return &PositionHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *PositionHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/positions")
	{
		api.GET("/:owner_id", h.ListHoldings)
		api.GET("/:owner_id/value", h.PortfolioValue)
	}
}

// ListHoldings 列出持有人的持仓，query 参数 competition 非空时查比赛作用域
func (h *PositionHandler) ListHoldings(c *gin.Context) {
	ownerID := c.Param("owner_id")
	if ownerID == "" {
		response.ErrorWithStatus(c, http.StatusBadRequest, "owner id is required", "")
		return
	}
	views, err := h.app.ListHoldings(c.Request.Context(), ownerID, c.Query("competition"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, views)
}

// PortfolioValue 持有人全部持仓按现价计的总市值
func (h *PositionHandler) PortfolioValue(c *gin.Context) {
	total, err := h.app.PortfolioValue(c.Request.Context(), c.Param("owner_id"), c.Query("competition"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, gin.H{"portfolio_value": total})
}
