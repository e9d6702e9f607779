// Package http 账户模块的 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/papertrading/internal/account/application"
	"github.com/wyfcoding/papertrading/internal/account/domain"
	"github.com/wyfcoding/pkg/response"
)

// AccountHandler 账户 HTTP 处理器
type AccountHandler struct {
	app *application.AccountService
}

// NewAccountHandler 创建 HTTP 处理器实例
func NewAccountHandler(app *application.AccountService) *AccountHandler {
	return &AccountHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/accounts")
	{
		api.POST("", h.OpenAccount)
		api.GET("/:user_id", h.GetHolder)
		api.POST("/competitions/join", h.JoinCompetition)
		api.GET("/competitions/:competition/participants", h.ListParticipants)
	}
}

// OpenAccountRequest 开户请求
type OpenAccountRequest struct {
	UserID          string          `json:"user_id" binding:"required"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
}

// OpenAccount 开立主账户
func (h *AccountHandler) OpenAccount(c *gin.Context) {
	var req OpenAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	account, err := h.app.OpenAccount(c.Request.Context(), req.UserID, req.StartingBalance)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, account)
}

// GetHolder 查询持有人，query 参数 competition 非空时查比赛参与账户
func (h *AccountHandler) GetHolder(c *gin.Context) {
	userID := c.Param("user_id")
	scope := c.Query("competition")
	holder, err := h.app.GetHolder(c.Request.Context(), userID, scope)
	if err != nil {
		if errors.Is(err, domain.ErrHolderNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
			return
		}
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, holder)
}

// JoinCompetitionRequest 加入比赛请求
type JoinCompetitionRequest struct {
	UserID          string          `json:"user_id" binding:"required"`
	Competition     string          `json:"competition" binding:"required"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
}

// JoinCompetition 加入比赛并创建参与账户
func (h *AccountHandler) JoinCompetition(c *gin.Context) {
	var req JoinCompetitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}
	participant, err := h.app.JoinCompetition(c.Request.Context(), req.UserID, req.Competition, req.StartingBalance)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, participant)
}

// ListParticipants 按比赛列出参与账户，余额降序
func (h *AccountHandler) ListParticipants(c *gin.Context) {
	participants, err := h.app.ListParticipants(c.Request.Context(), c.Param("competition"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusInternalServerError, err.Error(), "")
		return
	}
	response.Success(c, participants)
}
