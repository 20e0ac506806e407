package controller

import (
	"errors"
	"iqtest_backend/internal/model"
	"iqtest_backend/internal/service"
	"iqtest_backend/internal/util"
	"iqtest_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TransactionController struct {
	Service *service.LedgerService
}

func NewTransactionController(svc *service.LedgerService) *TransactionController {
	return &TransactionController{Service: svc}
}

// GetBalance godoc
// @Summary 查询当前余额
// @Tags 转账
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} object{balance=string}
// @Failure 404 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /transactions/balance [get]
func (c *TransactionController) GetBalance(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	balance, err := c.Service.Balance(user.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx, err.Error())
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	ctx.JSON(200, gin.H{"balance": balance})
}

type TransferRequest struct {
	ReceiverID uint            `json:"receiverId" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

// Transfer godoc
// @Summary 发起转账（等待管理员审批）
// @Tags 转账
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body TransferRequest true "转账信息"
// @Success 201 {object} object{transactionId=string}
// @Failure 400 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /transactions/transfer [post]
func (c *TransactionController) Transfer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req TransferRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	t, err := c.Service.RequestTransfer(user.UserID, req.ReceiverID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidAmount),
			errors.Is(err, util.ErrSelfTransfer),
			errors.Is(err, util.ErrInsufficientFunds):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrReceiverNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	ctx.JSON(201, gin.H{"transactionId": t.ID})
}

// GetHistory godoc
// @Summary 转账记录（含方向和对方用户名）
// @Tags 转账
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} service.TransferRecord
// @Failure 500 {object} util.ErrorResponse
// @Router /transactions/history [get]
func (c *TransactionController) GetHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	records, err := c.Service.History(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.JSON(200, records)
}

type SettleRequest struct {
	Status string `json:"status" binding:"required"`
}

// SettleTransaction godoc
// @Summary 管理员审批转账
// @Tags 转账
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "交易ID"
// @Param body body SettleRequest true "completed 或 failed"
// @Success 200 {object} object{message=string}
// @Failure 400 {object} util.ErrorResponse
// @Failure 403 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /transactions/admin/{id}/status [patch]
func (c *TransactionController) SettleTransaction(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SettleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	id := ctx.Param("id")
	err := c.Service.Settle(id, model.TransactionStatus(req.Status), user)
	if err != nil {
		monitoring.SettlementCounter.WithLabelValues("rejected").Inc()
		switch {
		case errors.Is(err, util.ErrInvalidStatus),
			errors.Is(err, util.ErrTransactionNotPending),
			errors.Is(err, util.ErrInsufficientFunds):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		case errors.Is(err, util.ErrTransactionNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	monitoring.SettlementCounter.WithLabelValues(req.Status).Inc()
	ctx.JSON(200, gin.H{"message": "transaction " + req.Status})
}

// GetAllTransactions godoc
// @Summary 管理员查看全部转账
// @Tags 转账
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} service.AdminTransactionRecord
// @Failure 403 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /transactions/admin/all [get]
func (c *TransactionController) GetAllTransactions(ctx *gin.Context) {
	records, err := c.Service.AllTransactions()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.JSON(200, records)
}

// SearchUsers godoc
// @Summary 检索可转账用户
// @Tags 转账
// @Produce json
// @Security ApiKeyAuth
// @Param q query string false "用户名前缀，至少2个字符"
// @Success 200 {array} service.UserSummary
// @Failure 500 {object} util.ErrorResponse
// @Router /transactions/users/search [get]
func (c *TransactionController) SearchUsers(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	users, err := c.Service.SearchUsers(ctx.Query("q"), user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.JSON(200, users)
}
