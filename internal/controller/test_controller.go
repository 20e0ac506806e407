package controller

import (
	"errors"
	"iqtest_backend/internal/service"
	"iqtest_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type TestController struct {
	Service *service.TestService
}

func NewTestController(svc *service.TestService) *TestController {
	return &TestController{Service: svc}
}

// GetQuestions godoc
// @Summary 获取一次测试的随机题目
// @Tags 测试
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} service.TestSessionResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /test/questions [get]
func (c *TestController) GetQuestions(ctx *gin.Context) {
	session, err := c.Service.StartSession()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.JSON(200, session)
}

type SubmitTestRequest struct {
	Answers []service.SubmittedAnswer `json:"answers"`
}

// SubmitTest godoc
// @Summary 提交答卷并评分
// @Tags 测试
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body SubmitTestRequest true "答卷"
// @Success 200 {object} object{result=service.ResultSummary}
// @Failure 400 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /test/submit [post]
func (c *TestController) SubmitTest(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.Submit(user.UserID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEmptyAnswers), errors.Is(err, util.ErrMalformedAnswer):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	ctx.JSON(200, gin.H{"result": result})
}

// GetHistory godoc
// @Summary 历史成绩，最近的在前
// @Tags 测试
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} service.ResultSummary
// @Failure 500 {object} util.ErrorResponse
// @Router /test/history [get]
func (c *TestController) GetHistory(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	history, err := c.Service.History(user.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	ctx.JSON(200, history)
}

// GetResultDetail godoc
// @Summary 单次结果的逐题明细（含正确答案）
// @Tags 测试
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "结果ID"
// @Success 200 {object} service.ResultDetailResponse
// @Failure 403 {object} util.ErrorResponse
// @Failure 404 {object} util.ErrorResponse
// @Failure 500 {object} util.ErrorResponse
// @Router /test/result/{id} [get]
func (c *TestController) GetResultDetail(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	detail, err := c.Service.ResultDetail(uint(id), user)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrResultNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	ctx.JSON(200, detail)
}
