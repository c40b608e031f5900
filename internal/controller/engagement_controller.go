package controller

import (
	"strconv"

	"student_engagement_backend/internal/service"
	"student_engagement_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// EngagementController 教师侧的参与度总览、预警和成功率预测
type EngagementController struct {
	EngagementService *service.EngagementService
	AlertService      *service.AlertService
	PredictionService *service.PredictionService
	QuizService       *service.QuizService
}

func NewEngagementController(
	engagementService *service.EngagementService,
	alertService *service.AlertService,
	predictionService *service.PredictionService,
	quizService *service.QuizService,
) *EngagementController {
	return &EngagementController{
		EngagementService: engagementService,
		AlertService:      alertService,
		PredictionService: predictionService,
		QuizService:       quizService,
	}
}

// ResourceOverview godoc
// @Summary 资源维度的参与度总览
// @Description 每个学生在该资源上的聚合指标与得分
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/teacher/resources/{id}/engagement [get]
func (c *EngagementController) ResourceOverview(ctx *gin.Context) {
	resourceID := util.MustParseUint(ctx.Param("id"))
	aggregates, err := c.EngagementService.ResourceOverview(resourceID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, aggregates)
}

// ListAlerts godoc
// @Summary 教师的预警列表
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   unread query bool false "只看未读"
// @Param   limit query int false "条数上限"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/teacher/alerts [get]
func (c *EngagementController) ListAlerts(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	unreadOnly := ctx.Query("unread") == "true"
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	alerts, err := c.AlertService.ListForTeacher(claims.UserID, unreadOnly, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, alerts)
}

// MarkAlertRead godoc
// @Summary 标记预警已读
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "预警ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/teacher/alerts/{id}/read [put]
func (c *EngagementController) MarkAlertRead(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	alertID := util.MustParseUint(ctx.Param("id"))
	if err := c.AlertService.MarkRead(claims.UserID, alertID); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// SessionEvents godoc
// @Summary 会话的原始事件流
// @Description 按时间顺序回看学生一次学习会话上报的全部活动事件
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "会话ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/teacher/sessions/{id}/events [get]
func (c *EngagementController) SessionEvents(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	sessionID := util.MustParseUint(ctx.Param("id"))
	events, err := c.EngagementService.SessionEvents(claims.UserID, sessionID)
	if err != nil {
		switch err {
		case util.ErrSessionNotFound, util.ErrResourceNotFound:
			util.NotFound(ctx)
		case util.ErrPermissionDenied:
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, events)
}

// TrainModel godoc
// @Summary 重训成功率预测模型
// @Description 用全部已完成会话重训逻辑回归模型
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.TrainResult} "成功"
// @Router /api/teacher/prediction/train [post]
func (c *EngagementController) TrainModel(ctx *gin.Context) {
	result, err := c.PredictionService.Train()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ModelInfo godoc
// @Summary 预测模型状态
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/teacher/prediction/info [get]
func (c *EngagementController) ModelInfo(ctx *gin.Context) {
	util.Success(ctx, c.PredictionService.ModelInfo())
}

// StudentRecommendation godoc
// @Summary 学生的学习建议预测
// @Description 取学生在该资源上最近一次会话，给出通过概率和下一步建议
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   studentId path int true "学生ID"
// @Param   resourceId path int true "资源ID"
// @Success 200 {object} util.Response{data=service.Prediction} "成功"
// @Router /api/teacher/students/{studentId}/resources/{resourceId}/recommendation [get]
func (c *EngagementController) StudentRecommendation(ctx *gin.Context) {
	studentID := util.MustParseUint(ctx.Param("studentId"))
	resourceID := util.MustParseUint(ctx.Param("resourceId"))

	sessions, err := c.QuizService.SessionHistory(studentID, resourceID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	var durationMinutes, quizScore float64
	var completed bool
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].Completed {
			durationMinutes = float64(sessions[i].Duration) / 60.0
			if sessions[i].QuizScore != nil {
				quizScore = *sessions[i].QuizScore
			}
			completed = true
			break
		}
	}

	util.Success(ctx, c.PredictionService.Recommend(durationMinutes, quizScore, completed))
}
