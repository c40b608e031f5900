package controller

import (
	"errors"
	"net/http"

	"student_engagement_backend/internal/service"
	"student_engagement_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	EngagementService *service.EngagementService
}

func NewActivityController(engagementService *service.EngagementService) *ActivityController {
	return &ActivityController{EngagementService: engagementService}
}

// trackActivityResponse 埋点接口的固定应答格式，前端 sendBeacon 依赖这个形状
type trackActivityResponse struct {
	Success         bool   `json:"success"`
	EngagementScore *int   `json:"engagement_score,omitempty"`
	Error           string `json:"error,omitempty"`
}

// TrackActivity godoc
// @Summary 上报学习活动事件
// @Description 记录一次客户端交互并滚动更新参与度聚合
// @Tags 活动
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.TrackActivityRequest true "活动事件"
// @Success 200 {object} controller.trackActivityResponse "成功"
// @Failure 400 {object} controller.trackActivityResponse "参数错误"
// @Router /api/activity/track [post]
func (c *ActivityController) TrackActivity(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, trackActivityResponse{Success: false, Error: "unauthorized"})
		return
	}

	var req service.TrackActivityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, trackActivityResponse{Success: false, Error: err.Error()})
		return
	}

	result, err := c.EngagementService.TrackActivity(ctx.Request.Context(), claims.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrResourceNotFound), errors.Is(err, util.ErrUnknownActivity):
			ctx.JSON(http.StatusBadRequest, trackActivityResponse{Success: false, Error: err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, trackActivityResponse{Success: false, Error: "internal error"})
		}
		return
	}

	score := result.EngagementScore
	ctx.JSON(http.StatusOK, trackActivityResponse{Success: true, EngagementScore: &score})
}

// StudentEngagement godoc
// @Summary 查看自己的参与度聚合
// @Tags 活动
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/activity/engagement [get]
func (c *ActivityController) StudentEngagement(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	aggregates, err := c.EngagementService.StudentAggregates(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, aggregates)
}
