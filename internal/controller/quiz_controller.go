package controller

import (
	"errors"
	"net/http"

	"student_engagement_backend/internal/service"
	"student_engagement_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

type SubmitAnswerRequest struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	ResourceID uint   `json:"resource_id" binding:"required"`
	Answer     string `json:"answer"`
}

// SubmitAnswer godoc
// @Summary 提交一道题的作答
// @Description 客观题即时判分，主观题记录待评；答完最后一题或超时自动定稿
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body SubmitAnswerRequest true "作答内容"
// @Success 200 {object} object "判分结果"
// @Failure 400 {object} object "参数错误"
// @Failure 403 {object} object "学生无权访问该资源"
// @Router /api/quiz/answer [post]
func (c *QuizController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}

	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	result, err := c.QuizService.SubmitAnswer(claims.UserID, req.ResourceID, req.QuestionID, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrQuestionNotFound),
			errors.Is(err, util.ErrResourceNotFound),
			errors.Is(err, util.ErrQuestionMismatch):
			ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		case errors.Is(err, util.ErrNotAssigned):
			ctx.JSON(http.StatusForbidden, gin.H{"success": false, "error": err.Error()})
		default:
			ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, submitAnswerPayload(result))
}

// submitAnswerPayload 按结果种类映射成三种固定应答之一
func submitAnswerPayload(result *service.SubmitAnswerResult) gin.H {
	if result.Finalized {
		payload := gin.H{
			"success":           true,
			"final_score":       result.FinalScore,
			"correct_answers":   result.CorrectCount,
			"total_questions":   result.TotalCount,
			"ai_recommendation": result.AIRecommend,
		}
		if result.Timeout {
			payload["timeout"] = true
		} else {
			payload["completed"] = true
		}
		return payload
	}

	if result.PendingReview {
		return gin.H{"success": true, "pending_review": true}
	}

	payload := gin.H{
		"success":         true,
		"is_correct":      result.IsCorrect != nil && *result.IsCorrect,
		"current_score":   result.CurrentScore,
		"correct_answers": result.CorrectCount,
		"total_questions": result.TotalCount,
	}
	if result.CorrectAnswer != "" {
		payload["correct_answer"] = result.CorrectAnswer
	}
	return payload
}

type StartSessionRequest struct {
	ResourceID uint `json:"resource_id" binding:"required"`
}

// StartSession godoc
// @Summary 开始或复用学习会话
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StartSessionRequest true "资源"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/session/start [post]
func (c *QuizController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sess, err := c.QuizService.StartSession(claims.UserID, req.ResourceID)
	if err != nil {
		mapQuizError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"session_id": sess.ID,
		"start_time": sess.StartTime,
	})
}

// EndSession godoc
// @Summary 显式结束学习会话
// @Description 纯阅读资源的唯一收尾路径，只记时长不产生测验分
// @Tags 测验
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StartSessionRequest true "资源"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/session/end [post]
func (c *QuizController) EndSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	sess, err := c.QuizService.EndStudy(claims.UserID, req.ResourceID)
	if err != nil {
		mapQuizError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"session_id": sess.ID,
		"duration":   sess.Duration,
		"completed":  sess.Completed,
	})
}

// QuizStatus godoc
// @Summary 测验页状态
// @Description 题目列表（重测时选项已打乱）、剩余时间和超时判定
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response{data=service.QuizStatus} "成功"
// @Router /api/quiz/{id}/status [get]
func (c *QuizController) QuizStatus(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	status, err := c.QuizService.Status(claims.UserID, resourceID)
	if err != nil {
		mapQuizError(ctx, err)
		return
	}
	util.Success(ctx, status)
}

// MyMarks godoc
// @Summary 查看已发布成绩
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 403 {object} util.Response "成绩未发布"
// @Router /api/quiz/{id}/marks [get]
func (c *QuizController) MyMarks(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	answers, err := c.QuizService.PublishedMarks(claims.UserID, resourceID)
	if err != nil {
		if errors.Is(err, util.ErrMarksNotPublished) {
			util.Error(ctx, 403, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	marks := make([]gin.H, 0, len(answers))
	for _, a := range answers {
		marks = append(marks, gin.H{
			"question_id":   a.QuestionID,
			"is_correct":    a.IsCorrect,
			"marks_awarded": a.MarksAwarded,
			"feedback":      a.Feedback,
			"graded_at":     a.GradedAt,
		})
	}
	util.Success(ctx, marks)
}

// SessionHistory godoc
// @Summary 学生在某资源下的历史会话
// @Tags 测验
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/quiz/{id}/sessions [get]
func (c *QuizController) SessionHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	sessions, err := c.QuizService.SessionHistory(claims.UserID, resourceID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, sessions)
}

func mapQuizError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrResourceNotFound),
		errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrNotAssigned):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrSessionCompleted):
		util.Error(ctx, 409, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
