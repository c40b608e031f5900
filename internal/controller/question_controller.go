package controller

import (
	"errors"

	"student_engagement_backend/internal/service"
	"student_engagement_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuestionController 教师侧的出题与评分入口
type QuestionController struct {
	QuestionService *service.QuestionService
}

func NewQuestionController(questionService *service.QuestionService) *QuestionController {
	return &QuestionController{QuestionService: questionService}
}

// CreateQuestion godoc
// @Summary 给资源添加题目
// @Tags 教师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Param   body body service.QuestionCreateRequest true "题目内容"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 403 {object} util.Response "非资源上传者"
// @Router /api/teacher/resources/{id}/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuestionCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	question, err := c.QuestionService.CreateQuestion(claims.UserID, resourceID, req)
	if err != nil {
		mapTeacherError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// ListQuestions godoc
// @Summary 资源下的全部题目（含答案）
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/teacher/resources/{id}/questions [get]
func (c *QuestionController) ListQuestions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	questions, err := c.QuestionService.ListQuestions(claims.UserID, resourceID)
	if err != nil {
		mapTeacherError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// DeleteQuestion godoc
// @Summary 删除题目
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "题目ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/teacher/questions/{id} [delete]
func (c *QuestionController) DeleteQuestion(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	questionID := util.MustParseUint(ctx.Param("id"))
	if err := c.QuestionService.DeleteQuestion(claims.UserID, questionID); err != nil {
		mapTeacherError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UpsertMetadata godoc
// @Summary 设置测验限时和及格线
// @Tags 教师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Param   body body service.QuizMetadataRequest true "测验配置"
// @Success 200 {object} util.Response{data=model.QuizMetadata} "成功"
// @Router /api/teacher/resources/{id}/quiz-metadata [put]
func (c *QuestionController) UpsertMetadata(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizMetadataRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	meta, err := c.QuestionService.UpsertMetadata(claims.UserID, resourceID, req)
	if err != nil {
		mapTeacherError(ctx, err)
		return
	}
	util.Success(ctx, meta)
}

// PublishMarks godoc
// @Summary 发布成绩
// @Description 翻转成绩可见开关，学生从此刻起能查询分数
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response{data=model.QuizMetadata} "成功"
// @Router /api/teacher/resources/{id}/publish-marks [post]
func (c *QuestionController) PublishMarks(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	meta, err := c.QuestionService.PublishMarks(claims.UserID, resourceID)
	if err != nil {
		mapTeacherError(ctx, err)
		return
	}
	util.Success(ctx, meta)
}

type IssueGrantRequest struct {
	StudentID uint `json:"student_id" binding:"required"`
}

// IssueGrant godoc
// @Summary 签发重测许可
// @Description 一次性许可，学生下次定稿时自动消费，期间选项顺序打乱
// @Tags 教师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Param   body body IssueGrantRequest true "学生"
// @Success 201 {object} util.Response{data=model.ReassessmentGrant} "成功"
// @Failure 409 {object} util.Response "已有未消费的许可"
// @Router /api/teacher/resources/{id}/grants [post]
func (c *QuestionController) IssueGrant(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req IssueGrantRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	grant, err := c.QuestionService.IssueGrant(claims.UserID, req.StudentID, resourceID)
	if err != nil {
		if errors.Is(err, util.ErrGrantAlreadyActive) {
			util.Error(ctx, 409, err.Error())
			return
		}
		mapTeacherError(ctx, err)
		return
	}
	util.Created(ctx, grant)
}

type AssignResourceRequest struct {
	StudentID         uint `json:"student_id" binding:"required"`
	TimeLimitOverride int  `json:"time_limit_override"`
}

// AssignResource godoc
// @Summary 指派资源给学生
// @Tags 教师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Param   body body AssignResourceRequest true "指派信息"
// @Success 201 {object} util.Response{data=model.ResourceAssignment} "成功"
// @Router /api/teacher/resources/{id}/assignments [post]
func (c *QuestionController) AssignResource(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req AssignResourceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	assignment, err := c.QuestionService.AssignResource(claims.UserID, req.StudentID, resourceID, req.TimeLimitOverride)
	if err != nil {
		mapTeacherError(ctx, err)
		return
	}
	util.Created(ctx, assignment)
}

// GradeEssay godoc
// @Summary 人工评分主观题
// @Tags 教师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "作答ID"
// @Param   body body service.GradeEssayRequest true "评分"
// @Success 200 {object} util.Response{data=model.StudentAnswer} "成功"
// @Router /api/teacher/answers/{id}/grade [put]
func (c *QuestionController) GradeEssay(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GradeEssayRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	answerID := util.MustParseUint(ctx.Param("id"))
	answer, err := c.QuestionService.GradeEssay(claims.UserID, answerID, req)
	if err != nil {
		mapTeacherError(ctx, err)
		return
	}
	util.Success(ctx, answer)
}

// PlagiarismReport godoc
// @Summary 资源下被相似度检测标记的作答
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/teacher/resources/{id}/plagiarism [get]
func (c *QuestionController) PlagiarismReport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	flagged, err := c.QuestionService.PlagiarismReport(claims.UserID, resourceID)
	if err != nil {
		mapTeacherError(ctx, err)
		return
	}
	util.Success(ctx, flagged)
}

// ListStudents godoc
// @Summary 教师名下的学生列表
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/teacher/students [get]
func (c *QuestionController) ListStudents(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	students, err := c.QuestionService.ListStudents(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, students)
}

func mapTeacherError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrResourceNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.BadRequest(ctx, err.Error())
	}
}
