package controller

import (
	"errors"

	"student_engagement_backend/internal/service"
	"student_engagement_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type NoteController struct {
	NoteService *service.NoteService
}

func NewNoteController(noteService *service.NoteService) *NoteController {
	return &NoteController{NoteService: noteService}
}

type saveNotesRequest struct {
	Notes string `json:"notes"`
}

// SaveNotes godoc
// @Summary 保存学习笔记
// @Description 对某个资源整体覆盖式保存自己的笔记，自动保存和手动保存走同一入口
// @Tags 笔记
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Param   body body controller.saveNotesRequest true "笔记内容"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/resources/{id}/notes [post]
func (c *NoteController) SaveNotes(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req saveNotesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	note, err := c.NoteService.SaveNotes(claims.UserID, resourceID, req.Notes)
	if err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"notes":           note.Content,
		"word_count":      note.WordCount,
		"character_count": note.CharacterCount,
		"updated_at":      note.UpdatedAt,
	})
}

// GetNotes godoc
// @Summary 获取学习笔记
// @Description 取自己对某个资源的笔记，从未保存过时返回空内容
// @Tags 笔记
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/resources/{id}/notes [get]
func (c *NoteController) GetNotes(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	note, err := c.NoteService.GetNotes(claims.UserID, resourceID)
	if err != nil {
		if errors.Is(err, util.ErrResourceNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"notes":           note.Content,
		"word_count":      note.WordCount,
		"character_count": note.CharacterCount,
		"teacher_grade":   note.TeacherGrade,
		"feedback":        note.TeacherFeedback,
		"updated_at":      note.UpdatedAt,
	})
}

// ListNotes godoc
// @Summary 查看资源下的学生笔记
// @Tags 教师
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "无权限"
// @Router /api/teacher/resources/{id}/notes [get]
func (c *NoteController) ListNotes(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resourceID := util.MustParseUint(ctx.Param("id"))
	notes, err := c.NoteService.ListByResource(claims.UserID, resourceID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrResourceNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, notes)
}

// GradeNote godoc
// @Summary 给学生笔记评分
// @Tags 教师
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "笔记ID"
// @Param   body body service.GradeNoteRequest true "评分与评语"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response "无权限"
// @Router /api/teacher/notes/{id}/grade [put]
func (c *NoteController) GradeNote(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GradeNoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	noteID := util.MustParseUint(ctx.Param("id"))
	note, err := c.NoteService.GradeNote(claims.UserID, noteID, req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNoteNotFound), errors.Is(err, util.ErrResourceNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrPermissionDenied):
			util.Forbidden(ctx)
		default:
			util.BadRequest(ctx, err.Error())
		}
		return
	}

	util.Success(ctx, note)
}
