package controller

import (
	"errors"
	"strconv"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/service"
	"student_engagement_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ResourceController struct {
	ResourceService *service.ResourceService
	AuthService     *service.AuthService
}

func NewResourceController(resourceService *service.ResourceService, authService *service.AuthService) *ResourceController {
	return &ResourceController{
		ResourceService: resourceService,
		AuthService:     authService,
	}
}

// ListResources godoc
// @Summary 资源列表
// @Description 学生看到本班和公开资源，教师看到自己上传的资源
// @Tags 资源
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/resources [get]
func (c *ResourceController) ListResources(ctx *gin.Context) {
	user := c.AuthService.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	var (
		resources []model.Resource
		total     int64
		err       error
	)
	if user.Role == model.Teacher || user.Role == model.Admin {
		resources, total, err = c.ResourceService.ListByUploader(user.ID, page, limit)
	} else {
		resources, total, err = c.ResourceService.ListForStudent(user, page, limit)
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"resources": resources,
		"total":     total,
		"page":      page,
		"limit":     limit,
	})
}

// GetResource godoc
// @Summary 资源详情
// @Tags 资源
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response{data=model.Resource} "成功"
// @Failure 404 {object} util.Response "资源不存在"
// @Router /api/resources/{id} [get]
func (c *ResourceController) GetResource(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	resource, err := c.ResourceService.Detail(id)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, resource)
}

// UploadResource godoc
// @Summary 上传资源
// @Description 教师上传学习资源文件，视频自动探测时长并生成封面
// @Tags 资源
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   file formData file true "资源文件"
// @Param   title formData string true "标题"
// @Param   type formData string true "类型 pdf|video|article|quiz"
// @Success 201 {object} util.Response{data=model.Resource} "创建成功"
// @Router /api/resources [post]
func (c *ResourceController) UploadResource(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	req := service.ResourceUploadRequest{
		Title:       ctx.PostForm("title"),
		Description: ctx.PostForm("description"),
		Type:        ctx.PostForm("type"),
		ClassName:   ctx.PostForm("class_name"),
		Grade:       ctx.PostForm("grade"),
	}
	if req.Title == "" || req.Type == "" {
		util.BadRequest(ctx, "title and type are required")
		return
	}

	resource, err := c.ResourceService.Upload(ctx.Request.Context(), claims.UserID, req, fileHeader)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Created(ctx, resource)
}

// DeleteResource godoc
// @Summary 删除资源
// @Tags 资源
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "资源ID"
// @Success 200 {object} util.Response "成功"
// @Router /api/resources/{id} [delete]
func (c *ResourceController) DeleteResource(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	if err := c.ResourceService.Delete(claims.UserID, id); err != nil {
		if errors.Is(err, util.ErrPermissionDenied) {
			util.Forbidden(ctx)
			return
		}
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, nil)
}
