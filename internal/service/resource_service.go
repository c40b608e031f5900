package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"
	"student_engagement_backend/internal/util"

	"go.uber.org/zap"
)

type ResourceService struct {
	ResourceRepo *repository.ResourceRepository
	StorageSvc   *StorageService
	Logger       *zap.Logger
}

func NewResourceService(resourceRepo *repository.ResourceRepository, storageSvc *StorageService, logger *zap.Logger) *ResourceService {
	return &ResourceService{
		ResourceRepo: resourceRepo,
		StorageSvc:   storageSvc,
		Logger:       logger,
	}
}

var allowedUploadTypes = []string{
	"application/pdf",
	"video/mp4",
	"video/webm",
	"text/plain",
	"text/html",
	"image/jpeg",
	"image/png",
}

type ResourceUploadRequest struct {
	Title       string
	Description string
	Type        string
	ClassName   string
	Grade       string
}

// Upload 教师上传资源文件。视频会探测真实时长并生成封面图。
func (s *ResourceService) Upload(ctx context.Context, uploaderID uint, req ResourceUploadRequest, fileHeader *multipart.FileHeader) (*model.Resource, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mimeType, err := util.ValidateMimeType(file, allowedUploadTypes)
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return nil, err
	}

	ext := filepath.Ext(fileHeader.Filename)
	filename := fmt.Sprintf("resources/%s%s", model.GenerateUUID(), ext)
	url, err := s.StorageSvc.Upload(ctx, filename, file, fileHeader.Size, mimeType)
	if err != nil {
		return nil, err
	}

	resource := &model.Resource{
		Title:       req.Title,
		Description: req.Description,
		Type:        model.ResourceType(req.Type),
		URL:         url,
		UploaderID:  uploaderID,
		ClassName:   req.ClassName,
		Grade:       req.Grade,
		Size:        fileHeader.Size,
		Format:      strings.TrimPrefix(ext, "."),
	}

	if util.IsVideo(mimeType) {
		s.probeVideo(ctx, resource, fileHeader)
	}

	if err := s.ResourceRepo.Create(resource); err != nil {
		return nil, err
	}
	return resource, nil
}

// probeVideo 落一个临时文件跑 ffprobe，拿不到时长不算失败
func (s *ResourceService) probeVideo(ctx context.Context, resource *model.Resource, fileHeader *multipart.FileHeader) {
	src, err := fileHeader.Open()
	if err != nil {
		return
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*.video")
	if err != nil {
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.ReadFrom(src); err != nil {
		return
	}

	info, err := util.GetVideoInfo(tmp.Name())
	if err != nil {
		s.Logger.Warn("video probe failed", zap.String("title", resource.Title), zap.Error(err))
		return
	}
	resource.Duration = info.Duration

	thumbPath := tmp.Name() + ".jpg"
	if err := util.GenerateThumbnail(tmp.Name(), thumbPath, "00:00:01"); err == nil {
		defer os.Remove(thumbPath)
		if thumb, err := os.Open(thumbPath); err == nil {
			defer thumb.Close()
			if stat, err := thumb.Stat(); err == nil {
				name := fmt.Sprintf("thumbnails/%s.jpg", model.GenerateUUID())
				if url, err := s.StorageSvc.Upload(ctx, name, thumb, stat.Size(), "image/jpeg"); err == nil {
					resource.Thumbnail = url
				}
			}
		}
	}
}

// ListForStudent 学生可见的资源：本班资源和全班级公开资源
func (s *ResourceService) ListForStudent(student *model.User, page, limit int) ([]model.Resource, int64, error) {
	return s.ResourceRepo.ListForStudent(student.ClassName, page, limit)
}

func (s *ResourceService) ListByUploader(uploaderID uint, page, limit int) ([]model.Resource, int64, error) {
	return s.ResourceRepo.ListByUploader(uploaderID, page, limit)
}

// Detail 查看资源详情并累加浏览计数
func (s *ResourceService) Detail(id uint) (*model.Resource, error) {
	resource, err := s.ResourceRepo.FindByID(id)
	if err != nil {
		return nil, util.ErrResourceNotFound
	}
	if err := s.ResourceRepo.IncrementViewCount(id); err != nil {
		s.Logger.Warn("view count update failed", zap.Uint("resource_id", id), zap.Error(err))
	}
	return resource, nil
}

func (s *ResourceService) Delete(uploaderID, id uint) error {
	resource, err := s.ResourceRepo.FindByID(id)
	if err != nil {
		return util.ErrResourceNotFound
	}
	if resource.UploaderID != uploaderID {
		return util.ErrPermissionDenied
	}
	return s.ResourceRepo.Delete(id)
}
