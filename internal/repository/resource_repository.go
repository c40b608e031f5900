package repository

import (
	"student_engagement_backend/internal/model"

	"gorm.io/gorm"
)

type ResourceRepository struct {
	DB *gorm.DB
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{DB: db}
}

func (r *ResourceRepository) Create(res *model.Resource) error {
	return r.DB.Create(res).Error
}

func (r *ResourceRepository) FindByID(id uint) (*model.Resource, error) {
	var res model.Resource
	err := r.DB.First(&res, id).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *ResourceRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Resource{}, id).Error
}

// ListForStudent 学生可见的资源：面向其班级的，或未限定班级的
func (r *ResourceRepository) ListForStudent(className string, page, limit int) ([]model.Resource, int64, error) {
	var resources []model.Resource
	var total int64

	query := r.DB.Model(&model.Resource{}).
		Where("class_name = ? OR class_name = ''", className)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&resources).Error
	return resources, total, err
}

func (r *ResourceRepository) ListByUploader(uploaderID uint, page, limit int) ([]model.Resource, int64, error) {
	var resources []model.Resource
	var total int64

	query := r.DB.Model(&model.Resource{}).Where("uploader_id = ?", uploaderID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&resources).Error
	return resources, total, err
}

func (r *ResourceRepository) IncrementViewCount(id uint) error {
	return r.DB.Model(&model.Resource{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

type AssignmentRepository struct {
	DB *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{DB: db}
}

func (r *AssignmentRepository) Create(a *model.ResourceAssignment) error {
	return r.DB.Create(a).Error
}

// FindByStudentAndResource 直接指派记录，不存在时返回 gorm.ErrRecordNotFound
func (r *AssignmentRepository) FindByStudentAndResource(studentID, resourceID uint) (*model.ResourceAssignment, error) {
	var a model.ResourceAssignment
	err := r.DB.Where("student_id = ? AND resource_id = ?", studentID, resourceID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
