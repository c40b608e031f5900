package repository

import (
	"errors"
	"time"

	"student_engagement_backend/internal/model"

	"gorm.io/gorm"
)

type QuizMetaRepository struct {
	DB *gorm.DB
}

func NewQuizMetaRepository(db *gorm.DB) *QuizMetaRepository {
	return &QuizMetaRepository{DB: db}
}

// FindByResource 测验配置；记录缺失属正常情况（表示不限时、默认及格线）
func (r *QuizMetaRepository) FindByResource(resourceID uint) (*model.QuizMetadata, error) {
	var meta model.QuizMetadata
	err := r.DB.Where("resource_id = ?", resourceID).First(&meta).Error
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

func (r *QuizMetaRepository) Upsert(meta *model.QuizMetadata) error {
	existing, err := r.FindByResource(meta.ResourceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(meta).Error
	}
	if err != nil {
		return err
	}
	meta.ID = existing.ID
	meta.CreatedAt = existing.CreatedAt
	return r.DB.Save(meta).Error
}

type GrantRepository struct {
	DB *gorm.DB
}

func NewGrantRepository(db *gorm.DB) *GrantRepository {
	return &GrantRepository{DB: db}
}

func (r *GrantRepository) Create(g *model.ReassessmentGrant) error {
	return r.DB.Create(g).Error
}

// FindActive 未消费的重测许可；不存在时返回 gorm.ErrRecordNotFound
func (r *GrantRepository) FindActive(studentID, resourceID uint) (*model.ReassessmentGrant, error) {
	var g model.ReassessmentGrant
	err := r.DB.Where("student_id = ? AND resource_id = ? AND is_used = ?", studentID, resourceID, false).
		First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ConsumeActive 在事务内原子地消费一张未用许可。
// 用 is_used=false 作为更新条件，并发定稿时只有一方能消费成功。
func (r *GrantRepository) ConsumeActive(tx *gorm.DB, studentID, resourceID uint) (bool, error) {
	now := time.Now()
	res := tx.Model(&model.ReassessmentGrant{}).
		Where("student_id = ? AND resource_id = ? AND is_used = ?", studentID, resourceID, false).
		Updates(map[string]interface{}{"is_used": true, "used_at": &now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
