package repository

import (
	"time"

	"student_engagement_backend/internal/model"

	"gorm.io/gorm"
)

type AlertRepository struct {
	DB *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{DB: db}
}

func (r *AlertRepository) Create(alert *model.EngagementAlert) error {
	return r.DB.Create(alert).Error
}

func (r *AlertRepository) ListByTeacher(teacherID uint, unreadOnly bool, limit int) ([]model.EngagementAlert, error) {
	if limit <= 0 {
		limit = 50
	}
	q := r.DB.Where("teacher_id = ?", teacherID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var alerts []model.EngagementAlert
	err := q.Order("created_at desc").Limit(limit).Find(&alerts).Error
	return alerts, err
}

func (r *AlertRepository) MarkRead(teacherID, alertID uint) error {
	now := time.Now()
	return r.DB.Model(&model.EngagementAlert{}).
		Where("id = ? AND teacher_id = ?", alertID, teacherID).
		Update("read_at", &now).Error
}

// CountRecentByKind 限流用：统计窗口内同类告警次数，避免对同一学生反复推送
func (r *AlertRepository) CountRecentByKind(teacherID, studentID, resourceID uint, kind string, since time.Time) (int64, error) {
	var count int64
	err := r.DB.Model(&model.EngagementAlert{}).
		Where("teacher_id = ? AND student_id = ? AND resource_id = ? AND kind = ? AND created_at >= ?",
			teacherID, studentID, resourceID, kind, since).
		Count(&count).Error
	return count, err
}
