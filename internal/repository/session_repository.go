package repository

import (
	"student_engagement_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(s *model.StudySession) error {
	return r.DB.Create(s).Error
}

func (r *SessionRepository) FindByID(id uint) (*model.StudySession, error) {
	var s model.StudySession
	err := r.DB.First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// FindActive 同一 (学生, 资源) 的未完成会话；不存在时返回 gorm.ErrRecordNotFound
func (r *SessionRepository) FindActive(studentID, resourceID uint) (*model.StudySession, error) {
	var s model.StudySession
	err := r.DB.Where("student_id = ? AND resource_id = ? AND completed = ?", studentID, resourceID, false).
		Order("start_time desc").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListCompletedWithScore 有测验分的已完成会话，预测模型的训练集
func (r *SessionRepository) ListCompletedWithScore() ([]model.StudySession, error) {
	var sessions []model.StudySession
	err := r.DB.Where("completed = ?", true).Find(&sessions).Error
	return sessions, err
}

func (r *SessionRepository) ListByStudentAndResource(studentID, resourceID uint) ([]model.StudySession, error) {
	var sessions []model.StudySession
	err := r.DB.Where("student_id = ? AND resource_id = ?", studentID, resourceID).
		Order("start_time desc").Find(&sessions).Error
	return sessions, err
}
