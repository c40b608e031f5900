package repository

import (
	"student_engagement_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) ListByResource(resourceID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("resource_id = ?", resourceID).Order("id asc").Find(&questions).Error
	return questions, err
}

func (r *QuestionRepository) CountByResource(resourceID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("resource_id = ?", resourceID).Count(&count).Error
	return count, err
}

func (r *QuestionRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Question{}, id).Error
}
