package repository

import (
	"errors"

	"student_engagement_backend/internal/model"

	"gorm.io/gorm"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// Upsert 每 (学生, 题目) 恰好一条记录：已存在则原地覆盖
func (r *AnswerRepository) Upsert(a *model.StudentAnswer) error {
	existing, err := r.FindByStudentAndQuestion(a.StudentID, a.QuestionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(a).Error
	}
	if err != nil {
		return err
	}
	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	return r.DB.Save(a).Error
}

func (r *AnswerRepository) Save(a *model.StudentAnswer) error {
	return r.DB.Save(a).Error
}

func (r *AnswerRepository) FindByStudentAndQuestion(studentID, questionID uint) (*model.StudentAnswer, error) {
	var a model.StudentAnswer
	err := r.DB.Where("student_id = ? AND question_id = ?", studentID, questionID).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnswerRepository) FindByID(id uint) (*model.StudentAnswer, error) {
	var a model.StudentAnswer
	err := r.DB.First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByStudentAndResource 学生对某资源全部题目的已存答案
func (r *AnswerRepository) ListByStudentAndResource(studentID, resourceID uint) ([]model.StudentAnswer, error) {
	var answers []model.StudentAnswer
	err := r.DB.Where("student_id = ? AND resource_id = ?", studentID, resourceID).Find(&answers).Error
	return answers, err
}

// ListPeerAnswers 同一题目下其他学生的答案，相似度检测用
func (r *AnswerRepository) ListPeerAnswers(questionID, excludeStudentID uint) ([]model.StudentAnswer, error) {
	var answers []model.StudentAnswer
	err := r.DB.Where("question_id = ? AND student_id <> ?", questionID, excludeStudentID).Find(&answers).Error
	return answers, err
}

func (r *AnswerRepository) CountByStudentAndResource(studentID, resourceID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.StudentAnswer{}).
		Where("student_id = ? AND resource_id = ?", studentID, resourceID).Count(&count).Error
	return count, err
}

// ListFlagged 某资源下带相似度标记的答案，教师查重报告用
func (r *AnswerRepository) ListFlagged(resourceID uint) ([]model.StudentAnswer, error) {
	var answers []model.StudentAnswer
	err := r.DB.Where("resource_id = ? AND matched_answer_id IS NOT NULL", resourceID).
		Order("similarity_score desc").Find(&answers).Error
	return answers, err
}
