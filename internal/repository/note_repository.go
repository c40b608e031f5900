package repository

import (
	"errors"

	"student_engagement_backend/internal/model"

	"gorm.io/gorm"
)

type NoteRepository struct {
	DB *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *NoteRepository {
	return &NoteRepository{DB: db}
}

// Upsert 每 (学生, 资源) 恰好一条笔记：已存在则覆盖内容，
// 教师评分相关字段原样保留
func (r *NoteRepository) Upsert(n *model.StudentNote) error {
	existing, err := r.FindByStudentAndResource(n.StudentID, n.ResourceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.DB.Create(n).Error
	}
	if err != nil {
		return err
	}
	n.ID = existing.ID
	n.CreatedAt = existing.CreatedAt
	n.TeacherGrade = existing.TeacherGrade
	n.TeacherFeedback = existing.TeacherFeedback
	n.GradedAt = existing.GradedAt
	n.GradedBy = existing.GradedBy
	return r.DB.Save(n).Error
}

func (r *NoteRepository) Save(n *model.StudentNote) error {
	return r.DB.Save(n).Error
}

func (r *NoteRepository) FindByID(id uint) (*model.StudentNote, error) {
	var n model.StudentNote
	err := r.DB.First(&n, id).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *NoteRepository) FindByStudentAndResource(studentID, resourceID uint) (*model.StudentNote, error) {
	var n model.StudentNote
	err := r.DB.Where("student_id = ? AND resource_id = ?", studentID, resourceID).First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByResource 某资源下全部学生的笔记，教师批阅用
func (r *NoteRepository) ListByResource(resourceID uint) ([]model.StudentNote, error) {
	var notes []model.StudentNote
	err := r.DB.Where("resource_id = ?", resourceID).Order("updated_at desc").Find(&notes).Error
	return notes, err
}
