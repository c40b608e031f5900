package service

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"
	"student_engagement_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type NoteService struct {
	NoteRepo     *repository.NoteRepository
	ResourceRepo *repository.ResourceRepository
	Logger       *zap.Logger
}

func NewNoteService(
	noteRepo *repository.NoteRepository,
	resourceRepo *repository.ResourceRepository,
	logger *zap.Logger,
) *NoteService {
	return &NoteService{
		NoteRepo:     noteRepo,
		ResourceRepo: resourceRepo,
		Logger:       logger,
	}
}

// SaveNotes 整体覆盖式保存学习笔记，字数和字符数服务端重算
func (s *NoteService) SaveNotes(studentID, resourceID uint, content string) (*model.StudentNote, error) {
	if _, err := s.ResourceRepo.FindByID(resourceID); err != nil {
		return nil, util.ErrResourceNotFound
	}

	note := &model.StudentNote{
		StudentID:      studentID,
		ResourceID:     resourceID,
		Content:        content,
		WordCount:      len(strings.Fields(content)),
		CharacterCount: utf8.RuneCountInString(content),
	}
	if err := s.NoteRepo.Upsert(note); err != nil {
		return nil, err
	}
	return note, nil
}

// GetNotes 取学生自己的笔记，从未保存过时返回空内容而不是报错
func (s *NoteService) GetNotes(studentID, resourceID uint) (*model.StudentNote, error) {
	if _, err := s.ResourceRepo.FindByID(resourceID); err != nil {
		return nil, util.ErrResourceNotFound
	}

	note, err := s.NoteRepo.FindByStudentAndResource(studentID, resourceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.StudentNote{StudentID: studentID, ResourceID: resourceID}, nil
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

// ListByResource 教师查看自己资源下全部学生的笔记
func (s *NoteService) ListByResource(teacherID, resourceID uint) ([]model.StudentNote, error) {
	resource, err := s.ResourceRepo.FindByID(resourceID)
	if err != nil {
		return nil, util.ErrResourceNotFound
	}
	if resource.UploaderID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return s.NoteRepo.ListByResource(resourceID)
}

type GradeNoteRequest struct {
	Grade    float64 `json:"grade"`
	Feedback string  `json:"feedback"`
}

// GradeNote 教师给笔记打分，记录给分、评语和评分人
func (s *NoteService) GradeNote(teacherID, noteID uint, req GradeNoteRequest) (*model.StudentNote, error) {
	note, err := s.NoteRepo.FindByID(noteID)
	if err != nil {
		return nil, util.ErrNoteNotFound
	}
	resource, err := s.ResourceRepo.FindByID(note.ResourceID)
	if err != nil {
		return nil, util.ErrResourceNotFound
	}
	if resource.UploaderID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	if req.Grade < 0 || req.Grade > 100 {
		return nil, errors.New("grade out of range")
	}

	now := time.Now()
	note.TeacherGrade = &req.Grade
	note.TeacherFeedback = req.Feedback
	note.GradedAt = &now
	note.GradedBy = teacherID
	if err := s.NoteRepo.Save(note); err != nil {
		return nil, err
	}
	return note, nil
}
