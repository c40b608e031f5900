package service

import (
	"encoding/json"
	"errors"
	"time"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"
	"student_engagement_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuestionService 教师侧的出题、配置、人工评分和查重入口
type QuestionService struct {
	QuestionRepo   *repository.QuestionRepository
	AnswerRepo     *repository.AnswerRepository
	QuizMetaRepo   *repository.QuizMetaRepository
	GrantRepo      *repository.GrantRepository
	AssignmentRepo *repository.AssignmentRepository
	ResourceRepo   *repository.ResourceRepository
	UserRepo       *repository.UserRepository
	Logger         *zap.Logger
}

func NewQuestionService(
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRepository,
	quizMetaRepo *repository.QuizMetaRepository,
	grantRepo *repository.GrantRepository,
	assignmentRepo *repository.AssignmentRepository,
	resourceRepo *repository.ResourceRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *QuestionService {
	return &QuestionService{
		QuestionRepo:   questionRepo,
		AnswerRepo:     answerRepo,
		QuizMetaRepo:   quizMetaRepo,
		GrantRepo:      grantRepo,
		AssignmentRepo: assignmentRepo,
		ResourceRepo:   resourceRepo,
		UserRepo:       userRepo,
		Logger:         logger,
	}
}

// requireOwnership 题目和配置只允许资源上传者本人操作
func (s *QuestionService) requireOwnership(teacherID, resourceID uint) (*model.Resource, error) {
	resource, err := s.ResourceRepo.FindByID(resourceID)
	if err != nil {
		return nil, util.ErrResourceNotFound
	}
	if resource.UploaderID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return resource, nil
}

type QuestionCreateRequest struct {
	Text          string   `json:"text" binding:"required"`
	Type          string   `json:"type" binding:"required,oneof=mcq essay"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Marks         int      `json:"marks"`
}

func (s *QuestionService) CreateQuestion(teacherID, resourceID uint, req QuestionCreateRequest) (*model.Question, error) {
	if _, err := s.requireOwnership(teacherID, resourceID); err != nil {
		return nil, err
	}
	if req.Type == string(model.MCQ) {
		if len(req.Options) < 2 {
			return nil, errors.New("mcq question needs at least two options")
		}
		idx := letterIndex(req.CorrectAnswer)
		if idx < 0 || idx >= len(req.Options) {
			return nil, errors.New("correct_answer letter out of range")
		}
	}
	marks := req.Marks
	if marks <= 0 {
		marks = 1
	}

	optionsJSON := ""
	if len(req.Options) > 0 {
		raw, err := json.Marshal(req.Options)
		if err != nil {
			return nil, err
		}
		optionsJSON = string(raw)
	}

	q := &model.Question{
		ResourceID:    resourceID,
		Text:          req.Text,
		Type:          model.QuestionType(req.Type),
		Options:       optionsJSON,
		CorrectAnswer: req.CorrectAnswer,
		Marks:         marks,
	}
	if err := s.QuestionRepo.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) ListQuestions(teacherID, resourceID uint) ([]model.Question, error) {
	if _, err := s.requireOwnership(teacherID, resourceID); err != nil {
		return nil, err
	}
	return s.QuestionRepo.ListByResource(resourceID)
}

func (s *QuestionService) DeleteQuestion(teacherID, questionID uint) error {
	q, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		return util.ErrQuestionNotFound
	}
	if _, err := s.requireOwnership(teacherID, q.ResourceID); err != nil {
		return err
	}
	return s.QuestionRepo.Delete(questionID)
}

type QuizMetadataRequest struct {
	TimeLimit    int `json:"time_limit"`    // 秒，0 表示不限时
	PassingScore int `json:"passing_score"` // 百分比
}

func (s *QuestionService) UpsertMetadata(teacherID, resourceID uint, req QuizMetadataRequest) (*model.QuizMetadata, error) {
	if _, err := s.requireOwnership(teacherID, resourceID); err != nil {
		return nil, err
	}
	passing := req.PassingScore
	if passing <= 0 {
		passing = 60
	}
	meta := &model.QuizMetadata{
		ResourceID:   resourceID,
		TimeLimit:    req.TimeLimit,
		PassingScore: passing,
	}
	if existing, err := s.QuizMetaRepo.FindByResource(resourceID); err == nil {
		meta.MarksPublished = existing.MarksPublished
		meta.MarksPublishedAt = existing.MarksPublishedAt
	}
	if err := s.QuizMetaRepo.Upsert(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// PublishMarks 翻转成绩可见开关，学生从此刻起能查到分数
func (s *QuestionService) PublishMarks(teacherID, resourceID uint) (*model.QuizMetadata, error) {
	if _, err := s.requireOwnership(teacherID, resourceID); err != nil {
		return nil, err
	}
	meta, err := s.QuizMetaRepo.FindByResource(resourceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		meta = &model.QuizMetadata{ResourceID: resourceID, PassingScore: 60}
	} else if err != nil {
		return nil, err
	}
	now := time.Now()
	meta.MarksPublished = true
	meta.MarksPublishedAt = &now
	if err := s.QuizMetaRepo.Upsert(meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// IssueGrant 为学生签发一次性重测许可。
// 已有未消费的许可时拒绝重复签发。
func (s *QuestionService) IssueGrant(teacherID, studentID, resourceID uint) (*model.ReassessmentGrant, error) {
	if _, err := s.requireOwnership(teacherID, resourceID); err != nil {
		return nil, err
	}
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil || student.Role != model.Student {
		return nil, util.ErrUserNotFound
	}
	if _, err := s.GrantRepo.FindActive(studentID, resourceID); err == nil {
		return nil, util.ErrGrantAlreadyActive
	}

	grant := &model.ReassessmentGrant{
		StudentID:  studentID,
		ResourceID: resourceID,
		GrantedBy:  teacherID,
	}
	if err := s.GrantRepo.Create(grant); err != nil {
		return nil, err
	}
	s.Logger.Info("reassessment grant issued",
		zap.Uint("teacher_id", teacherID),
		zap.Uint("student_id", studentID),
		zap.Uint("resource_id", resourceID))
	return grant, nil
}

// AssignResource 教师把资源直接指派给学生，可带限时覆盖
func (s *QuestionService) AssignResource(teacherID, studentID, resourceID uint, timeLimitOverride int) (*model.ResourceAssignment, error) {
	if _, err := s.requireOwnership(teacherID, resourceID); err != nil {
		return nil, err
	}
	if _, err := s.UserRepo.FindByID(studentID); err != nil {
		return nil, util.ErrUserNotFound
	}
	assignment := &model.ResourceAssignment{
		StudentID:         studentID,
		ResourceID:        resourceID,
		AssignedBy:        teacherID,
		TimeLimitOverride: timeLimitOverride,
	}
	if err := s.AssignmentRepo.Create(assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

type GradeEssayRequest struct {
	MarksAwarded int    `json:"marks_awarded"`
	Feedback     string `json:"feedback"`
}

// GradeEssay 人工评分主观题，记录给分、评语和评分时间
func (s *QuestionService) GradeEssay(teacherID, answerID uint, req GradeEssayRequest) (*model.StudentAnswer, error) {
	answer, err := s.AnswerRepo.FindByID(answerID)
	if err != nil {
		return nil, util.ErrQuestionNotFound
	}
	question, err := s.QuestionRepo.FindByID(answer.QuestionID)
	if err != nil {
		return nil, util.ErrQuestionNotFound
	}
	if _, err := s.requireOwnership(teacherID, question.ResourceID); err != nil {
		return nil, err
	}
	if req.MarksAwarded < 0 || req.MarksAwarded > question.Marks {
		return nil, errors.New("marks_awarded out of range")
	}

	now := time.Now()
	answer.MarksAwarded = &req.MarksAwarded
	answer.Feedback = req.Feedback
	answer.GradedAt = &now
	if err := s.AnswerRepo.Save(answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// PlagiarismReport 某个资源下被相似度检测标记的作答
func (s *QuestionService) PlagiarismReport(teacherID, resourceID uint) ([]model.StudentAnswer, error) {
	if _, err := s.requireOwnership(teacherID, resourceID); err != nil {
		return nil, err
	}
	return s.AnswerRepo.ListFlagged(resourceID)
}

// ListStudents 教师名下的学生
func (s *QuestionService) ListStudents(teacherID uint) ([]model.User, error) {
	return s.UserRepo.ListStudentsByTeacher(teacherID)
}
