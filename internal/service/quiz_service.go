package service

import (
	"errors"
	"strings"
	"time"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"
	"student_engagement_backend/internal/util"
	"student_engagement_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AssignmentKind 学生对资源的授权来源
type AssignmentKind int

const (
	AssignmentNone AssignmentKind = iota
	AssignmentClassImplicit
	AssignmentGranted
)

// AssignmentResolution 授权判定结果。直接指派可以携带限时覆盖。
type AssignmentResolution struct {
	Kind              AssignmentKind
	TimeLimitOverride int
}

type QuizService struct {
	DB             *gorm.DB
	SessionRepo    *repository.SessionRepository
	QuestionRepo   *repository.QuestionRepository
	AnswerRepo     *repository.AnswerRepository
	QuizMetaRepo   *repository.QuizMetaRepository
	GrantRepo      *repository.GrantRepository
	AssignmentRepo *repository.AssignmentRepository
	ResourceRepo   *repository.ResourceRepository
	UserRepo       *repository.UserRepository
	SimilaritySvc  *SimilarityService
	RecommendSvc   *RecommendationService
	Logger         *zap.Logger
}

func NewQuizService(
	db *gorm.DB,
	sessionRepo *repository.SessionRepository,
	questionRepo *repository.QuestionRepository,
	answerRepo *repository.AnswerRepository,
	quizMetaRepo *repository.QuizMetaRepository,
	grantRepo *repository.GrantRepository,
	assignmentRepo *repository.AssignmentRepository,
	resourceRepo *repository.ResourceRepository,
	userRepo *repository.UserRepository,
	similaritySvc *SimilarityService,
	recommendSvc *RecommendationService,
	logger *zap.Logger,
) *QuizService {
	return &QuizService{
		DB:             db,
		SessionRepo:    sessionRepo,
		QuestionRepo:   questionRepo,
		AnswerRepo:     answerRepo,
		QuizMetaRepo:   quizMetaRepo,
		GrantRepo:      grantRepo,
		AssignmentRepo: assignmentRepo,
		ResourceRepo:   resourceRepo,
		UserRepo:       userRepo,
		SimilaritySvc:  similaritySvc,
		RecommendSvc:   recommendSvc,
		Logger:         logger,
	}
}

// resolveAssignment 判定学生能否使用资源。
// 直接指派优先（可带限时覆盖），否则回退到班级/任课教师匹配。
func (s *QuizService) resolveAssignment(student *model.User, resource *model.Resource) AssignmentResolution {
	if assignment, err := s.AssignmentRepo.FindByStudentAndResource(student.ID, resource.ID); err == nil {
		return AssignmentResolution{Kind: AssignmentGranted, TimeLimitOverride: assignment.TimeLimitOverride}
	}
	if resource.ClassName == "" ||
		resource.ClassName == student.ClassName ||
		(student.TeacherID != 0 && resource.UploaderID == student.TeacherID) {
		return AssignmentResolution{Kind: AssignmentClassImplicit}
	}
	return AssignmentResolution{Kind: AssignmentNone}
}

// SessionExpired 判定会话是否超时。limitSeconds <= 0 表示不限时。
func SessionExpired(start time.Time, limitSeconds int, now time.Time) bool {
	if limitSeconds <= 0 {
		return false
	}
	return !now.Before(start.Add(time.Duration(limitSeconds) * time.Second))
}

// effectiveTimeLimit 取生效的限时秒数。
// 配置缺失按不限时处理，宁可放行也不误判学生超时。
func (s *QuizService) effectiveTimeLimit(resourceID uint, resolution AssignmentResolution) int {
	if resolution.Kind == AssignmentGranted && resolution.TimeLimitOverride > 0 {
		return resolution.TimeLimitOverride
	}
	meta, err := s.QuizMetaRepo.FindByResource(resourceID)
	if err != nil {
		return 0
	}
	return meta.TimeLimit
}

// StartSession 开始或复用一次学习会话，同一 (学生, 资源) 只会有一个活跃会话
func (s *QuizService) StartSession(studentID, resourceID uint) (*model.StudySession, error) {
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	resource, err := s.ResourceRepo.FindByID(resourceID)
	if err != nil {
		return nil, util.ErrResourceNotFound
	}
	if s.resolveAssignment(student, resource).Kind == AssignmentNone {
		return nil, util.ErrNotAssigned
	}

	if sess, err := s.SessionRepo.FindActive(studentID, resourceID); err == nil {
		return sess, nil
	}

	sess := &model.StudySession{
		StudentID:  studentID,
		ResourceID: resourceID,
		StartTime:  time.Now(),
	}
	if err := s.SessionRepo.Create(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// matchOptionLetter 把提交文本匹配到选项字母，大小写和首尾空白不敏感。
// 匹配不上返回 false，调用方按答错处理而不是报错。
func matchOptionLetter(options []string, raw string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == normalized {
			return indexLetter(i), true
		}
	}
	return "", false
}

// questionView 学生视角的题目。重测许可生效期间选项顺序被确定性打乱。
func (s *QuizService) questionView(q *model.Question, studentID uint, shuffled bool) ([]string, string) {
	options := q.OptionList()
	if q.Type != model.MCQ || !shuffled {
		return options, q.CorrectAnswer
	}
	view := ShuffleOptions(studentID, q.ResourceID, q.ID, options, q.CorrectAnswer)
	return view.Options, view.CorrectLetter
}

func (s *QuizService) shuffleActive(studentID, resourceID uint) bool {
	_, err := s.GrantRepo.FindActive(studentID, resourceID)
	return err == nil
}

type SubmitAnswerResult struct {
	Finalized     bool
	Timeout       bool
	PendingReview bool
	IsCorrect     *bool
	CurrentScore  float64
	FinalScore    float64
	CorrectCount  int
	TotalCount    int
	CorrectAnswer string // 答错时给出的正确选项原文
	AIRecommend   string
	SessionID     uint
}

// SubmitAnswer 接收一次作答：鉴权、限时检查、判分、相似度扫描、
// 覆盖式落库，答完最后一题时自动定稿。
func (s *QuizService) SubmitAnswer(studentID, resourceID, questionID uint, rawAnswer string) (*SubmitAnswerResult, error) {
	question, err := s.QuestionRepo.FindByID(questionID)
	if err != nil {
		return nil, util.ErrQuestionNotFound
	}
	if question.ResourceID != resourceID {
		return nil, util.ErrQuestionMismatch
	}
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	resource, err := s.ResourceRepo.FindByID(resourceID)
	if err != nil {
		return nil, util.ErrResourceNotFound
	}
	resolution := s.resolveAssignment(student, resource)
	if resolution.Kind == AssignmentNone {
		// 鉴权失败是硬失败，此前不允许有任何写入
		return nil, util.ErrNotAssigned
	}

	sess, err := s.StartSession(studentID, resourceID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	limit := s.effectiveTimeLimit(resourceID, resolution)
	if SessionExpired(sess.StartTime, limit, now) {
		outcome, err := s.finalize(sess, "timeout")
		if err != nil {
			return nil, err
		}
		return &SubmitAnswerResult{
			Finalized:    true,
			Timeout:      true,
			FinalScore:   outcome.Score,
			CorrectCount: outcome.CorrectCount,
			TotalCount:   outcome.TotalCount,
			AIRecommend:  outcome.Recommendation,
			SessionID:    sess.ID,
		}, nil
	}

	shuffled := s.shuffleActive(studentID, resourceID)
	answer := &model.StudentAnswer{
		StudentID:   studentID,
		QuestionID:  questionID,
		ResourceID:  resourceID,
		AnswerText:  rawAnswer,
		SubmittedAt: now,
	}

	if question.Type == model.MCQ {
		options, correctLetter := s.questionView(question, studentID, shuffled)
		letter, matched := matchOptionLetter(options, rawAnswer)
		correct := matched && letter == correctLetter
		answer.IsCorrect = &correct
		answer.GradedAt = &now
	} else {
		// essay 保持未判分，等教师人工评分
		if err := s.SimilaritySvc.ScanAnswer(answer); err != nil {
			s.Logger.Warn("similarity scan failed",
				zap.Uint("question_id", questionID), zap.Error(err))
		}
	}

	if err := s.AnswerRepo.Upsert(answer); err != nil {
		return nil, err
	}

	totalQuestions, err := s.QuestionRepo.CountByResource(resourceID)
	if err != nil {
		return nil, err
	}
	answered, err := s.AnswerRepo.CountByStudentAndResource(studentID, resourceID)
	if err != nil {
		return nil, err
	}

	if totalQuestions > 0 && answered >= totalQuestions {
		outcome, err := s.finalize(sess, "completed")
		if err != nil {
			return nil, err
		}
		return &SubmitAnswerResult{
			Finalized:    true,
			FinalScore:   outcome.Score,
			CorrectCount: outcome.CorrectCount,
			TotalCount:   outcome.TotalCount,
			AIRecommend:  outcome.Recommendation,
			SessionID:    sess.ID,
		}, nil
	}

	if question.Type != model.MCQ {
		return &SubmitAnswerResult{PendingReview: true, SessionID: sess.ID}, nil
	}

	correctCount, totalMCQ, err := s.mcqProgress(studentID, resourceID)
	if err != nil {
		return nil, err
	}
	result := &SubmitAnswerResult{
		IsCorrect:    answer.IsCorrect,
		CurrentScore: mcqPercentage(correctCount, totalMCQ),
		CorrectCount: correctCount,
		TotalCount:   int(totalQuestions),
		SessionID:    sess.ID,
	}
	if answer.IsCorrect != nil && !*answer.IsCorrect {
		options, correctLetter := s.questionView(question, studentID, shuffled)
		if idx := letterIndex(correctLetter); idx >= 0 && idx < len(options) {
			result.CorrectAnswer = options[idx]
		}
	}
	return result, nil
}

// mcqProgress 统计当前已答对的客观题数量和客观题总数
func (s *QuizService) mcqProgress(studentID, resourceID uint) (correct, totalMCQ int, err error) {
	questions, err := s.QuestionRepo.ListByResource(resourceID)
	if err != nil {
		return 0, 0, err
	}
	answers, err := s.AnswerRepo.ListByStudentAndResource(studentID, resourceID)
	if err != nil {
		return 0, 0, err
	}
	byQuestion := make(map[uint]*model.StudentAnswer, len(answers))
	for i := range answers {
		byQuestion[answers[i].QuestionID] = &answers[i]
	}
	for i := range questions {
		if questions[i].Type != model.MCQ {
			continue
		}
		totalMCQ++
		if a, ok := byQuestion[questions[i].ID]; ok && a.IsCorrect != nil && *a.IsCorrect {
			correct++
		}
	}
	return correct, totalMCQ, nil
}

func mcqPercentage(correct, totalMCQ int) float64 {
	if totalMCQ == 0 {
		return 0
	}
	return 100 * float64(correct) / float64(totalMCQ)
}

type finalizeOutcome struct {
	Score          float64
	CorrectCount   int
	TotalCount     int
	Recommendation string
}

// finalize 把会话一次性推进到完成态。
// 以 completed=false 作为更新条件保证幂等：并发触发时只有一方
// 真正写入分数并消费重测许可，输家读取已存结果返回。
func (s *QuizService) finalize(sess *model.StudySession, trigger string) (*finalizeOutcome, error) {
	correct, totalMCQ, err := s.mcqProgress(sess.StudentID, sess.ResourceID)
	if err != nil {
		return nil, err
	}
	totalQuestions, err := s.QuestionRepo.CountByResource(sess.ResourceID)
	if err != nil {
		return nil, err
	}
	score := mcqPercentage(correct, totalMCQ)

	now := time.Now()
	duration := int(now.Sub(sess.StartTime).Seconds())
	recommendation := s.RecommendSvc.Generate(score, duration)

	won := false
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.StudySession{}).
			Where("id = ? AND completed = ?", sess.ID, false).
			Updates(map[string]interface{}{
				"completed":      true,
				"end_time":       now,
				"duration":       duration,
				"quiz_score":     score,
				"recommendation": recommendation,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		won = true

		// 同一 (学生, 资源) 的遗留活跃会话一并关闭
		if err := tx.Model(&model.StudySession{}).
			Where("student_id = ? AND resource_id = ? AND completed = ? AND id <> ?",
				sess.StudentID, sess.ResourceID, false, sess.ID).
			Updates(map[string]interface{}{"completed": true, "end_time": now}).Error; err != nil {
			return err
		}

		consumed, err := s.GrantRepo.ConsumeActive(tx, sess.StudentID, sess.ResourceID)
		if err != nil {
			return err
		}
		if consumed {
			s.Logger.Info("reassessment grant consumed",
				zap.Uint("student_id", sess.StudentID),
				zap.Uint("resource_id", sess.ResourceID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !won {
		// 已被并发的定稿抢先，返回已存结果而不是重算
		stored, err := s.SessionRepo.FindByID(sess.ID)
		if err != nil {
			return nil, err
		}
		outcome := &finalizeOutcome{
			CorrectCount:   correct,
			TotalCount:     int(totalQuestions),
			Recommendation: stored.Recommendation,
		}
		if stored.QuizScore != nil {
			outcome.Score = *stored.QuizScore
		}
		return outcome, nil
	}

	monitoring.SessionFinalizeCounter.WithLabelValues(trigger).Inc()
	s.Logger.Info("study session finalized",
		zap.Uint("session_id", sess.ID),
		zap.String("trigger", trigger),
		zap.Float64("score", score))

	return &finalizeOutcome{
		Score:          score,
		CorrectCount:   correct,
		TotalCount:     int(totalQuestions),
		Recommendation: recommendation,
	}, nil
}

// EndStudy 显式结束学习会话。
// 没有题目的纯阅读资源只能从这里关闭，记录时长但不产生测验分。
func (s *QuizService) EndStudy(studentID, resourceID uint) (*model.StudySession, error) {
	sess, err := s.SessionRepo.FindActive(studentID, resourceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}

	now := time.Now()
	duration := int(now.Sub(sess.StartTime).Seconds())
	res := s.DB.Model(&model.StudySession{}).
		Where("id = ? AND completed = ?", sess.ID, false).
		Updates(map[string]interface{}{
			"completed": true,
			"end_time":  now,
			"duration":  duration,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, util.ErrSessionCompleted
	}
	monitoring.SessionFinalizeCounter.WithLabelValues("end_study").Inc()
	return s.SessionRepo.FindByID(sess.ID)
}

// QuizQuestionView 学生看到的题目，不暴露正确答案
type QuizQuestionView struct {
	ID       uint     `json:"id"`
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Marks    int      `json:"marks"`
	Answered bool     `json:"answered"`
}

type QuizStatus struct {
	SessionID        uint               `json:"session_id"`
	Questions        []QuizQuestionView `json:"questions"`
	TimeLimit        int                `json:"time_limit"`
	RemainingSeconds int                `json:"remaining_seconds"` // 不限时为 -1
	Timeout          bool               `json:"timeout"`
	FinalScore       *float64           `json:"final_score,omitempty"`
	ShuffleActive    bool               `json:"shuffle_active"`
}

// Status 学生打开测验页时的完整状态。
// 重新打开时同样执行超时检查，到点即定稿。
func (s *QuizService) Status(studentID, resourceID uint) (*QuizStatus, error) {
	student, err := s.UserRepo.FindByID(studentID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}
	resource, err := s.ResourceRepo.FindByID(resourceID)
	if err != nil {
		return nil, util.ErrResourceNotFound
	}
	resolution := s.resolveAssignment(student, resource)
	if resolution.Kind == AssignmentNone {
		return nil, util.ErrNotAssigned
	}

	sess, err := s.StartSession(studentID, resourceID)
	if err != nil {
		return nil, err
	}

	status := &QuizStatus{SessionID: sess.ID, RemainingSeconds: -1}
	limit := s.effectiveTimeLimit(resourceID, resolution)
	status.TimeLimit = limit

	now := time.Now()
	if SessionExpired(sess.StartTime, limit, now) {
		outcome, err := s.finalize(sess, "timeout")
		if err != nil {
			return nil, err
		}
		status.Timeout = true
		status.RemainingSeconds = 0
		status.FinalScore = &outcome.Score
		return status, nil
	}
	if limit > 0 {
		status.RemainingSeconds = int(sess.StartTime.Add(time.Duration(limit) * time.Second).Sub(now).Seconds())
	}

	shuffled := s.shuffleActive(studentID, resourceID)
	status.ShuffleActive = shuffled

	questions, err := s.QuestionRepo.ListByResource(resourceID)
	if err != nil {
		return nil, err
	}
	answers, err := s.AnswerRepo.ListByStudentAndResource(studentID, resourceID)
	if err != nil {
		return nil, err
	}
	answeredSet := make(map[uint]bool, len(answers))
	for _, a := range answers {
		answeredSet[a.QuestionID] = true
	}

	for i := range questions {
		q := &questions[i]
		options, _ := s.questionView(q, studentID, shuffled)
		status.Questions = append(status.Questions, QuizQuestionView{
			ID:       q.ID,
			Text:     q.Text,
			Type:     string(q.Type),
			Options:  options,
			Marks:    q.Marks,
			Answered: answeredSet[q.ID],
		})
	}
	return status, nil
}

// PublishedMarks 学生查看已发布的成绩，未发布时拒绝
func (s *QuizService) PublishedMarks(studentID, resourceID uint) ([]model.StudentAnswer, error) {
	meta, err := s.QuizMetaRepo.FindByResource(resourceID)
	if err != nil || !meta.MarksPublished {
		return nil, util.ErrMarksNotPublished
	}
	return s.AnswerRepo.ListByStudentAndResource(studentID, resourceID)
}

// SessionHistory 学生在某资源下的历史会话
func (s *QuizService) SessionHistory(studentID, resourceID uint) ([]model.StudySession, error) {
	return s.SessionRepo.ListByStudentAndResource(studentID, resourceID)
}
