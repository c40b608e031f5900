package model

import (
	"time"
)

// StudentAnswer 每个 (学生, 题目) 恰好一条活跃记录，重复提交原地覆盖并重新判分。
type StudentAnswer struct {
	BaseModel
	StudentID  uint   `gorm:"index:idx_student_question,unique;type:bigint unsigned"`
	QuestionID uint   `gorm:"index:idx_student_question,unique;type:bigint unsigned"`
	ResourceID uint   `gorm:"index;type:bigint unsigned"`
	AnswerText string `gorm:"type:text"`
	// essay 题在人工评分前保持 NULL
	IsCorrect    *bool
	MarksAwarded *int // 人工给分
	Feedback     string `gorm:"type:text"`
	GradedAt     *time.Time
	SubmittedAt  time.Time

	// 文本相似度检测结果，仅供教师参考
	SimilarityScore   float64 `gorm:"default:0"` // 0-1
	MatchedStudentID  *uint   `gorm:"type:bigint unsigned"`
	MatchedAnswerID   *uint   `gorm:"type:bigint unsigned"`
	SimilaritySummary string  `gorm:"size:255"`
}

func (StudentAnswer) TableName() string {
	return "student_answers"
}
