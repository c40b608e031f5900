package model

import (
	"encoding/json"
)

type QuestionType string

const (
	MCQ   QuestionType = "mcq"
	Essay QuestionType = "essay"
)

// Question 属于一个资源（测验）。mcq 题带有序选项表和正确答案字母（A-D），
// 一旦有学生作答，实践上不再修改。
type Question struct {
	BaseModel
	ResourceID    uint         `gorm:"index;type:bigint unsigned"`
	Text          string       `gorm:"type:text;not null"`
	Type          QuestionType `gorm:"type:enum('mcq','essay');default:'mcq'"`
	Options       string       `gorm:"type:json"` // JSON 数组，按 A/B/C/D 顺序
	CorrectAnswer string       `gorm:"size:5"`    // 正确选项字母，essay 为空
	Marks         int          `gorm:"default:1"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList 解析选项 JSON，损坏时返回空表而非报错
func (q *Question) OptionList() []string {
	if q.Options == "" {
		return nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(q.Options), &opts); err != nil {
		return nil
	}
	return opts
}
