package model

import (
	"time"
)

// QuizMetadata 每个资源的测验配置。TimeLimit 为 0 或记录缺失表示不限时。
type QuizMetadata struct {
	BaseModel
	ResourceID       uint `gorm:"uniqueIndex;type:bigint unsigned"`
	TimeLimit        int  `gorm:"default:0"` // 秒
	PassingScore     int  `gorm:"default:60"`
	MarksPublished   bool `gorm:"default:false"` // 翻转后学生才能看到分数
	MarksPublishedAt *time.Time
}

func (QuizMetadata) TableName() string {
	return "quiz_metadata"
}
