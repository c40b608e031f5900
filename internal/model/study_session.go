package model

import (
	"time"
)

// StudySession 学生对某个资源的一次学习/测验尝试。
// 同一 (学生, 资源) 最多存在一个未完成的活跃会话；
// 完成转换只发生一次：显式结束、答完最后一题或超时。
type StudySession struct {
	BaseModel
	StudentID      uint `gorm:"index;type:bigint unsigned"`
	ResourceID     uint `gorm:"index;type:bigint unsigned"`
	StartTime      time.Time
	EndTime        *time.Time
	Duration       int      `gorm:"default:0"` // 秒，结束时由 end-start 导出
	QuizScore      *float64 // 百分比，纯学习会话为 NULL
	Completed      bool     `gorm:"default:false"`
	Recommendation string   `gorm:"type:text"`
}

func (StudySession) TableName() string {
	return "study_sessions"
}
