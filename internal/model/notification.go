package model

import (
	"time"
)

// 预警类型
const (
	AlertLowEngagement   = "low_engagement"
	AlertHighDistraction = "high_distraction"
	AlertLowPrediction   = "low_success_prediction"
)

// EngagementAlert 聚合阈值触发的教师侧通知。
// 写入与投递都在主流程之外，失败只记日志。
type EngagementAlert struct {
	BaseModel
	TeacherID  uint   `gorm:"index;type:bigint unsigned"`
	StudentID  uint   `gorm:"index;type:bigint unsigned"`
	ResourceID uint   `gorm:"index;type:bigint unsigned"`
	Kind       string `gorm:"size:50;not null"`
	Message    string `gorm:"type:text"`
	Payload    string `gorm:"type:json"`
	ReadAt     *time.Time
}

func (EngagementAlert) TableName() string {
	return "engagement_alerts"
}
