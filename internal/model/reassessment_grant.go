package model

import (
	"time"
)

// ReassessmentGrant 教师为 (学生, 资源) 签发的一次性重测许可，
// 对应测验会话再次定稿时被消费。
type ReassessmentGrant struct {
	BaseModel
	StudentID  uint `gorm:"index:idx_grant_student_resource;type:bigint unsigned"`
	ResourceID uint `gorm:"index:idx_grant_student_resource;type:bigint unsigned"`
	GrantedBy  uint `gorm:"type:bigint unsigned"`
	IsUsed     bool `gorm:"default:false"`
	UsedAt     *time.Time
}

func (ReassessmentGrant) TableName() string {
	return "reassessment_grants"
}
