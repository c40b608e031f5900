package model

import (
	"time"
)

// StudentNote 学生对某个资源的学习笔记，每 (学生, 资源) 恰好一条，
// 保存即整体覆盖。字数统计服务端重算，不信任客户端上报。
type StudentNote struct {
	BaseModel
	StudentID      uint   `gorm:"index:idx_note_student_resource,unique;type:bigint unsigned"`
	ResourceID     uint   `gorm:"index:idx_note_student_resource,unique;type:bigint unsigned"`
	Content        string `gorm:"type:text;not null"`
	WordCount      int    `gorm:"default:0"`
	CharacterCount int    `gorm:"default:0"`

	TeacherGrade    *float64
	TeacherFeedback string `gorm:"type:text"`
	GradedAt        *time.Time
	GradedBy        uint `gorm:"type:bigint unsigned"`
}

func (StudentNote) TableName() string {
	return "student_notes"
}
