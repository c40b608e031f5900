package model

// ResourceAssignment 教师把资源直接指派给学生。
// 没有直接指派时，授权回退到班级/教师匹配（见 quiz_service 的归属判定）。
type ResourceAssignment struct {
	BaseModel
	StudentID  uint `gorm:"index:idx_assign_student_resource,unique;type:bigint unsigned"`
	ResourceID uint `gorm:"index:idx_assign_student_resource,unique;type:bigint unsigned"`
	AssignedBy uint `gorm:"type:bigint unsigned"`
	// 指派级别的限时覆盖，0 表示沿用测验配置
	TimeLimitOverride int `gorm:"default:0"`
}

func (ResourceAssignment) TableName() string {
	return "resource_assignments"
}
