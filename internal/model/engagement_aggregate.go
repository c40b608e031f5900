package model

// EngagementAggregate 每个 (学生, 资源, 会话) 唯一一行的参与度聚合。
// 首个事件到达时惰性创建，之后每个事件都会更新它。
type EngagementAggregate struct {
	BaseModel
	StudentID  uint `gorm:"index:idx_student_resource_session,unique;type:bigint unsigned"`
	ResourceID uint `gorm:"index:idx_student_resource_session,unique;type:bigint unsigned"`
	// 0 表示无会话。不用 NULL 是因为 MySQL 的唯一索引允许多行 NULL，
	// 并发首事件会把无会话聚合建出重复行
	SessionID uint `gorm:"index:idx_student_resource_session,unique;type:bigint unsigned;default:0"`

	TotalTimeSpent     float64 `gorm:"default:0"` // 秒
	FocusTime          float64 `gorm:"default:0"` // 秒
	IdleTime           float64 `gorm:"default:0"` // 秒
	ScrollDepth        float64 `gorm:"default:0"` // 已见最大百分比，会话内单调不减
	CursorMovements    int     `gorm:"default:0"`
	Clicks             int     `gorm:"default:0"`
	DistractionCount   int     `gorm:"default:0"`
	ReturnCount        int     `gorm:"default:0"`
	ReadingSpeed       float64 `gorm:"default:0"` // 最近一次上报值覆盖
	ComprehensionScore float64 `gorm:"default:0"` // 最近一次上报值覆盖
	AttentionSpan      float64 `gorm:"default:0"`
	EngagementScore    int     `gorm:"default:0"` // 派生，0-100
}

func (EngagementAggregate) TableName() string {
	return "engagement_aggregates"
}
