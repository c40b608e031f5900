package model

import (
	"strings"
	"time"
)

// 客户端上报的活动类型词表
const (
	ActivityTimeSpent          = "time_spent"
	ActivityScroll             = "scroll"
	ActivityCursorMove         = "cursor_move"
	ActivityClick              = "click"
	ActivityFocusTime          = "focus_time"
	ActivityIdleTime           = "idle_time"
	ActivityPageHidden         = "page_hidden"
	ActivityPageVisible        = "page_visible"
	ActivityReadingSpeed       = "reading_speed"
	ActivityComprehensionCheck = "comprehension_check"
	ActivityPaste              = "paste"
	ActivityNotesSave          = "notes_save"
	ActivitySessionEnd         = "session_end"

	activityVideoPrefix = "video_"
)

// KnownActivityType 判断活动类型是否在固定词表内。
// 未知类型的事件仍会被原样存储，但不会改变聚合值。
func KnownActivityType(t string) bool {
	switch t {
	case ActivityTimeSpent, ActivityScroll, ActivityCursorMove, ActivityClick,
		ActivityFocusTime, ActivityIdleTime, ActivityPageHidden, ActivityPageVisible,
		ActivityReadingSpeed, ActivityComprehensionCheck, ActivityPaste,
		ActivityNotesSave, ActivitySessionEnd:
		return true
	}
	return strings.HasPrefix(t, activityVideoPrefix)
}

// IsVideoActivity 视频交互事件（video_play、video_pause 等）按粗粒度点击计数
func IsVideoActivity(t string) bool {
	return strings.HasPrefix(t, activityVideoPrefix)
}

// ActivityEvent 客户端上报的一次交互记录，只追加不修改
type ActivityEvent struct {
	ID           uint   `gorm:"primaryKey"`
	StudentID    uint   `gorm:"index;type:bigint unsigned"`
	ResourceID   uint   `gorm:"index;type:bigint unsigned"`
	SessionID    *uint  `gorm:"index;type:bigint unsigned"`
	ActivityType string `gorm:"size:50;not null"`
	Data         string `gorm:"type:json"` // 原始负载，按收到的样子保存
	CreatedAt    time.Time
}

func (ActivityEvent) TableName() string {
	return "activity_events"
}
