package model

import (
	"time"
)

type UserRole string

const (
	Student UserRole = "student"
	Teacher UserRole = "teacher"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name      string   `gorm:"size:100;not null" json:"Name"`
	Email     string   `gorm:"size:100;unique;not null" json:"Email"`
	Password  string   `gorm:"size:100;not null" json:"-"`
	Role      UserRole `gorm:"type:enum('student','teacher','admin');default:'student'" json:"Role"`
	ClassName string   `gorm:"size:50" json:"ClassName"` // 班级，用于资源的隐式授权
	Grade     string   `gorm:"size:20" json:"Grade"`
	TeacherID uint     `gorm:"index;type:bigint unsigned" json:"TeacherID"` // 所属教师
	Language  string   `gorm:"size:10;default:'en'" json:"Language"`
	Avatar    string   `gorm:"size:255" json:"avatar"`
	Disabled  bool     `gorm:"default:false" json:"Disabled"`
	// 学生是否开启AI学习建议
	AIRecommendEnabled bool      `gorm:"default:true" json:"aiRecommendEnabled"`
	LastLogin          time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"LastLogin"`
	LastSeen           time.Time `gorm:"default:CURRENT_TIMESTAMP(3)" json:"LastSeen"`
}

func (User) TableName() string {
	return "users"
}
