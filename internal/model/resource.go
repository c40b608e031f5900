package model

type ResourceType string

const (
	PDF     ResourceType = "pdf"
	Video   ResourceType = "video"
	Article ResourceType = "article"
	Quiz    ResourceType = "quiz"
)

// Resource represents a learning resource students study and take quizzes on
// swagger:model Resource
type Resource struct {
	BaseModel
	Title       string       `gorm:"size:255;not null"`
	Description string       `gorm:"type:text"`
	Type        ResourceType `gorm:"type:enum('pdf','video','article','quiz');not null"`
	URL         string       `gorm:"size:255"`
	UploaderID  uint         `gorm:"index;type:bigint unsigned"`
	ClassName   string       `gorm:"size:50"` // 面向的班级，空表示所有班级可见
	Grade       string       `gorm:"size:20"`
	ViewCount   int          `gorm:"column:view_count;default:0"`
	Duration    float64      `gorm:"column:duration;default:0"` // 视频时长（秒）
	Size        int64        `gorm:"column:size;default:0"`     // 文件大小（字节）
	Format      string       `gorm:"size:50"`
	Thumbnail   string       `gorm:"size:255"`
}

func (Resource) TableName() string {
	return "resources"
}
