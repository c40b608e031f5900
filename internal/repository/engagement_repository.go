package repository

import (
	"errors"

	"student_engagement_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository struct {
	DB *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{DB: db}
}

// Create 活动事件只追加。与聚合更新同属一个事务，由调用方传入 tx。
func (r *ActivityRepository) Create(tx *gorm.DB, ev *model.ActivityEvent) error {
	return tx.Create(ev).Error
}

func (r *ActivityRepository) ListBySession(sessionID uint) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	err := r.DB.Where("session_id = ?", sessionID).Order("created_at asc").Find(&events).Error
	return events, err
}

type EngagementRepository struct {
	DB *gorm.DB
}

func NewEngagementRepository(db *gorm.DB) *EngagementRepository {
	return &EngagementRepository{DB: db}
}

// lockForUpdate 仅对 MySQL 附加行锁，SQLite 不支持 FOR UPDATE，
// 其写入本身串行。
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// FindOrCreateForUpdate 在事务内按 (学生, 资源, 会话) 行锁取聚合，
// 不存在则以零值计数器创建。sessionID 为 0 表示无会话聚合。
func (r *EngagementRepository) FindOrCreateForUpdate(tx *gorm.DB, studentID, resourceID, sessionID uint) (*model.EngagementAggregate, error) {
	var agg model.EngagementAggregate
	err := lockForUpdate(tx).
		Where("student_id = ? AND resource_id = ? AND session_id = ?", studentID, resourceID, sessionID).
		First(&agg).Error
	if err == nil {
		return &agg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	agg = model.EngagementAggregate{
		StudentID:  studentID,
		ResourceID: resourceID,
		SessionID:  sessionID,
	}
	if createErr := tx.Create(&agg).Error; createErr != nil {
		// 并发首事件撞唯一索引时，改为锁定赢家刚建的行
		if err := lockForUpdate(tx).
			Where("student_id = ? AND resource_id = ? AND session_id = ?", studentID, resourceID, sessionID).
			First(&agg).Error; err != nil {
			return nil, createErr
		}
	}
	return &agg, nil
}

func (r *EngagementRepository) ListByResource(resourceID uint) ([]model.EngagementAggregate, error) {
	var aggs []model.EngagementAggregate
	err := r.DB.Where("resource_id = ?", resourceID).Find(&aggs).Error
	return aggs, err
}

func (r *EngagementRepository) ListByStudent(studentID uint) ([]model.EngagementAggregate, error) {
	var aggs []model.EngagementAggregate
	err := r.DB.Where("student_id = ?", studentID).Order("updated_at desc").Find(&aggs).Error
	return aggs, err
}
