package service

import (
	"context"
	"testing"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newEngagementServiceForTest(db *gorm.DB) *EngagementService {
	return NewEngagementService(
		db,
		repository.NewActivityRepository(db),
		repository.NewEngagementRepository(db),
		repository.NewSessionRepository(db),
		repository.NewResourceRepository(db),
		nil, nil, zap.NewNop(),
	)
}

func TestTrackActivityPersistsEventAndAggregateTogether(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newEngagementServiceForTest(db)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.TrackActivity(ctx, f.Student.ID, TrackActivityRequest{
			ResourceID:   f.Resource.ID,
			ActivityType: model.ActivityClick,
		}); err != nil {
			t.Fatalf("track click: %v", err)
		}
	}
	if _, err := svc.TrackActivity(ctx, f.Student.ID, TrackActivityRequest{
		ResourceID:   f.Resource.ID,
		ActivityType: model.ActivityCursorMove,
	}); err != nil {
		t.Fatalf("track cursor_move: %v", err)
	}

	// 无会话事件共享 session_id=0 的同一行，不得越写越多
	var aggCount int64
	if err := db.Model(&model.EngagementAggregate{}).Count(&aggCount).Error; err != nil {
		t.Fatalf("count aggregates: %v", err)
	}
	if aggCount != 1 {
		t.Fatalf("aggregate rows = %d, want 1", aggCount)
	}

	var agg model.EngagementAggregate
	if err := db.Where("student_id = ? AND resource_id = ? AND session_id = ?",
		f.Student.ID, f.Resource.ID, 0).First(&agg).Error; err != nil {
		t.Fatalf("load aggregate: %v", err)
	}
	if agg.Clicks != 2 || agg.CursorMovements != 1 {
		t.Fatalf("clicks=%d cursor=%d, want 2/1", agg.Clicks, agg.CursorMovements)
	}

	var eventCount int64
	if err := db.Model(&model.ActivityEvent{}).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 3 {
		t.Fatalf("event rows = %d, want 3", eventCount)
	}
}

func TestTrackActivityUnknownResourceWritesNothing(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newEngagementServiceForTest(db)

	_, err := svc.TrackActivity(context.Background(), f.Student.ID, TrackActivityRequest{
		ResourceID:   9999,
		ActivityType: model.ActivityClick,
	})
	if err == nil {
		t.Fatal("unknown resource must reject the event")
	}

	var eventCount int64
	if err := db.Model(&model.ActivityEvent{}).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 0 {
		t.Fatalf("rejected track left %d events, want 0", eventCount)
	}
}

func TestTrackActivityVocabularyGapStoresEventOnly(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newEngagementServiceForTest(db)
	ctx := context.Background()

	if _, err := svc.TrackActivity(ctx, f.Student.ID, TrackActivityRequest{
		ResourceID:   f.Resource.ID,
		ActivityType: model.ActivityClick,
	}); err != nil {
		t.Fatalf("track click: %v", err)
	}
	if _, err := svc.TrackActivity(ctx, f.Student.ID, TrackActivityRequest{
		ResourceID:   f.Resource.ID,
		ActivityType: "experimental_gesture",
	}); err != nil {
		t.Fatalf("track unknown type: %v", err)
	}

	var agg model.EngagementAggregate
	if err := db.First(&agg).Error; err != nil {
		t.Fatalf("load aggregate: %v", err)
	}
	if agg.Clicks != 1 {
		t.Fatalf("unknown type must not touch counters, clicks=%d", agg.Clicks)
	}

	var eventCount int64
	if err := db.Model(&model.ActivityEvent{}).Count(&eventCount).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if eventCount != 2 {
		t.Fatalf("event rows = %d, want 2", eventCount)
	}
}
