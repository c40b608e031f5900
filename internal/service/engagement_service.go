package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"
	"student_engagement_backend/internal/util"
	"student_engagement_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type EngagementService struct {
	DB             *gorm.DB
	ActivityRepo   *repository.ActivityRepository
	EngagementRepo *repository.EngagementRepository
	SessionRepo    *repository.SessionRepository
	ResourceRepo   *repository.ResourceRepository
	AlertSvc       *AlertService
	Redis          *redis.Client
	Logger         *zap.Logger
}

func NewEngagementService(
	db *gorm.DB,
	activityRepo *repository.ActivityRepository,
	engagementRepo *repository.EngagementRepository,
	sessionRepo *repository.SessionRepository,
	resourceRepo *repository.ResourceRepository,
	alertSvc *AlertService,
	rdb *redis.Client,
	logger *zap.Logger,
) *EngagementService {
	return &EngagementService{
		DB:             db,
		ActivityRepo:   activityRepo,
		EngagementRepo: engagementRepo,
		SessionRepo:    sessionRepo,
		ResourceRepo:   resourceRepo,
		AlertSvc:       alertSvc,
		Redis:          rdb,
		Logger:         logger,
	}
}

type TrackActivityRequest struct {
	ResourceID   uint                   `json:"resource_id" binding:"required"`
	SessionID    *uint                  `json:"session_id"`
	ActivityType string                 `json:"activity_type" binding:"required"`
	Data         map[string]interface{} `json:"data"`
}

type TrackActivityResult struct {
	EngagementScore int
}

// TrackActivity 落一条活动事件并滚动更新聚合。
// 资源不存在或活动类型为空时整体拒绝，不产生任何写入；
// 词表外的类型照常存事件但不动聚合。
func (s *EngagementService) TrackActivity(ctx context.Context, studentID uint, req TrackActivityRequest) (*TrackActivityResult, error) {
	if req.ActivityType == "" {
		return nil, util.ErrUnknownActivity
	}
	if _, err := s.ResourceRepo.FindByID(req.ResourceID); err != nil {
		return nil, util.ErrResourceNotFound
	}

	// 客户端带来的 session_id 必须指向本人未完成的会话，否则按无会话处理
	sessionID := req.SessionID
	var sessionStart *time.Time
	if sessionID != nil {
		sess, err := s.SessionRepo.FindByID(*sessionID)
		if err != nil || sess.StudentID != studentID || sess.Completed {
			sessionID = nil
		} else {
			sessionStart = &sess.StartTime
		}
	}

	raw, err := json.Marshal(req.Data)
	if err != nil {
		raw = []byte("{}")
	}
	event := &model.ActivityEvent{
		StudentID:    studentID,
		ResourceID:   req.ResourceID,
		SessionID:    sessionID,
		ActivityType: req.ActivityType,
		Data:         string(raw),
	}
	aggSession := uint(0)
	if sessionID != nil {
		aggSession = *sessionID
	}

	// 事件落库和聚合更新必须同生共死，聚合行加锁防并发丢增量
	var agg *model.EngagementAggregate
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.ActivityRepo.Create(tx, event); err != nil {
			return err
		}
		a, err := s.EngagementRepo.FindOrCreateForUpdate(tx, studentID, req.ResourceID, aggSession)
		if err != nil {
			return err
		}
		if model.KnownActivityType(req.ActivityType) {
			applyEvent(a, req.ActivityType, req.Data, sessionStart, time.Now())
		}
		a.EngagementScore = ComputeEngagementScore(a)
		if err := tx.Save(a).Error; err != nil {
			return err
		}
		agg = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.ActivityEventCounter.WithLabelValues(req.ActivityType).Inc()

	s.cacheScore(ctx, agg)
	if s.AlertSvc != nil {
		s.AlertSvc.Evaluate(agg)
	}

	return &TrackActivityResult{EngagementScore: agg.EngagementScore}, nil
}

// applyEvent 按事件类型的固定规则更新聚合。
// 负载字段类型不对时只跳过该项更新，其余照常。
func applyEvent(agg *model.EngagementAggregate, activityType string, data map[string]interface{}, sessionStart *time.Time, now time.Time) {
	switch activityType {
	case model.ActivityTimeSpent:
		if d, ok := payloadFloat(data, "duration"); ok {
			agg.TotalTimeSpent += d
		}
	case model.ActivityFocusTime:
		if d, ok := payloadFloat(data, "duration"); ok {
			agg.FocusTime += d
		}
	case model.ActivityIdleTime:
		if d, ok := payloadFloat(data, "duration"); ok {
			agg.IdleTime += d
		}
	case model.ActivityScroll:
		if depth, ok := payloadFloat(data, "max_scroll_depth", "scroll_percentage", "percentage"); ok {
			agg.ScrollDepth = math.Max(agg.ScrollDepth, depth)
		}
	case model.ActivityCursorMove:
		agg.CursorMovements++
	case model.ActivityClick:
		agg.Clicks++
	case model.ActivityPageHidden:
		agg.DistractionCount++
	case model.ActivityPageVisible:
		agg.ReturnCount++
	case model.ActivityReadingSpeed:
		if wpm, ok := payloadFloat(data, "wpm", "reading_speed"); ok {
			agg.ReadingSpeed = wpm
		}
	case model.ActivityComprehensionCheck:
		if score, ok := payloadFloat(data, "score"); ok {
			agg.ComprehensionScore = score
		}
	case model.ActivitySessionEnd:
		applySessionEnd(agg, data, sessionStart, now)
	case model.ActivityPaste, model.ActivityNotesSave:
		// 记录即可，不参与聚合
	default:
		if model.IsVideoActivity(activityType) {
			agg.Clicks++
		}
	}
}

// applySessionEnd 用客户端的收尾快照整体覆盖累计字段。
// 三个时间字段额外钳制到会话真实流逝时长，防御客户端时钟漂移或重复累计。
func applySessionEnd(agg *model.EngagementAggregate, data map[string]interface{}, sessionStart *time.Time, now time.Time) {
	elapsed := math.Inf(1)
	if sessionStart != nil {
		elapsed = math.Max(0, now.Sub(*sessionStart).Seconds())
	}

	if v, ok := payloadFloat(data, "total_time_spent"); ok {
		agg.TotalTimeSpent = math.Min(v, elapsed)
	}
	if v, ok := payloadFloat(data, "total_focus_time", "focus_time"); ok {
		agg.FocusTime = math.Min(v, elapsed)
	}
	if v, ok := payloadFloat(data, "total_idle_time", "idle_time"); ok {
		agg.IdleTime = math.Min(v, elapsed)
	}
	if v, ok := payloadFloat(data, "max_scroll_depth"); ok {
		agg.ScrollDepth = v
	}
	if v, ok := payloadFloat(data, "total_cursor_movements"); ok {
		agg.CursorMovements = int(v)
	}
	if v, ok := payloadFloat(data, "total_clicks"); ok {
		agg.Clicks = int(v)
	}
	if v, ok := payloadFloat(data, "distraction_count"); ok {
		agg.DistractionCount = int(v)
	}
	if v, ok := payloadFloat(data, "return_count"); ok {
		agg.ReturnCount = int(v)
	}
	if v, ok := payloadFloat(data, "avg_attention_span"); ok {
		agg.AttentionSpan = v
	}
}

// payloadFloat 按候选键依次取数值字段，JSON 数字或数字字符串都接受
func payloadFloat(data map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, exists := data[key]
		if !exists {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case int:
			return float64(n), true
		case json.Number:
			if f, err := n.Float64(); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// ComputeEngagementScore 五段封顶求和的参与度评分，范围 [0,100]。
// 时长 25 分、专注占比 25 分、交互 20 分、滚动 15 分、注意力 15 分。
func ComputeEngagementScore(agg *model.EngagementAggregate) int {
	timeComp := math.Min(25, agg.TotalTimeSpent/60.0*2)

	focusComp := 0.0
	if agg.TotalTimeSpent > 0 {
		focusComp = math.Min(25, agg.FocusTime/agg.TotalTimeSpent*25)
	}

	interactComp := math.Min(20, float64(agg.Clicks)*2+float64(agg.CursorMovements)/10.0)

	scrollComp := math.Min(15, agg.ScrollDepth*0.15)

	attentionComp := 15.0
	if agg.DistractionCount > 0 {
		total := float64(agg.DistractionCount + agg.ReturnCount)
		attentionComp = math.Min(15, float64(agg.ReturnCount)/total*15)
	}

	score := timeComp + focusComp + interactComp + scrollComp + attentionComp
	return int(math.Max(0, math.Min(100, score)))
}

func (s *EngagementService) cacheScore(ctx context.Context, agg *model.EngagementAggregate) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf("engagement:score:%d:%d", agg.StudentID, agg.ResourceID)
	if err := s.Redis.Set(ctx, key, agg.EngagementScore, 10*time.Minute).Err(); err != nil {
		s.Logger.Warn("engagement score cache write failed", zap.Error(err))
	}
}

// ResourceOverview 教师端按资源查看每个学生的聚合与得分
func (s *EngagementService) ResourceOverview(resourceID uint) ([]model.EngagementAggregate, error) {
	return s.EngagementRepo.ListByResource(resourceID)
}

func (s *EngagementService) StudentAggregates(studentID uint) ([]model.EngagementAggregate, error) {
	return s.EngagementRepo.ListByStudent(studentID)
}

// SessionEvents 教师回看一次会话的原始事件流，仅资源上传者可见
func (s *EngagementService) SessionEvents(teacherID, sessionID uint) ([]model.ActivityEvent, error) {
	sess, err := s.SessionRepo.FindByID(sessionID)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}
	resource, err := s.ResourceRepo.FindByID(sess.ResourceID)
	if err != nil {
		return nil, util.ErrResourceNotFound
	}
	if resource.UploaderID != teacherID {
		return nil, util.ErrPermissionDenied
	}
	return s.ActivityRepo.ListBySession(sessionID)
}
