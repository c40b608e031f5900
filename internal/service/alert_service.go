package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"student_engagement_backend/internal/config"
	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"
	"student_engagement_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AlertService 聚合更新后的阈值预警。
// 整条链路在主流程之外跑，任何失败只记日志，绝不影响打分和判卷。
type AlertService struct {
	AlertRepo  *repository.AlertRepository
	UserRepo   *repository.UserRepository
	PredictSvc *PredictionService
	Redis      *redis.Client
	Logger     *zap.Logger

	mu  sync.RWMutex
	cfg config.AlertConfig
}

func NewAlertService(
	alertRepo *repository.AlertRepository,
	userRepo *repository.UserRepository,
	predictSvc *PredictionService,
	rdb *redis.Client,
	cfg config.AlertConfig,
	logger *zap.Logger,
) *AlertService {
	return &AlertService{
		AlertRepo:  alertRepo,
		UserRepo:   userRepo,
		PredictSvc: predictSvc,
		Redis:      rdb,
		cfg:        cfg,
		Logger:     logger,
	}
}

// UpdateConfig 配置文件热更新时替换预警阈值
func (s *AlertService) UpdateConfig(cfg config.AlertConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *AlertService) config() config.AlertConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Evaluate 检查阈值并在后台发出预警，立即返回
func (s *AlertService) Evaluate(agg *model.EngagementAggregate) {
	snapshot := *agg
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.Logger.Error("alert evaluation panic", zap.Any("panic", r))
			}
		}()
		s.evaluate(&snapshot)
	}()
}

func (s *AlertService) evaluate(agg *model.EngagementAggregate) {
	student, err := s.UserRepo.FindByID(agg.StudentID)
	if err != nil || student.TeacherID == 0 {
		return
	}
	teacherID := student.TeacherID
	cfg := s.config()

	// 观察时间不足时分数天然偏低，不值得打扰教师
	if agg.TotalTimeSpent >= float64(cfg.MinObservedSeconds) &&
		agg.EngagementScore < cfg.LowEngagementScore {
		s.emit(cfg, teacherID, agg, model.AlertLowEngagement,
			fmt.Sprintf("%s 的参与度得分仅 %d，低于阈值 %d", student.Name, agg.EngagementScore, cfg.LowEngagementScore))
	}

	observed := agg.DistractionCount + agg.ReturnCount
	if observed >= 5 {
		ratio := float64(agg.DistractionCount) / float64(observed)
		if ratio >= cfg.DistractionRatio {
			s.emit(cfg, teacherID, agg, model.AlertHighDistraction,
				fmt.Sprintf("%s 频繁离开页面，分心占比 %.0f%%", student.Name, ratio*100))
		}
	}

	if s.PredictSvc != nil && agg.TotalTimeSpent >= float64(cfg.MinObservedSeconds) {
		pred := s.PredictSvc.PredictFromAggregate(agg)
		if pred.SuccessProbability < cfg.LowSuccessProb {
			s.emit(cfg, teacherID, agg, model.AlertLowPrediction,
				fmt.Sprintf("%s 的预测通过概率仅 %.0f%%，建议提前干预", student.Name, pred.SuccessProbability*100))
		}
	}
}

func (s *AlertService) emit(cfg config.AlertConfig, teacherID uint, agg *model.EngagementAggregate, kind, message string) {
	// 一小时内同类预警只发一次
	since := time.Now().Add(-time.Hour)
	if n, err := s.AlertRepo.CountRecentByKind(teacherID, agg.StudentID, agg.ResourceID, kind, since); err == nil && n > 0 {
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"engagement_score":  agg.EngagementScore,
		"total_time_spent":  agg.TotalTimeSpent,
		"distraction_count": agg.DistractionCount,
		"return_count":      agg.ReturnCount,
	})
	alert := &model.EngagementAlert{
		TeacherID:  teacherID,
		StudentID:  agg.StudentID,
		ResourceID: agg.ResourceID,
		Kind:       kind,
		Message:    message,
		Payload:    string(payload),
	}
	if err := s.AlertRepo.Create(alert); err != nil {
		s.Logger.Warn("alert persist failed", zap.String("kind", kind), zap.Error(err))
		return
	}
	monitoring.AlertCounter.WithLabelValues(kind).Inc()

	if s.Redis != nil {
		msg, _ := json.Marshal(alert)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.Redis.Publish(ctx, cfg.Channel, msg).Err(); err != nil {
			s.Logger.Warn("alert publish failed", zap.String("channel", cfg.Channel), zap.Error(err))
		}
	}
}

func (s *AlertService) ListForTeacher(teacherID uint, unreadOnly bool, limit int) ([]model.EngagementAlert, error) {
	return s.AlertRepo.ListByTeacher(teacherID, unreadOnly, limit)
}

func (s *AlertService) MarkRead(teacherID, alertID uint) error {
	return s.AlertRepo.MarkRead(teacherID, alertID)
}
