package service

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"

	"go.uber.org/zap"
)

// 推荐动作分档
const (
	ActionAdvance         = "advance"
	ActionPracticeRelated = "practice_related"
	ActionReviewPrereq    = "review_prerequisites"
)

// LogisticModel 三特征逻辑回归：[时长/120分钟, 测验分/100, 是否完成]
type LogisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func NewLogisticModel() *LogisticModel {
	return &LogisticModel{Weights: []float64{0, 0, 0}}
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

func (m *LogisticModel) PredictProba(row []float64) float64 {
	z := m.Bias
	for j := range m.Weights {
		if j < len(row) {
			z += m.Weights[j] * row[j]
		}
	}
	return sigmoid(z)
}

// Fit 批量梯度下降
func (m *LogisticModel) Fit(X [][]float64, y []float64, lr float64, epochs int) {
	if len(X) == 0 {
		return
	}
	n := len(X[0])
	samples := float64(len(X))
	w := append([]float64{}, m.Weights...)
	b := m.Bias
	for e := 0; e < epochs; e++ {
		dw := make([]float64, n)
		db := 0.0
		for i := range X {
			z := b
			for j := 0; j < n; j++ {
				z += w[j] * X[i][j]
			}
			err := sigmoid(z) - y[i]
			for j := 0; j < n; j++ {
				dw[j] += err * X[i][j] / samples
			}
			db += err / samples
		}
		for j := 0; j < n; j++ {
			w[j] -= lr * dw[j]
		}
		b -= lr * db
	}
	m.Weights = w
	m.Bias = b
}

func normalizeSessionRow(durationMinutes, quizScore, completed float64) []float64 {
	d := math.Max(0, math.Min(durationMinutes/120.0, 1.0))
	q := math.Max(0, math.Min(quizScore/100.0, 1.0))
	c := 0.0
	if completed >= 1.0 {
		c = 1.0
	}
	return []float64{d, q, c}
}

type TrainResult struct {
	Status   string   `json:"status"`
	Samples  int      `json:"samples"`
	Accuracy *float64 `json:"accuracy,omitempty"`
}

type Prediction struct {
	SuccessProbability float64 `json:"success_probability"`
	RecommendedAction  string  `json:"recommended_action"`
	Strategy           string  `json:"strategy"`
	ConfidenceLevel    string  `json:"confidence_level"`
	Timestamp          string  `json:"timestamp"`
}

type PredictionService struct {
	SessionRepo *repository.SessionRepository
	ModelPath   string
	Logger      *zap.Logger

	mu    sync.RWMutex
	model *LogisticModel
}

func NewPredictionService(sessionRepo *repository.SessionRepository, modelPath string, logger *zap.Logger) *PredictionService {
	s := &PredictionService{
		SessionRepo: sessionRepo,
		ModelPath:   modelPath,
		Logger:      logger,
	}
	if m, err := s.loadModel(); err == nil {
		s.model = m
	}
	return s
}

func (s *PredictionService) loadModel() (*LogisticModel, error) {
	data, err := os.ReadFile(s.ModelPath)
	if err != nil {
		return nil, err
	}
	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m.Weights) == 0 {
		m.Weights = []float64{0, 0, 0}
	}
	return &m, nil
}

func (s *PredictionService) saveModel(m *LogisticModel) error {
	if err := os.MkdirAll(filepath.Dir(s.ModelPath), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(s.ModelPath, data, 0o644)
}

// Train 用已完成的学习会话重训模型。
// 成功标准：测验分 >= 70 且完成。全同标签时退化为固定权重，
// 否则梯度下降拟合；样本数 >= 10 时给出留出集准确率。
func (s *PredictionService) Train() (*TrainResult, error) {
	sessions, err := s.SessionRepo.ListCompletedWithScore()
	if err != nil {
		return nil, err
	}

	var X [][]float64
	var y []float64
	for _, sess := range sessions {
		quiz := 0.0
		if sess.QuizScore != nil {
			quiz = *sess.QuizScore
		}
		completed := 0.0
		if sess.Completed {
			completed = 1.0
		}
		X = append(X, normalizeSessionRow(float64(sess.Duration)/60.0, quiz, completed))
		if quiz >= 70.0 && sess.Completed {
			y = append(y, 1.0)
		} else {
			y = append(y, 0.0)
		}
	}

	m := NewLogisticModel()
	if len(X) == 0 {
		if err := s.saveModel(m); err != nil {
			return nil, err
		}
		s.setModel(m)
		return &TrainResult{Status: "no_data", Samples: 0}, nil
	}

	allZero, allOne := true, true
	for _, v := range y {
		if v == 0 {
			allOne = false
		} else {
			allZero = false
		}
	}
	if allZero || allOne {
		// 标签单一无法拟合，用经验权重兜底
		m.Weights = []float64{0.2, 0.7, 0.1}
		m.Bias = 0.5
		if allZero {
			m.Bias = -0.5
		}
	} else {
		m.Fit(X, y, 0.1, 1500)
	}

	if err := s.saveModel(m); err != nil {
		return nil, err
	}
	s.setModel(m)

	result := &TrainResult{Status: "trained", Samples: len(X)}
	if len(X) >= 10 && !allZero && !allOne {
		split := int(0.8 * float64(len(X)))
		testX, testY := X[split:], y[split:]
		correct := 0
		for i := range testX {
			cls := 0.0
			if m.PredictProba(testX[i]) >= 0.5 {
				cls = 1.0
			}
			if cls == testY[i] {
				correct++
			}
		}
		if len(testY) > 0 {
			acc := float64(correct) / float64(len(testY))
			result.Accuracy = &acc
		}
	}
	s.Logger.Info("prediction model trained",
		zap.Int("samples", result.Samples),
		zap.String("status", result.Status))
	return result, nil
}

func (s *PredictionService) setModel(m *LogisticModel) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

func (s *PredictionService) currentModel() *LogisticModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// Recommend 按学习摘要给教师推荐下一步动作。
// 模型不可用时退化为加权启发式。
func (s *PredictionService) Recommend(durationMinutes, quizScore float64, completed bool) *Prediction {
	c := 0.0
	if completed {
		c = 1.0
	}

	var proba float64
	if m := s.currentModel(); m != nil {
		proba = m.PredictProba(normalizeSessionRow(durationMinutes, quizScore, c))
	} else {
		base := 0.7*math.Min(math.Max(quizScore/100.0, 0), 1) +
			0.2*math.Min(math.Max(durationMinutes/120.0, 0), 1) +
			0.1*c
		proba = math.Min(math.Max(base, 0), 1)
	}

	var action, strategy string
	switch {
	case proba >= 0.8:
		action = ActionAdvance
		strategy = "Assign more challenging resources and a new assignment."
	case proba >= 0.5:
		action = ActionPracticeRelated
		strategy = "Assign similar practice resources and targeted quiz questions."
	default:
		action = ActionReviewPrereq
		strategy = "Recommend prerequisite materials and shorter practice sessions before reassessment."
	}

	confidence := "Low"
	if proba >= 0.8 || proba <= 0.2 {
		confidence = "High"
	} else if proba >= 0.6 || proba <= 0.4 {
		confidence = "Medium"
	}

	return &Prediction{
		SuccessProbability: proba,
		RecommendedAction:  action,
		Strategy:           strategy,
		ConfidenceLevel:    confidence,
		Timestamp:          time.Now().Format("January 02, 2006 at 3:04 PM"),
	}
}

// EnhancedPrediction 用行为聚合特征做的细粒度预测
type EnhancedPrediction struct {
	PredictedScore     float64                `json:"predicted_score"`
	SuccessProbability float64                `json:"success_probability"`
	Confidence         float64                `json:"confidence_level"`
	Factors            map[string]interface{} `json:"factors"`
}

// PredictFromAggregate 基于参与度聚合指标预测测验得分和成功概率。
// 没有可用模型时返回置信度很低的中性预测。
func (s *PredictionService) PredictFromAggregate(agg *model.EngagementAggregate) *EnhancedPrediction {
	totalTime := agg.TotalTimeSpent
	focusRatio := 0.0
	if totalTime > 0 {
		focusRatio = agg.FocusTime / totalTime
	}

	m := s.currentModel()
	if m == nil {
		return &EnhancedPrediction{
			PredictedScore:     50.0,
			SuccessProbability: 0.5,
			Confidence:         0.3,
			Factors:            aggregateFactors(agg, focusRatio),
		}
	}

	row := []float64{
		math.Min(totalTime/3600.0, 1.0),
		float64(agg.EngagementScore) / 100.0,
		focusRatio,
	}
	proba := m.PredictProba(row)

	score := proba * 100
	switch {
	case agg.EngagementScore > 80:
		score += 10
	case agg.EngagementScore > 60:
		score += 5
	case agg.EngagementScore < 30:
		score -= 10
	}
	if focusRatio > 0.8 {
		score += 5
	} else if focusRatio < 0.4 {
		score -= 5
	}
	if agg.ScrollDepth > 80 {
		score += 5
	} else if agg.ScrollDepth < 30 {
		score -= 5
	}
	if agg.ReadingSpeed > 200 {
		score += 3
	} else if agg.ReadingSpeed > 0 && agg.ReadingSpeed < 100 {
		score -= 3
	}
	if agg.ComprehensionScore > 80 {
		score += 5
	} else if agg.ComprehensionScore > 0 && agg.ComprehensionScore < 50 {
		score -= 5
	}
	score = math.Max(0, math.Min(100, score))

	return &EnhancedPrediction{
		PredictedScore:     score,
		SuccessProbability: proba,
		Confidence:         predictionConfidence(agg, focusRatio),
		Factors:            aggregateFactors(agg, focusRatio),
	}
}

func aggregateFactors(agg *model.EngagementAggregate, focusRatio float64) map[string]interface{} {
	return map[string]interface{}{
		"engagement_score":    agg.EngagementScore,
		"focus_time_ratio":    focusRatio,
		"scroll_depth":        agg.ScrollDepth,
		"attention_span":      agg.AttentionSpan,
		"reading_speed":       agg.ReadingSpeed,
		"comprehension_score": agg.ComprehensionScore,
	}
}

// predictionConfidence 按特征完整程度估计置信度
func predictionConfidence(agg *model.EngagementAggregate, focusRatio float64) float64 {
	var factors []float64

	switch {
	case agg.TotalTimeSpent > 300:
		factors = append(factors, 0.8)
	case agg.TotalTimeSpent > 60:
		factors = append(factors, 0.6)
	default:
		factors = append(factors, 0.3)
	}

	switch {
	case agg.EngagementScore > 70:
		factors = append(factors, 0.9)
	case agg.EngagementScore > 50:
		factors = append(factors, 0.7)
	case agg.EngagementScore > 30:
		factors = append(factors, 0.5)
	default:
		factors = append(factors, 0.3)
	}

	switch {
	case focusRatio > 0.8:
		factors = append(factors, 0.9)
	case focusRatio > 0.6:
		factors = append(factors, 0.7)
	case focusRatio > 0.4:
		factors = append(factors, 0.5)
	default:
		factors = append(factors, 0.3)
	}

	switch {
	case agg.ScrollDepth > 80:
		factors = append(factors, 0.8)
	case agg.ScrollDepth > 50:
		factors = append(factors, 0.6)
	case agg.ScrollDepth > 20:
		factors = append(factors, 0.4)
	default:
		factors = append(factors, 0.2)
	}

	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	return sum / float64(len(factors))
}

// ModelInfo 教师端查看模型状态
func (s *PredictionService) ModelInfo() map[string]interface{} {
	m := s.currentModel()
	if m == nil {
		return map[string]interface{}{"status": "not_trained", "training_samples": 0}
	}
	return map[string]interface{}{
		"status":  "trained",
		"weights": m.Weights,
		"bias":    m.Bias,
		"path":    s.ModelPath,
	}
}
