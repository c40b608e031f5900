package service

import (
	"math"
	"testing"

	"student_engagement_backend/internal/model"

	"go.uber.org/zap"
)

func TestNormalizeSessionRow(t *testing.T) {
	tests := []struct {
		name                           string
		duration, quiz, completed      float64
		wantD, wantQ, wantC            float64
	}{
		{"mid range", 60, 50, 1, 0.5, 0.5, 1},
		{"clamped high", 500, 150, 1, 1, 1, 1},
		{"clamped low", -10, -5, 0, 0, 0, 0},
		{"partial completion flag", 30, 80, 0.5, 0.25, 0.8, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := normalizeSessionRow(tt.duration, tt.quiz, tt.completed)
			if row[0] != tt.wantD || row[1] != tt.wantQ || row[2] != tt.wantC {
				t.Fatalf("row = %v, want [%v %v %v]", row, tt.wantD, tt.wantQ, tt.wantC)
			}
		})
	}
}

func TestLogisticModelFit(t *testing.T) {
	// 线性可分的玩具数据：测验分高即成功
	var X [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		q := float64(i) / 20.0
		X = append(X, []float64{0.5, q, 1})
		if q >= 0.5 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	m := NewLogisticModel()
	m.Fit(X, y, 0.5, 2000)

	low := m.PredictProba([]float64{0.5, 0.1, 1})
	high := m.PredictProba([]float64{0.5, 0.9, 1})
	if high <= low {
		t.Fatalf("高分样本概率 %v 应当大于低分样本概率 %v", high, low)
	}
	if high < 0.5 {
		t.Fatalf("明显成功的样本概率过低: %v", high)
	}
}

func TestLogisticModelPredictRange(t *testing.T) {
	m := &LogisticModel{Weights: []float64{0.2, 0.7, 0.1}, Bias: 0.5}
	for _, row := range [][]float64{{0, 0, 0}, {1, 1, 1}, {0.5, 0.3, 1}} {
		p := m.PredictProba(row)
		if p <= 0 || p >= 1 {
			t.Fatalf("PredictProba(%v) = %v out of (0,1)", row, p)
		}
	}
}

func TestRecommendHeuristicFallback(t *testing.T) {
	// 未训练时走加权启发式
	svc := &PredictionService{Logger: zap.NewNop()}

	tests := []struct {
		name       string
		duration   float64
		quiz       float64
		completed  bool
		wantAction string
	}{
		{"strong performer advances", 120, 100, true, ActionAdvance},
		{"middling gets practice", 60, 60, true, ActionPracticeRelated},
		{"weak reviews prerequisites", 10, 20, false, ActionReviewPrereq},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred := svc.Recommend(tt.duration, tt.quiz, tt.completed)
			if pred.RecommendedAction != tt.wantAction {
				t.Fatalf("action = %q (proba %v), want %q", pred.RecommendedAction, pred.SuccessProbability, tt.wantAction)
			}
			if pred.Strategy == "" || pred.ConfidenceLevel == "" || pred.Timestamp == "" {
				t.Fatal("prediction fields must be populated")
			}
		})
	}
}

func TestRecommendConfidenceBands(t *testing.T) {
	svc := &PredictionService{Logger: zap.NewNop()}

	// quiz=100, duration=120, completed → proba = 0.7+0.2+0.1 = 1.0
	if pred := svc.Recommend(120, 100, true); pred.ConfidenceLevel != "High" {
		t.Fatalf("proba %v confidence = %q, want High", pred.SuccessProbability, pred.ConfidenceLevel)
	}
	// proba = 0.7*0.5 = 0.35 → Medium（<= 0.4）
	if pred := svc.Recommend(0, 50, false); pred.ConfidenceLevel != "Medium" {
		t.Fatalf("proba %v confidence = %q, want Medium", pred.SuccessProbability, pred.ConfidenceLevel)
	}
	// proba = 0.7*0.65 = 0.455 → Low
	if pred := svc.Recommend(0, 65, false); pred.ConfidenceLevel != "Low" {
		t.Fatalf("proba %v confidence = %q, want Low", pred.SuccessProbability, pred.ConfidenceLevel)
	}
}

func TestPredictFromAggregateWithoutModel(t *testing.T) {
	svc := &PredictionService{Logger: zap.NewNop()}

	pred := svc.PredictFromAggregate(&model.EngagementAggregate{TotalTimeSpent: 600, FocusTime: 300})
	if pred.PredictedScore != 50 || pred.SuccessProbability != 0.5 {
		t.Fatalf("neutral prediction = %v/%v, want 50/0.5", pred.PredictedScore, pred.SuccessProbability)
	}
	if pred.Confidence >= 0.5 {
		t.Fatalf("no-model confidence = %v, should stay low", pred.Confidence)
	}
}

func TestPredictFromAggregateAdjustments(t *testing.T) {
	svc := &PredictionService{Logger: zap.NewNop()}
	svc.setModel(&LogisticModel{Weights: []float64{0.2, 0.7, 0.1}, Bias: 0.5})

	strong := svc.PredictFromAggregate(&model.EngagementAggregate{
		TotalTimeSpent:     3600,
		FocusTime:          3300,
		EngagementScore:    90,
		ScrollDepth:        95,
		ReadingSpeed:       220,
		ComprehensionScore: 90,
	})
	weak := svc.PredictFromAggregate(&model.EngagementAggregate{
		TotalTimeSpent:  120,
		FocusTime:       20,
		EngagementScore: 15,
		ScrollDepth:     10,
	})

	if strong.PredictedScore <= weak.PredictedScore {
		t.Fatalf("strong %v should outscore weak %v", strong.PredictedScore, weak.PredictedScore)
	}
	for _, p := range []*EnhancedPrediction{strong, weak} {
		if p.PredictedScore < 0 || p.PredictedScore > 100 {
			t.Fatalf("predicted score %v out of [0,100]", p.PredictedScore)
		}
		if p.Confidence < 0 || p.Confidence > 1 {
			t.Fatalf("confidence %v out of [0,1]", p.Confidence)
		}
	}
	if strong.Confidence <= weak.Confidence {
		t.Fatalf("richer features should yield higher confidence: %v vs %v", strong.Confidence, weak.Confidence)
	}
}

func TestPredictionConfidenceMonotonic(t *testing.T) {
	full := predictionConfidence(&model.EngagementAggregate{
		TotalTimeSpent:  600,
		EngagementScore: 85,
		ScrollDepth:     90,
	}, 0.9)
	sparse := predictionConfidence(&model.EngagementAggregate{}, 0)
	if full <= sparse {
		t.Fatalf("confidence %v should exceed %v", full, sparse)
	}
	if math.Abs(sparse-0.275) > 1e-9 {
		t.Fatalf("sparse confidence = %v, want 0.275", sparse)
	}
}
