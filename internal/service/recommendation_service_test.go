package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"student_engagement_backend/internal/config"

	"go.uber.org/zap"
)

func TestBandedRecommendation(t *testing.T) {
	// 分档边界是契约，具体措辞不是，所以只校验档位互不相同
	bands := []struct {
		score float64
		band  string
	}{
		{100, bandedRecommendation(95)},
		{90, bandedRecommendation(90)},
		{89, bandedRecommendation(75)},
		{70, bandedRecommendation(70)},
		{69, bandedRecommendation(55)},
		{50, bandedRecommendation(50)},
		{49, bandedRecommendation(10)},
		{0, bandedRecommendation(0)},
	}
	if bands[0].band != bands[1].band {
		t.Fatal("95 and 90 must land in the same band")
	}
	if bands[2].band != bands[3].band || bands[4].band != bands[5].band || bands[6].band != bands[7].band {
		t.Fatal("scores within a band must produce the same text")
	}
	seen := map[string]bool{bands[0].band: true, bands[2].band: true, bands[4].band: true, bands[6].band: true}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct bands, got %d", len(seen))
	}
}

func TestGenerateFallsBackWithoutConfig(t *testing.T) {
	svc := NewRecommendationService(config.AIConfig{}, zap.NewNop())
	if got := svc.Generate(85, 1200); got != bandedRecommendation(85) {
		t.Fatalf("unconfigured service must use banded fallback, got %q", got)
	}
}

func TestGenerateUsesRemoteModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"继续保持，建议进入下一章。"}}]}`))
	}))
	defer server.Close()

	svc := NewRecommendationService(config.AIConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	}, zap.NewNop())

	if got := svc.Generate(92, 600); got != "继续保持，建议进入下一章。" {
		t.Fatalf("Generate = %q, want remote content", got)
	}
}

func TestGenerateFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewRecommendationService(config.AIConfig{BaseURL: server.URL, APIKey: "k"}, zap.NewNop())
	if got := svc.Generate(40, 300); got != bandedRecommendation(40) {
		t.Fatalf("server error must fall back to banded text, got %q", got)
	}
}
