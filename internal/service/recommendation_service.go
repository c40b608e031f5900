package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"student_engagement_backend/internal/config"

	"go.uber.org/zap"
)

// RecommendationService 会话定稿后生成一句学习建议。
// 外部模型可用时走 chat completions，失败或未配置时退化为分数分档文案。
type RecommendationService struct {
	Cfg    config.AIConfig
	Client *http.Client
	Logger *zap.Logger
}

func NewRecommendationService(cfg config.AIConfig, logger *zap.Logger) *RecommendationService {
	return &RecommendationService{
		Cfg:    cfg,
		Client: &http.Client{Timeout: 8 * time.Second},
		Logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate 根据最终得分和学习时长产出推荐文案
func (s *RecommendationService) Generate(score float64, durationSeconds int) string {
	if s.Cfg.APIKey != "" && s.Cfg.BaseURL != "" {
		if text, err := s.generateRemote(score, durationSeconds); err == nil && text != "" {
			return text
		} else if err != nil {
			s.Logger.Warn("recommendation model call failed, using banded fallback", zap.Error(err))
		}
	}
	return bandedRecommendation(score)
}

func (s *RecommendationService) generateRemote(score float64, durationSeconds int) (string, error) {
	prompt := fmt.Sprintf(
		"一名学生刚完成一次测验，得分 %.0f 分（满分 100），学习用时 %d 分钟。"+
			"请用一两句话给出下一步学习建议，直接输出建议本身。",
		score, durationSeconds/60)

	reqBody := map[string]interface{}{
		"model": s.Cfg.Model,
		"messages": []chatMessage{
			{Role: "system", Content: "你是一个学习平台的助教，负责给学生简短、具体的学习建议。"},
			{Role: "user", Content: prompt},
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", s.Cfg.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Cfg.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// bandedRecommendation 离线分档文案，分档本身是契约，措辞不是
func bandedRecommendation(score float64) string {
	switch {
	case score >= 90:
		return "Excellent work. You have mastered this material and are ready to move on."
	case score >= 70:
		return "Good result. Review the questions you missed before moving on."
	case score >= 50:
		return "You are getting there. Revisit this resource and retry the weaker sections."
	default:
		return "This topic needs significant review. Work through the material again and ask your teacher for help."
	}
}
