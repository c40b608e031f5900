package service

import (
	"fmt"
	"strings"

	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"

	"go.uber.org/zap"
)

// 相似度分档阈值
const (
	SimilarityHigh    = 0.85
	SimilarityNotable = 0.70
)

type SimilarityService struct {
	AnswerRepo *repository.AnswerRepository
	Logger     *zap.Logger
}

func NewSimilarityService(answerRepo *repository.AnswerRepository, logger *zap.Logger) *SimilarityService {
	return &SimilarityService{AnswerRepo: answerRepo, Logger: logger}
}

// SimilarityRatio 归一化的最长公共子序列比值，范围 [0,1]。
// 比较前先去首尾空白并统一小写。
func SimilarityRatio(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)
	lcs := lcsLength(ra, rb)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	return float64(lcs) / float64(longer)
}

// lcsLength 滚动数组求 LCS 长度，空间 O(min(m,n))
func lcsLength(a, b []rune) int {
	if len(b) > len(a) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// ScanAnswer 扫描同题其他学生的作答，取最高相似度写回 answer。
// 达到 notable 阈值记录匹配对象和摘要；低于阈值清除历史标记。
// 仅供教师参考，不影响判分。
func (s *SimilarityService) ScanAnswer(answer *model.StudentAnswer) error {
	if strings.TrimSpace(answer.AnswerText) == "" {
		return nil
	}

	peers, err := s.AnswerRepo.ListPeerAnswers(answer.QuestionID, answer.StudentID)
	if err != nil {
		return err
	}

	var best float64
	var bestPeer *model.StudentAnswer
	for i := range peers {
		if strings.TrimSpace(peers[i].AnswerText) == "" {
			continue
		}
		ratio := SimilarityRatio(answer.AnswerText, peers[i].AnswerText)
		if ratio > best {
			best = ratio
			bestPeer = &peers[i]
		}
	}

	answer.SimilarityScore = best
	switch {
	case bestPeer != nil && best >= SimilarityHigh:
		answer.MatchedStudentID = &bestPeer.StudentID
		answer.MatchedAnswerID = &bestPeer.ID
		answer.SimilaritySummary = fmt.Sprintf("高度相似 %.0f%%，与学生 #%d 的作答重合", best*100, bestPeer.StudentID)
	case bestPeer != nil && best >= SimilarityNotable:
		answer.MatchedStudentID = &bestPeer.StudentID
		answer.MatchedAnswerID = &bestPeer.ID
		answer.SimilaritySummary = fmt.Sprintf("相似度 %.0f%%，建议人工核对学生 #%d 的作答", best*100, bestPeer.StudentID)
	default:
		answer.MatchedStudentID = nil
		answer.MatchedAnswerID = nil
		answer.SimilaritySummary = ""
	}

	if bestPeer != nil && best >= SimilarityNotable {
		s.Logger.Info("answer similarity flagged",
			zap.Uint("student_id", answer.StudentID),
			zap.Uint("question_id", answer.QuestionID),
			zap.Float64("score", best))
	}
	return nil
}
