package service

import (
	"testing"
	"time"

	"student_engagement_backend/internal/model"
)

func TestSubmitAnswerAutoFinalizesOnLastQuestion(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newQuizServiceForTest(db)

	r1, err := svc.SubmitAnswer(f.Student.ID, f.Resource.ID, f.MCQ1.ID, "Paris")
	if err != nil {
		t.Fatalf("submit mcq1: %v", err)
	}
	if r1.Finalized {
		t.Fatal("first answer must not finalize")
	}
	if r1.IsCorrect == nil || !*r1.IsCorrect {
		t.Fatal("correct option text must grade correct")
	}
	if r1.CurrentScore != 50 {
		t.Fatalf("running score = %v, want 50", r1.CurrentScore)
	}
	if r1.TotalCount != 3 {
		t.Fatalf("total count = %d, want 3", r1.TotalCount)
	}

	r2, err := svc.SubmitAnswer(f.Student.ID, f.Resource.ID, f.MCQ2.ID, " 4 ")
	if err != nil {
		t.Fatalf("submit mcq2: %v", err)
	}
	if r2.Finalized || r2.IsCorrect == nil || !*r2.IsCorrect {
		t.Fatalf("whitespace-padded correct text must grade correct without finalizing: %+v", r2)
	}

	r3, err := svc.SubmitAnswer(f.Student.ID, f.Resource.ID, f.Essay.ID, "my essay text")
	if err != nil {
		t.Fatalf("submit essay: %v", err)
	}
	if !r3.Finalized || r3.Timeout {
		t.Fatalf("last answer must finalize without timeout: %+v", r3)
	}
	if r3.FinalScore != 100 {
		t.Fatalf("final score = %v, want 100", r3.FinalScore)
	}
	if r3.AIRecommend == "" {
		t.Fatal("finalized result must carry a recommendation")
	}

	var sess model.StudySession
	if err := db.First(&sess, r3.SessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	if !sess.Completed {
		t.Fatal("session must be completed after finalize")
	}
	if sess.QuizScore == nil || *sess.QuizScore != 100 {
		t.Fatalf("stored quiz score = %v, want 100", sess.QuizScore)
	}
}

func TestFinalizeReentryDoesNotReconsume(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newQuizServiceForTest(db)

	grant := model.ReassessmentGrant{
		StudentID: f.Student.ID, ResourceID: f.Resource.ID, GrantedBy: f.Teacher.ID,
	}
	if err := db.Create(&grant).Error; err != nil {
		t.Fatalf("seed grant: %v", err)
	}

	// 许可生效期间选项被打乱，提交正确选项原文必须仍然判对
	if _, err := svc.SubmitAnswer(f.Student.ID, f.Resource.ID, f.MCQ1.ID, "Paris"); err != nil {
		t.Fatalf("submit mcq1: %v", err)
	}
	if _, err := svc.SubmitAnswer(f.Student.ID, f.Resource.ID, f.MCQ2.ID, "4"); err != nil {
		t.Fatalf("submit mcq2: %v", err)
	}
	res, err := svc.SubmitAnswer(f.Student.ID, f.Resource.ID, f.Essay.ID, "essay")
	if err != nil {
		t.Fatalf("submit essay: %v", err)
	}
	if !res.Finalized || res.FinalScore != 100 {
		t.Fatalf("shuffled submissions must still finalize at 100: %+v", res)
	}

	if err := db.First(&grant, grant.ID).Error; err != nil {
		t.Fatalf("reload grant: %v", err)
	}
	if !grant.IsUsed || grant.UsedAt == nil {
		t.Fatal("finalize must consume the active grant")
	}

	// 定稿后再发一张许可，重入的定稿不得消费它
	second := model.ReassessmentGrant{
		StudentID: f.Student.ID, ResourceID: f.Resource.ID, GrantedBy: f.Teacher.ID,
	}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("seed second grant: %v", err)
	}

	var sess model.StudySession
	if err := db.First(&sess, res.SessionID).Error; err != nil {
		t.Fatalf("load session: %v", err)
	}
	outcome, err := svc.finalize(&sess, "completed")
	if err != nil {
		t.Fatalf("re-finalize: %v", err)
	}
	if outcome.Score != 100 {
		t.Fatalf("re-finalize score = %v, want stored 100", outcome.Score)
	}

	if err := db.First(&second, second.ID).Error; err != nil {
		t.Fatalf("reload second grant: %v", err)
	}
	if second.IsUsed {
		t.Fatal("losing finalize must not consume another grant")
	}
}

func TestSubmitAnswerPastLimitFinalizesWithTimeout(t *testing.T) {
	db := newTestDB(t)
	f := seedQuizFixture(t, db)
	svc := newQuizServiceForTest(db)

	meta := model.QuizMetadata{ResourceID: f.Resource.ID, TimeLimit: 60}
	if err := db.Create(&meta).Error; err != nil {
		t.Fatalf("seed metadata: %v", err)
	}

	// 限时前已经答对一题的过期会话
	sess := model.StudySession{
		StudentID: f.Student.ID, ResourceID: f.Resource.ID,
		StartTime: time.Now().Add(-2 * time.Minute),
	}
	if err := db.Create(&sess).Error; err != nil {
		t.Fatalf("seed session: %v", err)
	}
	correct := true
	graded := time.Now().Add(-90 * time.Second)
	stored := model.StudentAnswer{
		StudentID: f.Student.ID, QuestionID: f.MCQ1.ID, ResourceID: f.Resource.ID,
		AnswerText: "Paris", IsCorrect: &correct, GradedAt: &graded, SubmittedAt: graded,
	}
	if err := db.Create(&stored).Error; err != nil {
		t.Fatalf("seed answer: %v", err)
	}

	res, err := svc.SubmitAnswer(f.Student.ID, f.Resource.ID, f.MCQ2.ID, "4")
	if err != nil {
		t.Fatalf("submit after limit: %v", err)
	}
	if !res.Finalized || !res.Timeout {
		t.Fatalf("expired session must finalize with timeout flag: %+v", res)
	}
	// 已存的一题计分，过期后提交的那题不落库
	if res.FinalScore != 50 {
		t.Fatalf("final score = %v, want 50", res.FinalScore)
	}
	var answerCount int64
	if err := db.Model(&model.StudentAnswer{}).
		Where("student_id = ?", f.Student.ID).Count(&answerCount).Error; err != nil {
		t.Fatalf("count answers: %v", err)
	}
	if answerCount != 1 {
		t.Fatalf("stored answers = %d, want 1", answerCount)
	}

	var reloaded model.StudySession
	if err := db.First(&reloaded, sess.ID).Error; err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if !reloaded.Completed {
		t.Fatal("expired session must be completed")
	}
}
