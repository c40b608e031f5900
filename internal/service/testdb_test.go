package service

import (
	"testing"

	"student_engagement_backend/internal/config"
	"student_engagement_backend/internal/model"
	"student_engagement_backend/internal/repository"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存库。users/resources/questions 三张表
// 带 MySQL enum 列，SQLite 执行不了那段 DDL，手工建表代替 AutoMigrate。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// 内存库按连接隔离，必须收敛到单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ddl := []string{
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
			name TEXT, email TEXT UNIQUE, password TEXT,
			role TEXT DEFAULT 'student', class_name TEXT, grade TEXT,
			teacher_id INTEGER DEFAULT 0, language TEXT, avatar TEXT,
			disabled NUMERIC DEFAULT 0, ai_recommend_enabled NUMERIC DEFAULT 1,
			last_login DATETIME, last_seen DATETIME
		)`,
		`CREATE TABLE resources (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
			title TEXT, description TEXT, type TEXT, url TEXT,
			uploader_id INTEGER DEFAULT 0, class_name TEXT, grade TEXT,
			view_count INTEGER DEFAULT 0, duration REAL DEFAULT 0,
			size INTEGER DEFAULT 0, format TEXT, thumbnail TEXT
		)`,
		`CREATE TABLE questions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME,
			resource_id INTEGER DEFAULT 0, text TEXT,
			type TEXT DEFAULT 'mcq', options TEXT,
			correct_answer TEXT, marks INTEGER DEFAULT 1
		)`,
	}
	for _, stmt := range ddl {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}

	if err := db.AutoMigrate(
		&model.ActivityEvent{},
		&model.EngagementAggregate{},
		&model.StudySession{},
		&model.StudentAnswer{},
		&model.QuizMetadata{},
		&model.ReassessmentGrant{},
		&model.ResourceAssignment{},
		&model.EngagementAlert{},
		&model.StudentNote{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newQuizServiceForTest(db *gorm.DB) *QuizService {
	log := zap.NewNop()
	answerRepo := repository.NewAnswerRepository(db)
	return NewQuizService(
		db,
		repository.NewSessionRepository(db),
		repository.NewQuestionRepository(db),
		answerRepo,
		repository.NewQuizMetaRepository(db),
		repository.NewGrantRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewResourceRepository(db),
		repository.NewUserRepository(db),
		NewSimilarityService(answerRepo, log),
		NewRecommendationService(config.AIConfig{}, log),
		log,
	)
}

type quizFixture struct {
	Teacher  model.User
	Student  model.User
	Resource model.Resource
	MCQ1     model.Question
	MCQ2     model.Question
	Essay    model.Question
}

// seedQuizFixture 一个两道客观题加一道主观题的测验，学生按班级隐式授权
func seedQuizFixture(t *testing.T, db *gorm.DB) *quizFixture {
	t.Helper()

	f := &quizFixture{
		Teacher: model.User{Name: "teacher", Email: "t@example.com", Role: model.Teacher},
		Student: model.User{Name: "student", Email: "s@example.com", Role: model.Student, ClassName: "c1"},
	}
	if err := db.Create(&f.Teacher).Error; err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	if err := db.Create(&f.Student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}

	f.Resource = model.Resource{
		Title: "quiz", Type: model.Quiz,
		UploaderID: f.Teacher.ID, ClassName: "c1",
	}
	if err := db.Create(&f.Resource).Error; err != nil {
		t.Fatalf("seed resource: %v", err)
	}

	f.MCQ1 = model.Question{
		ResourceID: f.Resource.ID, Text: "capital of France", Type: model.MCQ,
		Options:       `["Paris","London","Berlin","Madrid"]`,
		CorrectAnswer: "A",
	}
	f.MCQ2 = model.Question{
		ResourceID: f.Resource.ID, Text: "2+2", Type: model.MCQ,
		Options:       `["3","4","5","6"]`,
		CorrectAnswer: "B",
	}
	f.Essay = model.Question{
		ResourceID: f.Resource.ID, Text: "explain", Type: model.Essay, Marks: 10,
	}
	for _, q := range []*model.Question{&f.MCQ1, &f.MCQ2, &f.Essay} {
		if err := db.Create(q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	return f
}
