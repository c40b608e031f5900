package database

import (
	"fmt"
	"log"
	"student_engagement_backend/internal/config"
	"student_engagement_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Resource{},
		&model.ActivityEvent{},
		&model.EngagementAggregate{},
		&model.StudySession{},
		&model.Question{},
		&model.StudentAnswer{},
		&model.QuizMetadata{},
		&model.ReassessmentGrant{},
		&model.ResourceAssignment{},
		&model.EngagementAlert{},
		&model.StudentNote{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	return db, nil
}
