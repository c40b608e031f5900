// 手动触发成功率预测模型训练脚本
//
// 模型在每次教师调用训练接口时更新，此脚本用于离线重训，
// 例如首次部署或数据库大量导入历史会话后。
//
// 用法: go run scripts/train_model.go

package main

import (
	"log"

	"student_engagement_backend/internal/config"
	"student_engagement_backend/internal/repository"
	"student_engagement_backend/internal/service"
	"student_engagement_backend/pkg/database"
	"student_engagement_backend/pkg/logger"
)

func main() {
	// 与服务进程走同一套 viper 加载，保证 ENGAGE_* 环境覆盖同样生效
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	sessionRepo := repository.NewSessionRepository(db)
	prediction := service.NewPredictionService(sessionRepo, cfg.Predict.ModelPath, logger.Log)

	log.Println("手动触发模型训练...")
	result, err := prediction.Train()
	if err != nil {
		log.Fatalf("训练失败: %v", err)
	}
	if result.Accuracy != nil {
		log.Printf("完成！status=%s samples=%d accuracy=%.3f", result.Status, result.Samples, *result.Accuracy)
	} else {
		log.Printf("完成！status=%s samples=%d", result.Status, result.Samples)
	}
}
