package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"student_engagement_backend/internal/config"
	"student_engagement_backend/internal/controller"
	"student_engagement_backend/internal/repository"
	"student_engagement_backend/internal/service"
	"student_engagement_backend/pkg/configwatcher"
	"student_engagement_backend/pkg/database"
	"student_engagement_backend/pkg/logger"
	"student_engagement_backend/pkg/monitoring"
	"student_engagement_backend/pkg/security"
	"student_engagement_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Router *gin.Engine
	DB     *gorm.DB
	Redis  *redis.Client
}

type repositories struct {
	user       *repository.UserRepository
	resource   *repository.ResourceRepository
	assignment *repository.AssignmentRepository
	activity   *repository.ActivityRepository
	engagement *repository.EngagementRepository
	session    *repository.SessionRepository
	question   *repository.QuestionRepository
	answer     *repository.AnswerRepository
	quizMeta   *repository.QuizMetaRepository
	grant      *repository.GrantRepository
	alert      *repository.AlertRepository
	note       *repository.NoteRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	resource   *service.ResourceService
	similarity *service.SimilarityService
	recommend  *service.RecommendationService
	prediction *service.PredictionService
	alert      *service.AlertService
	engagement *service.EngagementService
	quiz       *service.QuizService
	question   *service.QuestionService
	note       *service.NoteService
}

type controllers struct {
	auth       *controller.AuthController
	resource   *controller.ResourceController
	activity   *controller.ActivityController
	quiz       *controller.QuizController
	question   *controller.QuestionController
	engagement *controller.EngagementController
	health     *controller.HealthController
	note       *controller.NoteController
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		resource:   repository.NewResourceRepository(db),
		assignment: repository.NewAssignmentRepository(db),
		activity:   repository.NewActivityRepository(db),
		engagement: repository.NewEngagementRepository(db),
		session:    repository.NewSessionRepository(db),
		question:   repository.NewQuestionRepository(db),
		answer:     repository.NewAnswerRepository(db),
		quizMeta:   repository.NewQuizMetaRepository(db),
		grant:      repository.NewGrantRepository(db),
		alert:      repository.NewAlertRepository(db),
		note:       repository.NewNoteRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.resource = service.NewResourceService(repos.resource, s.storage, logger.Log)
	s.similarity = service.NewSimilarityService(repos.answer, logger.Log)
	s.recommend = service.NewRecommendationService(cfg.AI, logger.Log)
	s.prediction = service.NewPredictionService(repos.session, cfg.Predict.ModelPath, logger.Log)
	s.alert = service.NewAlertService(repos.alert, repos.user, s.prediction, rdb, cfg.Alert, logger.Log)
	s.engagement = service.NewEngagementService(
		db, repos.activity, repos.engagement, repos.session, repos.resource,
		s.alert, rdb, logger.Log,
	)
	s.quiz = service.NewQuizService(
		db, repos.session, repos.question, repos.answer, repos.quizMeta,
		repos.grant, repos.assignment, repos.resource, repos.user,
		s.similarity, s.recommend, logger.Log,
	)
	s.question = service.NewQuestionService(
		repos.question, repos.answer, repos.quizMeta, repos.grant,
		repos.assignment, repos.resource, repos.user, logger.Log,
	)
	s.note = service.NewNoteService(repos.note, repos.resource, logger.Log)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth),
		resource:   controller.NewResourceController(s.resource, s.auth),
		activity:   controller.NewActivityController(s.engagement),
		quiz:       controller.NewQuizController(s.quiz),
		question:   controller.NewQuestionController(s.question),
		engagement: controller.NewEngagementController(s.engagement, s.alert, s.prediction, s.quiz),
		health:     controller.NewHealthController(db),
		note:       controller.NewNoteController(s.note),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 6000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.RateLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("engagement-platform", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 预警阈值支持热更新，其余配置修改仍需重启生效
	go configwatcher.WatchConfig("configs/config.yaml", func(newCfg *config.Config) {
		services.alert.UpdateConfig(newCfg.Alert)
		logger.Log.Info("Alert thresholds reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Log.Sync()
	log.Println("Server exiting")
}
