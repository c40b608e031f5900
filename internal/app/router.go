package app

import (
	"student_engagement_backend/internal/config"
	"student_engagement_backend/internal/middleware"
	"student_engagement_backend/internal/model"
	"student_engagement_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 资源
		authGroup.GET("/resources", c.resource.ListResources)
		authGroup.GET("/resources/:id", c.resource.GetResource)

		// 活动埋点与参与度
		authGroup.POST("/activity/track", c.activity.TrackActivity)
		authGroup.GET("/activity/engagement", c.activity.StudentEngagement)

		// 学习会话与测验
		authGroup.POST("/session/start", c.quiz.StartSession)
		authGroup.POST("/session/end", c.quiz.EndSession)
		authGroup.POST("/quiz/answer", c.quiz.SubmitAnswer)
		authGroup.GET("/quiz/:id/status", c.quiz.QuizStatus)
		authGroup.GET("/quiz/:id/marks", c.quiz.MyMarks)
		authGroup.GET("/quiz/:id/sessions", c.quiz.SessionHistory)

		// 学习笔记
		authGroup.POST("/resources/:id/notes", c.note.SaveNotes)
		authGroup.GET("/resources/:id/notes", c.note.GetNotes)
	}

	// 教师接口
	teacherGroup := router.Group("/api/teacher")
	teacherGroup.Use(
		middleware.AuthMiddleware(cfg),
		middleware.ActivityMiddleware(repos.user),
		middleware.RoleMiddleware(model.Teacher),
	)
	{
		teacherGroup.POST("/resources", c.resource.UploadResource)
		teacherGroup.DELETE("/resources/:id", c.resource.DeleteResource)

		teacherGroup.POST("/resources/:id/questions", c.question.CreateQuestion)
		teacherGroup.GET("/resources/:id/questions", c.question.ListQuestions)
		teacherGroup.DELETE("/questions/:id", c.question.DeleteQuestion)

		teacherGroup.PUT("/resources/:id/quiz-metadata", c.question.UpsertMetadata)
		teacherGroup.POST("/resources/:id/publish-marks", c.question.PublishMarks)
		teacherGroup.POST("/resources/:id/grants", c.question.IssueGrant)
		teacherGroup.POST("/resources/:id/assignments", c.question.AssignResource)

		teacherGroup.PUT("/answers/:id/grade", c.question.GradeEssay)
		teacherGroup.GET("/resources/:id/plagiarism", c.question.PlagiarismReport)

		teacherGroup.GET("/resources/:id/notes", c.note.ListNotes)
		teacherGroup.PUT("/notes/:id/grade", c.note.GradeNote)

		teacherGroup.GET("/students", c.question.ListStudents)

		teacherGroup.GET("/resources/:id/engagement", c.engagement.ResourceOverview)
		teacherGroup.GET("/sessions/:id/events", c.engagement.SessionEvents)
		teacherGroup.GET("/alerts", c.engagement.ListAlerts)
		teacherGroup.PUT("/alerts/:id/read", c.engagement.MarkAlertRead)

		teacherGroup.POST("/prediction/train", c.engagement.TrainModel)
		teacherGroup.GET("/prediction/info", c.engagement.ModelInfo)
		teacherGroup.GET("/students/:studentId/resources/:resourceId/recommendation", c.engagement.StudentRecommendation)
	}
}
