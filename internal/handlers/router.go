package handlers

import (
	"log/slog"
	"net/http"

	"github.com/edupath/cbt-service/internal/repositories"
	"github.com/edupath/cbt-service/internal/services"
	"github.com/edupath/cbt-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	examHandler     *ExamHandler
	questionHandler *QuestionHandler
	attemptHandler  *AttemptHandler
	repo            repositories.Repository
}

func NewHandlerManager(
	examService services.ExamService,
	questionService services.QuestionService,
	attemptService services.AttemptService,
	importExport services.ImportExportService,
	generation services.GenerationService,
	repo repositories.Repository,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		examHandler:     NewExamHandler(examService, importExport, logger),
		questionHandler: NewQuestionHandler(questionService, importExport, generation, logger),
		attemptHandler:  NewAttemptHandler(attemptService, logger),
		repo:            repo,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, logger *slog.Logger) {
	router.Use(utils.RequestLogger(logger))
	router.Use(gin.Recovery())
	router.Use(IdentityMiddleware())

	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")
	{
		exams := v1.Group("/exams")
		{
			exams.POST("", hm.examHandler.CreateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.GET("/:id/details", hm.examHandler.GetExamWithQuestions)
			exams.PUT("/:id/status", hm.examHandler.UpdateExamStatus)
			exams.PUT("/:id/questions", hm.examHandler.SetExamQuestions)
			exams.POST("/:id/questions/rotate", hm.examHandler.RotateExamQuestions)
			exams.GET("/:id/available-questions", hm.examHandler.GetAvailableQuestions)
			exams.GET("/:id/results/export", hm.examHandler.ExportExamResults)
		}

		questions := v1.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/export", hm.questionHandler.ExportQuestions)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.POST("/generate", hm.questionHandler.GenerateQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.GET("/:id/questions", hm.attemptHandler.GetAttemptQuestions)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cbt-service",
	})
}
