package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edupath/cbt-service/internal/cache"
	"github.com/edupath/cbt-service/internal/config"
	"github.com/edupath/cbt-service/internal/handlers"
	"github.com/edupath/cbt-service/internal/jobs"
	"github.com/edupath/cbt-service/internal/models"
	"github.com/edupath/cbt-service/internal/repositories/postgres"
	"github.com/edupath/cbt-service/internal/services"
	"github.com/edupath/cbt-service/internal/utils"
	"github.com/edupath/cbt-service/internal/validator"
	"github.com/edupath/cbt-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := utils.NewLogger(cfg.Environment)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.Topic{},
		&models.SchoolClass{},
		&models.AcademicSession{},
		&models.Question{},
		&models.Option{},
		&models.Exam{},
		&models.ExamQuestion{},
		&models.ExamAttempt{},
		&models.ExamAnswer{},
	); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)

	cacheService := cache.NewNoopCache()
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, running without cache", "error", err)
	} else {
		cacheService = cache.NewRedisCache(redisClient, logger)
		defer redisClient.Close()
	}

	eventCfg := config.LoadEventConfig()
	publisher, err := eventCfg.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	v := validator.New()

	examService := services.NewExamService(repo, logger, v, publisher, cacheService)
	questionService := services.NewQuestionService(repo, logger, v)
	attemptService := services.NewAttemptService(repo, logger, v, publisher)
	importExportService := services.NewImportExportService(repo, logger, v, publisher)
	generationService := services.NewGenerationService(repo, logger, v, publisher,
		cfg.AIGatewayURL, cfg.AIGatewayAPIKey, cfg.AIGatewayTimeout)

	sweeper := jobs.NewTimeoutSweeper(repo, attemptService, logger, cfg.SweeperSchedule)
	if err := sweeper.Start(); err != nil {
		logger.Error("Failed to start timeout sweeper", "error", err)
		os.Exit(1)
	}
	defer sweeper.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	hm := handlers.NewHandlerManager(
		examService,
		questionService,
		attemptService,
		importExportService,
		generationService,
		repo,
		logger,
	)
	hm.SetupRoutes(router, logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}
