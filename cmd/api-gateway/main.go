package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-exam-api/api/swagger"
	"github.com/noah-isme/sma-exam-api/internal/handler"
	"github.com/noah-isme/sma-exam-api/internal/middleware"
	"github.com/noah-isme/sma-exam-api/internal/repository"
	"github.com/noah-isme/sma-exam-api/internal/service"
	"github.com/noah-isme/sma-exam-api/pkg/cache"
	"github.com/noah-isme/sma-exam-api/pkg/config"
	"github.com/noah-isme/sma-exam-api/pkg/database"
	"github.com/noah-isme/sma-exam-api/pkg/jobs"
	"github.com/noah-isme/sma-exam-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-exam-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-exam-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-exam-api/pkg/storage"
)

// @title SMA Exam API
// @version 1.0.0
// @description Exam grading, outcome analytics and seating plan service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, analysis cache disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	examRepo := repository.NewExamRepository(db)
	planRepo := repository.NewSeatingPlanRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	scoringSvc := service.NewScoringService(cfg.Grading, logr)
	analysisSvc := service.NewAnalysisService(examRepo, studentRepo, scoringSvc, cacheRepo, metricsSvc, cfg.Analysis, logr)
	gradeSvc := service.NewGradeService(examRepo, scoringSvc, analysisSvc, logr)
	examSvc := service.NewExamService(examRepo, analysisSvc, cfg.Grading, logr)
	studentSvc := service.NewStudentService(studentRepo, conflictRepo, examRepo, logr)
	conflictSvc := service.NewConflictService(conflictRepo, studentRepo, logr)
	seatingSvc := service.NewSeatingService(studentRepo, conflictRepo, planRepo, service.NewPlanValidator(), metricsSvc, cfg.Seating, logr)

	authSvc := service.NewAuthService(userRepo, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sma-exam-api",
	})

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init report storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exportSvc := service.NewExportService(analysisSvc, seatingSvc, studentRepo, store, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Reports.SignedURLTTL,
		}, logr)

		// The queue handler closes over reportSvc, assigned right after.
		queue := jobs.NewQueue("reports", func(ctx context.Context, job jobs.Job) error {
			return reportSvc.Process(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			Logger:     logr,
		})
		reportSvc = service.NewReportService(queue, exportSvc, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		}, logr)

		queue.Start(ctx)
		defer queue.Stop()
		reportSvc.StartCleanup(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	conflictHandler := handler.NewConflictHandler(conflictSvc)
	examHandler := handler.NewExamHandler(examSvc, gradeSvc)
	analysisHandler := handler.NewAnalysisHandler(analysisSvc)
	seatingHandler := handler.NewSeatingHandler(seatingSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.POST("/auth/logout", authHandler.Logout)
		protected.PUT("/auth/password", authHandler.ChangePassword)
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/students", studentHandler.List)
		protected.POST("/students", studentHandler.Create)
		protected.GET("/students/:id", studentHandler.Get)
		protected.PUT("/students/:id", studentHandler.Update)
		protected.DELETE("/students/:id", studentHandler.Delete)

		protected.GET("/conflicts", conflictHandler.List)
		protected.POST("/conflicts", conflictHandler.Create)
		protected.DELETE("/conflicts/:id", conflictHandler.Delete)

		protected.GET("/exams", examHandler.List)
		protected.POST("/exams", examHandler.Create)
		protected.GET("/exams/:id", examHandler.Get)
		protected.PUT("/exams/:id", examHandler.Update)
		protected.DELETE("/exams/:id", examHandler.Delete)
		protected.GET("/exams/:id/grades", examHandler.Grades)
		protected.PUT("/exams/:id/grades", examHandler.UpsertGrade)
		protected.PUT("/exams/:id/grades/total", examHandler.SetTotal)
		protected.GET("/exams/:id/analysis", analysisHandler.Report)

		protected.GET("/seating/plans", seatingHandler.List)
		protected.POST("/seating/plans", seatingHandler.Generate)
		protected.GET("/seating/plans/:id", seatingHandler.Get)
		protected.DELETE("/seating/plans/:id", seatingHandler.Delete)
		protected.POST("/seating/plans/:id/move", seatingHandler.Move)
		protected.POST("/seating/plans/:id/pin", seatingHandler.Pin)
		protected.POST("/seating/plans/:id/validate", seatingHandler.Validate)

		protected.GET("/system/metrics", metricsHandler.Snapshot)
	}

	if reportSvc != nil {
		reportHandler := handler.NewReportHandler(reportSvc)
		protected.POST("/reports", reportHandler.Create)
		protected.GET("/reports", reportHandler.List)
		protected.GET("/reports/:id", reportHandler.Get)
		// Download links carry their own signed token.
		api.GET("/reports/download/:token", reportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
