package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/exam-plan-api/api/swagger"
	"github.com/noah-isme/exam-plan-api/internal/handler"
	"github.com/noah-isme/exam-plan-api/internal/middleware"
	"github.com/noah-isme/exam-plan-api/internal/repository"
	"github.com/noah-isme/exam-plan-api/internal/service"
	"github.com/noah-isme/exam-plan-api/pkg/cache"
	"github.com/noah-isme/exam-plan-api/pkg/config"
	"github.com/noah-isme/exam-plan-api/pkg/database"
	"github.com/noah-isme/exam-plan-api/pkg/jobs"
	"github.com/noah-isme/exam-plan-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-plan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-plan-api/pkg/middleware/requestid"
	"github.com/noah-isme/exam-plan-api/pkg/storage"
)

// @title Exam Plan API
// @version 1.0.0
// @description Exam scheduling and seat planning service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Cached reads fall back to the database when redis is down.
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	courseRepo := repository.NewCourseRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	examRepo := repository.NewExamRepository(db)
	seatPlanRepo := repository.NewSeatPlanRepository(db)
	conflictPairRepo := repository.NewConflictPairRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheRepo.WithObserver(metricsSvc)

	scheduleSvc := service.NewScheduleGeneratorService(
		courseRepo,
		classroomRepo,
		enrollmentRepo,
		examRepo,
		db,
		cacheRepo,
		validate,
		logr,
		service.ScheduleGeneratorConfig{
			ProposalTTL:        cfg.Scheduler.ProposalTTL,
			SlotCacheTTL:       cfg.SeatPlan.CacheTTL,
			DayStartHour:       cfg.Scheduler.DayStartHour,
			DayEndHour:         cfg.Scheduler.DayEndHour,
			SlotStepMinutes:    cfg.Scheduler.SlotStepMinutes,
			DefaultDurationMin: cfg.Scheduler.DefaultDurationMin,
			RotateDays:         cfg.Scheduler.RotateDays,
		},
	)

	seatPlanSvc := service.NewSeatPlanService(
		examRepo,
		classroomRepo,
		enrollmentRepo,
		conflictPairRepo,
		seatPlanRepo,
		courseRepo,
		db,
		cacheRepo,
		validate,
		logr,
		service.SeatPlanConfig{
			PlanTTL:  cfg.Scheduler.ProposalTTL,
			CacheTTL: cfg.SeatPlan.CacheTTL,
		},
	)

	conflictPairSvc := service.NewConflictPairService(conflictPairRepo, validate, logr)

	scheduleHandler := handler.NewExamScheduleHandler(scheduleSvc, metricsSvc)
	seatPlanHandler := handler.NewSeatPlanHandler(seatPlanSvc, metricsSvc)
	conflictPairHandler := handler.NewConflictPairHandler(conflictPairSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		schedule := api.Group("/exam-schedule")
		schedule.POST("/generate", scheduleHandler.Generate)
		schedule.POST("/save", scheduleHandler.Save)
		schedule.GET("/slots", scheduleHandler.Slots)

		seatPlan := api.Group("/seat-plan")
		seatPlan.POST("/build", seatPlanHandler.Build)
		seatPlan.POST("/save", seatPlanHandler.Save)
		seatPlan.GET("/:examId", seatPlanHandler.Fetch)

		pairs := api.Group("/conflict-pairs")
		pairs.GET("", conflictPairHandler.List)
		pairs.POST("", conflictPairHandler.Create)
		pairs.DELETE("", conflictPairHandler.Delete)

		api.GET("/metrics/snapshot", metricsHandler.Snapshot)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

		exportSvc := service.NewExportService(
			examRepo,
			seatPlanRepo,
			store,
			signer,
			service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.ResultTTL},
			logr,
			nil,
			nil,
		)

		reportRepo := repository.NewReportRepository(db)
		worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
		queue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		reportSvc := service.NewReportService(reportRepo, queue, exportSvc, validate, logr, service.ReportServiceConfig{
			ResultTTL:  cfg.Exports.ResultTTL,
			MaxRetries: cfg.Exports.WorkerRetries,
		})
		reportSvc.RecoverPendingJobs(ctx)
		reportSvc.StartCleanup(ctx)

		reportHandler := handler.NewReportHandler(reportSvc)
		api.POST("/reports/generate", reportHandler.GenerateReport)
		api.GET("/reports/status/:id", reportHandler.ReportStatus)
		api.GET("/export/:token", reportHandler.DownloadReport)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
