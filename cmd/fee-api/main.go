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

	_ "github.com/campuspay/fee-ledger-api/api/swagger"
	"github.com/campuspay/fee-ledger-api/internal/handler"
	"github.com/campuspay/fee-ledger-api/internal/middleware"
	"github.com/campuspay/fee-ledger-api/internal/repository"
	"github.com/campuspay/fee-ledger-api/internal/service"
	"github.com/campuspay/fee-ledger-api/pkg/cache"
	"github.com/campuspay/fee-ledger-api/pkg/config"
	"github.com/campuspay/fee-ledger-api/pkg/database"
	"github.com/campuspay/fee-ledger-api/pkg/logger"
	corsmiddleware "github.com/campuspay/fee-ledger-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuspay/fee-ledger-api/pkg/middleware/requestid"
)

// @title Fee Ledger API
// @version 1.0.0
// @description Student fee payment ledger and reporting service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, summary cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	ledgerRepo := repository.NewLedgerRepository(db)
	feePlanRepo := repository.NewFeePlanRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Analytics.CacheTTL, logr,
		cfg.Analytics.Enabled && redisClient != nil)
	summarySvc := service.NewSummaryService(analyticsRepo, catalogRepo, studentRepo, cacheSvc,
		cfg.Analytics.CacheTTL, logr).
		WithMetrics(metricsSvc)
	ledgerSvc := service.NewLedgerService(ledgerRepo, feePlanRepo, studentRepo, summarySvc, validate, logr).
		WithMetrics(metricsSvc)
	feePlanSvc := service.NewFeePlanService(feePlanRepo, studentRepo, validate, logr)

	ledgerHandler := handler.NewLedgerHandler(ledgerSvc)
	summaryHandler := handler.NewSummaryHandler(summarySvc, ledgerSvc)
	feePlanHandler := handler.NewFeePlanHandler(feePlanSvc)
	healthHandler := handler.NewHealthHandler(db, redisClient, metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.Identify(cfg.JWT.Secret))

	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", healthHandler.Metrics)
	r.GET("/status", healthHandler.Status)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	payments := api.Group("/fee-payments")
	payments.POST("", ledgerHandler.Create)
	payments.PUT("/transaction", ledgerHandler.AddTransaction)
	payments.PUT("/apply-discount", ledgerHandler.ApplyAdjustment)
	payments.PUT("/apply-late-fee", ledgerHandler.ApplyLateFee)
	payments.GET("/student/:studentId", ledgerHandler.ListByStudent)
	payments.GET("/:id", ledgerHandler.GetByID)
	payments.PUT("/:id", ledgerHandler.Update)
	payments.DELETE("/:id", ledgerHandler.Delete)

	summary := api.Group("/fee-summary")
	summary.GET("/dashboard", summaryHandler.Dashboard)
	summary.GET("/analytics", summaryHandler.Analytics)
	summary.GET("/export", summaryHandler.Export)
	summary.GET("/courses", summaryHandler.Courses)
	summary.GET("/batches", summaryHandler.Batches)
	summary.GET("/students/search", summaryHandler.SearchStudents)
	summary.GET("/:feePaymentId/history", summaryHandler.History)

	plans := api.Group("/fee-plans")
	plans.POST("", feePlanHandler.Create)
	plans.GET("", feePlanHandler.List)
	plans.GET("/:id", feePlanHandler.GetByID)
	plans.PUT("/:id", feePlanHandler.Update)
	plans.DELETE("/:id", feePlanHandler.Delete)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var reminders *service.ReminderService
	if cfg.Reminders.Enabled {
		reminders = service.NewReminderService(ledgerRepo, studentRepo, feePlanRepo,
			service.NewLogNotifier(logr), cfg.Reminders.SweepInterval, cfg.Reminders.Workers, logr)
		reminders.Start(ctx)
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

	if reminders != nil {
		reminders.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
