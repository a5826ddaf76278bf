package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/unitrack/attendance-api/internal/handler"
	internalmiddleware "github.com/unitrack/attendance-api/internal/middleware"
	"github.com/unitrack/attendance-api/internal/repository"
	"github.com/unitrack/attendance-api/internal/service"
	"github.com/unitrack/attendance-api/pkg/cache"
	"github.com/unitrack/attendance-api/pkg/config"
	"github.com/unitrack/attendance-api/pkg/database"
	"github.com/unitrack/attendance-api/pkg/logger"
	corsmiddleware "github.com/unitrack/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/unitrack/attendance-api/pkg/middleware/requestid"
	"github.com/unitrack/attendance-api/pkg/storage"
)

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, cfg.Reports.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:      cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, enrollmentRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, enrollmentRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, userRepo, courseRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, cacheSvc, validate, logr)
	reportSvc := service.NewReportService(attendanceRepo, enrollmentRepo, cacheSvc, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.JWT.Secret, cfg.Exports.LinkTTL)
	exportSvc := service.NewExportService(reportSvc, exportStore, signer, logr, service.ExportOptions{
		APIPrefix: cfg.APIPrefix,
		Workers:   cfg.Exports.Workers,
		LinkTTL:   cfg.Exports.LinkTTL,
	})
	exportSvc.Start(context.Background())
	defer exportSvc.Stop()

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authSvc.SeedAdmin(seedCtx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		logr.Sugar().Warnw("failed to seed admin account", "error", err)
	}
	cancel()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	handlers := handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Users:      handler.NewUserHandler(userSvc),
		Courses:    handler.NewCourseHandler(courseSvc),
		Enrollment: handler.NewEnrollmentHandler(enrollmentSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Reports:    handler.NewReportHandler(reportSvc, exportSvc),
	}
	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc, metricsSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
