package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"qrtrack/cache"
	"qrtrack/config"
	"qrtrack/database"
	"qrtrack/handlers"
	"qrtrack/logging"
	"qrtrack/mail"
	"qrtrack/middleware"
	"qrtrack/services"
	"qrtrack/storage"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize JWT secret
	middleware.SetJWTSecret(cfg.JWTSecret)

	// Initialize database
	if err := database.Init(cfg, logger); err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	db := database.GetDB()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var store cache.Store
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Failed to connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		store = cache.NewRedis(rdb, "qrtrack:")
	} else {
		logger.Warn("REDIS_ADDR not set, scan locks and drafts are kept in process memory")
		store = cache.NewMemory()
	}

	bucket, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to initialize photo storage", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	if c, ok := bucket.(io.Closer); ok {
		defer c.Close()
	}
	var uploadsDir string
	if local, ok := bucket.(*storage.Local); ok {
		uploadsDir = local.Dir()
	}

	mailer := mail.NewResend(cfg.Mail)
	if cfg.Mail.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY not set, email delivery is disabled")
	}

	reports := services.NewReportService(cfg, db, store, bucket, mailer, logger)
	svc := handlers.Services{
		Auth:        services.NewAuthService(cfg, db, mailer, logger),
		Employees:   services.NewEmployeeService(db, logger),
		Scans:       services.NewScanService(db, store, cfg.ScanLockWindow, logger),
		Reports:     reports,
		Locations:   services.NewLocationService(db, logger),
		Assignments: services.NewAssignmentService(db, logger),
		Mailer:      mailer,
	}

	go reports.RunPurger(ctx, cfg.PurgeInterval)

	srv := &http.Server{
		Addr:        ":" + cfg.ServerPort,
		Handler:     handlers.NewRouter(cfg, svc, logger, uploadsDir),
		ReadTimeout: cfg.ReadTimeout,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
