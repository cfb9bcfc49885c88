// Package main runs the resource booking HTTP server with WebSocket events and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/resourcebook/backend/config"
	"github.com/resourcebook/backend/internal/auth"
	"github.com/resourcebook/backend/internal/bookings"
	"github.com/resourcebook/backend/internal/events"
	"github.com/resourcebook/backend/internal/exports"
	"github.com/resourcebook/backend/internal/metrics"
	"github.com/resourcebook/backend/internal/middleware"
	"github.com/resourcebook/backend/internal/organizations"
	"github.com/resourcebook/backend/internal/realtime"
	"github.com/resourcebook/backend/internal/resources"
	"github.com/resourcebook/backend/internal/store"
	"github.com/resourcebook/backend/internal/store/memory"
	"github.com/resourcebook/backend/internal/store/postgres"
	"github.com/resourcebook/backend/internal/users"
	"github.com/resourcebook/backend/internal/worker"
	"github.com/resourcebook/backend/pkg/database"
	"github.com/resourcebook/backend/pkg/queue"
	"github.com/resourcebook/backend/pkg/redis"
	"github.com/resourcebook/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	st, dbHealth := openStore(ctx, cfg, logger)
	defer st.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	metrics.Register()

	if err := auth.Bootstrap(ctx, st, auth.Admin{
		Organization: cfg.Bootstrap.Organization,
		Name:         cfg.Bootstrap.Name,
		Email:        cfg.Bootstrap.Email,
		Password:     cfg.Bootstrap.Password,
	}, logger); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	pubsub := events.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, pubsub)

	lifecycle := bookings.NewLifecycle(st, pubsub, logger)
	userSvc := users.NewService(st, logger)
	h := handlers{
		auth:          auth.NewHandler(st, userSvc, jwtService, logger),
		bookings:      bookings.NewHandler(lifecycle),
		resources:     resources.NewHandler(resources.NewService(st, logger)),
		users:         users.NewHandler(userSvc),
		organizations: organizations.NewHandler(organizations.NewService(st, logger)),
		hub:           hub,
		health: func(c *gin.Context) error {
			if err := rdb.Healthy(c.Request.Context()); err != nil {
				return err
			}
			return dbHealth(c.Request.Context())
		},
	}

	// Booking exports (S3-backed; disabled without a bucket)
	var processor *worker.ExportProcessor
	if cfg.AWS.ExportsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Endpoint:             cfg.AWS.Endpoint,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		jobQueue := queue.NewQueue(rdb.Client, logger)
		exportSvc := exports.NewService(st, jobQueue, s3Client, logger)
		h.exports = exports.NewHandler(exportSvc)
		processor = worker.NewExportProcessor(exportSvc, jobQueue, logger)
	} else {
		logger.Warn("booking exports disabled (AWS_S3_EXPORTS_BUCKET not set)")
	}

	router := newRouter(h, jwtService, routerOptions{
		cors: middleware.CORSPolicy{
			Origins: cfg.Server.CORSAllowedOrigins,
			MaxAge:  time.Duration(cfg.Server.CORSMaxAgeSec) * time.Second,
		},
		loginPerSecond: cfg.RateLimit.LoginPerSecond,
		loginBurst:     cfg.RateLimit.LoginBurst,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (booking export to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if processor != nil && cfg.Worker.InProcess {
		go processor.Run(workerCtx)
		logger.Info("export worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// openStore returns the configured booking store and a health probe for it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, func(context.Context) error) {
	if cfg.Store.Driver == config.StoreMemory {
		logger.Warn("using in-memory store; data is lost on restart")
		return memory.New(), func(context.Context) error { return nil }
	}
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{MaxConns: int32(cfg.Database.MaxConns)}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	return postgres.New(pool), pool.Ping
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
