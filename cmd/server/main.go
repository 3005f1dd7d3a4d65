// Package main runs the scheduling and media approval HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dooh-ops/backend/config"
	"github.com/dooh-ops/backend/internal/assets"
	"github.com/dooh-ops/backend/internal/auth"
	"github.com/dooh-ops/backend/internal/media"
	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/internal/metrics"
	"github.com/dooh-ops/backend/internal/middleware"
	"github.com/dooh-ops/backend/internal/models"
	"github.com/dooh-ops/backend/internal/playlist"
	"github.com/dooh-ops/backend/internal/quotes"
	"github.com/dooh-ops/backend/internal/realtime"
	"github.com/dooh-ops/backend/internal/schedule"
	"github.com/dooh-ops/backend/pkg/database"
	"github.com/dooh-ops/backend/pkg/queue"
	"github.com/dooh-ops/backend/pkg/redis"
	"github.com/dooh-ops/backend/pkg/response"
	"github.com/dooh-ops/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if _, err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:               cfg.AWS.Region,
		AccessKeyID:          cfg.AWS.AccessKeyID,
		SecretAccessKey:      cfg.AWS.SecretAccessKey,
		Endpoint:             cfg.AWS.Endpoint,
		MediaBucket:          cfg.AWS.MediaBucket,
		PublicBaseURL:        cfg.AWS.PublicBaseURL,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	m := metrics.New()
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	rules := cfg.Scheduling.Rules()
	engine := schedule.NewEngine(rules)
	validator := mediaval.NewValidator(mediaval.NewFallbackDecoder(cfg.Media.FFProbePath), rules)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Repositories
	assetRepo := assets.NewRepository(pool)
	mediaRepo := media.NewRepository(pool)
	playlistRepo := playlist.NewRepository(pool)
	quoteRepo := quotes.NewRepository(pool)

	// Panels and occupancy
	assetSvc := assets.NewService(assetRepo, playlistRepo, quoteRepo, engine)
	assetHandler := assets.NewHandler(assetSvc)

	// Creative library
	mediaHandler := media.NewHandler(mediaRepo, s3Client, validator, cfg.Media.MaxUploadBytes(), logger)

	// Bookings
	playlistSvc := playlist.NewService(playlistRepo, mediaRepo, assetRepo, engine, hub, m, logger)
	playlistHandler := playlist.NewHandler(playlistSvc)

	// Campaign media workflow
	workflow := mediaval.NewWorkflow(quoteRepo, validator, m, logger)
	quoteSvc := quotes.NewService(quoteRepo, workflow, hub, logger)
	quoteHandler := quotes.NewHandler(quoteSvc, assetRepo, jobQueue, s3Client, cfg.Media.MaxUploadBytes(), logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(m.Middleware())

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if err := rdb.Healthy(ctx); err != nil {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", m.Handler())

	router.POST("/auth/login", authHandler.Login)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.POST("/auth/register", middleware.RequireRole(models.RoleAdmin), authHandler.Register)
		api.GET("/users", middleware.RequireRole(models.RoleAdmin), authHandler.List)

		api.GET("/assets", assetHandler.List)
		api.GET("/assets/:id", assetHandler.GetByID)
		api.GET("/assets/:id/occupancy", assetHandler.Occupancy)
		api.GET("/assets/:id/bookings", assetHandler.Bookings)

		api.GET("/media", mediaHandler.List)
		api.GET("/media/:id", mediaHandler.GetByID)
		api.POST("/media/upload", middleware.CanEdit(), mediaHandler.Upload)
		api.PATCH("/media/:id/status", middleware.CanEdit(), mediaHandler.UpdateStatus)

		api.GET("/playlist", playlistHandler.List)
		api.GET("/playlist/grid", playlistHandler.Grid)
		api.POST("/playlist/check", playlistHandler.Check)
		api.POST("/playlist", middleware.CanEdit(), playlistHandler.Create)
		api.DELETE("/playlist/:id", middleware.CanEdit(), playlistHandler.Delete)

		api.GET("/quotes/:id/media/history", quoteHandler.History)
		api.POST("/quotes/:id/media/validate", middleware.CanEdit(), quoteHandler.Validate)
		api.POST("/quotes/:id/media/status", middleware.CanEdit(), quoteHandler.SetStatus)
		api.POST("/quotes/:id/media/validate-async", middleware.CanEdit(), quoteHandler.ValidateAsync)
		api.POST("/quotes/:id/media/upload-url", middleware.CanEdit(), quoteHandler.UploadURL)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtService.ValidateSocket))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
