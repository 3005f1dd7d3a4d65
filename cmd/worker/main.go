// Package main runs the background media validation worker.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dooh-ops/backend/config"
	"github.com/dooh-ops/backend/internal/mediaval"
	"github.com/dooh-ops/backend/internal/metrics"
	"github.com/dooh-ops/backend/internal/quotes"
	"github.com/dooh-ops/backend/internal/realtime"
	"github.com/dooh-ops/backend/internal/worker"
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
	// Publish only: dashboards are connected to the API instances.
	hub := realtime.NewHub(logger, realtime.NewRedisPubSub(rdb.Client, logger), nil)

	quoteRepo := quotes.NewRepository(pool)
	validator := mediaval.NewValidator(mediaval.NewFallbackDecoder(cfg.Media.FFProbePath), cfg.Scheduling.Rules())
	workflow := mediaval.NewWorkflow(quoteRepo, validator, m, logger)
	quoteSvc := quotes.NewService(quoteRepo, workflow, hub, logger)

	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewValidationProcessor(quoteSvc, s3Client, jobQueue, m, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	concurrency := cfg.Worker.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			processor.Run(workerCtx)
		}()
	}
	logger.Info("worker started", zap.Int("concurrency", concurrency))

	var srv *http.Server
	if cfg.Worker.MetricsPort != "" {
		gin.SetMode(gin.ReleaseMode)
		r := gin.New()
		r.Use(gin.Recovery())
		r.GET("/health", func(c *gin.Context) {
			if err := rdb.Healthy(c.Request.Context()); err != nil {
				response.ServiceUnavailable(c, err.Error())
				return
			}
			response.OK(c, gin.H{"status": "ok"})
		})
		r.GET("/metrics", m.Handler())
		srv = &http.Server{Addr: ":" + cfg.Worker.MetricsPort, Handler: r}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	if srv != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		stop()
	}
	wg.Wait()
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
