// Package main runs the standalone leaderboard worker. The server also runs
// the same loop in-process; this binary exists for deployments that scale the
// queue consumers separately.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/talentstage/backend/config"
	"github.com/talentstage/backend/internal/entries"
	"github.com/talentstage/backend/internal/leaderboard"
	"github.com/talentstage/backend/internal/votes"
	"github.com/talentstage/backend/internal/worker"
	"github.com/talentstage/backend/pkg/database"
	"github.com/talentstage/backend/pkg/queue"
	"github.com/talentstage/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	voteRepo := votes.NewRepository(pool)
	entryRepo := entries.NewRepository(pool)
	board := leaderboard.NewCache(rdb.Client, voteRepo, entryRepo, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	processor := worker.NewProcessor(board, jobQueue, logger)
	go processor.Run(ctx)

	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	// Give the in-flight job a moment to finish before exiting.
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
