// Package main runs the TalentStage HTTP server with WebSocket chat and
// graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/talentstage/backend/config"
	"github.com/talentstage/backend/internal/auth"
	"github.com/talentstage/backend/internal/chat"
	"github.com/talentstage/backend/internal/communities"
	"github.com/talentstage/backend/internal/contests"
	"github.com/talentstage/backend/internal/entries"
	"github.com/talentstage/backend/internal/leaderboard"
	"github.com/talentstage/backend/internal/middleware"
	"github.com/talentstage/backend/internal/models"
	"github.com/talentstage/backend/internal/opportunities"
	"github.com/talentstage/backend/internal/votes"
	"github.com/talentstage/backend/internal/worker"
	"github.com/talentstage/backend/pkg/database"
	"github.com/talentstage/backend/pkg/queue"
	"github.com/talentstage/backend/pkg/redis"
	"github.com/talentstage/backend/pkg/response"
	"github.com/talentstage/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
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
		MediaBucket:          cfg.AWS.MediaBucket,
		PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
	}, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Contests, entries, votes, leaderboard
	contestRepo := contests.NewRepository(pool)
	entryRepo := entries.NewRepository(pool)
	voteRepo := votes.NewRepository(pool)
	board := leaderboard.NewCache(rdb.Client, voteRepo, entryRepo, logger)

	contestHandler := contests.NewHandler(contestRepo, board)
	entryHandler := entries.NewHandler(entryRepo, contestRepo, s3Client, jobQueue, logger)
	voteHandler := votes.NewHandler(voteRepo, entryRepo, jobQueue, logger)

	// Communities and chat
	communityRepo := communities.NewRepository(pool)
	communityHandler := communities.NewHandler(communityRepo)

	chatPubSub := chat.NewRedisPubSub(rdb.Client, logger)
	hub := chat.NewHub(logger, chatPubSub, chatPubSub)
	messageRepo := chat.NewRepository(pool)
	chatHandler := chat.NewHandler(messageRepo)
	hub.SetMessageHandler(func(communityID, userID uuid.UUID, senderName, body string) {
		msg := &models.Message{CommunityID: communityID, UserID: userID, Body: body}
		if err := messageRepo.Save(context.Background(), msg); err != nil {
			logger.Warn("persist chat message", zap.Error(err))
		}
	})

	// Opportunities
	opportunityRepo := opportunities.NewRepository(pool)
	opportunityHandler := opportunities.NewHandler(opportunityRepo)

	// In-process leaderboard worker; cmd/worker runs the same loop standalone.
	processor := worker.NewProcessor(board, jobQueue, logger)

	validateToken := func(token string) (uuid.UUID, string, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return uuid.Nil, "", err
		}
		return claims.UserID, claims.DisplayName, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Contests
		api.GET("/contests", contestHandler.List)
		api.GET("/contests/:id", contestHandler.GetByID)
		api.POST("/contests", middleware.RequireRole("admin"), contestHandler.Create)
		api.PATCH("/contests/:id", middleware.RequireRole("admin"), contestHandler.Update)
		api.DELETE("/contests/:id", middleware.RequireRole("admin"), contestHandler.Delete)
		api.GET("/contests/:id/stats", contestHandler.Stats)
		api.GET("/contests/:id/leaderboard", contestHandler.Leaderboard)

		// Entries
		api.POST("/contests/:id/entries", entryHandler.Submit)
		api.GET("/contests/:id/entries", entryHandler.ListByContest)
		api.GET("/entries/:id", entryHandler.GetByID)
		api.DELETE("/entries/:id", middleware.RequireRole("admin"), entryHandler.Delete)
		api.POST("/entries/:id/winner", middleware.RequireRole("admin"), entryHandler.DeclareWinner)

		// Votes
		api.POST("/entries/:id/votes", voteHandler.Cast)

		// Communities
		api.GET("/communities", communityHandler.List)
		api.POST("/communities", communityHandler.Create)
		api.GET("/communities/:id", communityHandler.GetByID)
		api.POST("/communities/:id/join", communityHandler.Join)
		api.POST("/communities/:id/leave", communityHandler.Leave)
		api.POST("/communities/:id/transfer-admin", communityHandler.TransferAdmin)
		api.GET("/communities/:id/members", communityHandler.ListMembers)
		api.GET("/communities/:id/messages", chatHandler.History)

		// Opportunities
		api.GET("/opportunities", opportunityHandler.List)
		api.GET("/opportunities/:id", opportunityHandler.GetByID)
		api.POST("/opportunities", middleware.RequireRole("admin"), opportunityHandler.Create)
		api.DELETE("/opportunities/:id", middleware.RequireRole("admin"), opportunityHandler.Delete)
		api.POST("/opportunities/:id/applications", opportunityHandler.Apply)
		api.GET("/opportunities/:id/applications", middleware.RequireRole("admin"), opportunityHandler.ListApplications)
	}

	// WebSocket chat (token in query; browsers cannot set headers on dials)
	router.GET("/ws", chat.ServeWs(hub, logger, validateToken))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go processor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
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

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
