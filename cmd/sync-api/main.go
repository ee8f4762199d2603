package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/studora/forum-sync-api/internal/embedding"
	"github.com/studora/forum-sync-api/internal/forum"
	"github.com/studora/forum-sync-api/internal/handler"
	"github.com/studora/forum-sync-api/internal/middleware"
	"github.com/studora/forum-sync-api/internal/repository"
	"github.com/studora/forum-sync-api/internal/service"
	"github.com/studora/forum-sync-api/pkg/cache"
	"github.com/studora/forum-sync-api/pkg/config"
	"github.com/studora/forum-sync-api/pkg/database"
	"github.com/studora/forum-sync-api/pkg/logger"
	corsmiddleware "github.com/studora/forum-sync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/studora/forum-sync-api/pkg/middleware/requestid"
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	courseRepo := repository.NewCourseRepository(db)
	threadRepo := repository.NewThreadRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	forumClient := forum.NewClient(cfg.Forum)
	embedProvider := embedding.NewProvider(cfg.Embedding, logr)
	validate := validator.New()

	metricsSvc := service.NewMetricsService()
	answerSyncer := service.NewAnswerSyncer(answerRepo, embedProvider, logr, metricsSvc)
	threadSyncer := service.NewThreadSyncer(forumClient, threadRepo, answerSyncer, embedProvider, cfg.Forum.PageSize, logr, metricsSvc)
	syncSvc := service.NewSyncService(forumClient, courseRepo, threadSyncer, cacheRepo, metricsSvc, validate, logr, cfg.Embedding.APIKey)
	searchSvc := service.NewSearchService(threadRepo, answerRepo, embedProvider, cacheRepo, cfg.Search, cfg.Forum.WebBaseURL, cfg.Embedding.APIKey, logr, metricsSvc)

	syncHandler := handler.NewSyncHandler(syncSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	r.POST("/sync", syncHandler.Sync)
	r.GET("/last-sync", syncHandler.LastSync)
	r.POST("/search", searchHandler.Search)

	if cfg.Backfill.Enabled {
		backfillSvc := service.NewBackfillService(threadRepo, answerRepo, embedProvider, cfg.Backfill, cfg.Embedding.APIKey, logr, metricsSvc)
		backfillSvc.Start(context.Background())
		defer backfillSvc.Stop()

		backfillHandler := handler.NewBackfillHandler(backfillSvc)
		r.POST("/embeddings/backfill", backfillHandler.Trigger)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
