package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/result-portal-api/api/swagger"
	"github.com/noah-isme/result-portal-api/internal/handler"
	internalmiddleware "github.com/noah-isme/result-portal-api/internal/middleware"
	"github.com/noah-isme/result-portal-api/internal/models"
	"github.com/noah-isme/result-portal-api/internal/repository"
	"github.com/noah-isme/result-portal-api/internal/service"
	"github.com/noah-isme/result-portal-api/pkg/cache"
	"github.com/noah-isme/result-portal-api/pkg/config"
	"github.com/noah-isme/result-portal-api/pkg/database"
	"github.com/noah-isme/result-portal-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/result-portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/result-portal-api/pkg/middleware/requestid"
)

// @title Result Portal API
// @version 1.0.0
// @description Student result ingestion and retrieval service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
	defer db.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Directory.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Directory.CacheTTL, logr, true)
		}
	}

	validate := validator.New()
	studentRepo := repository.NewStudentRepository(db)
	resultRepo := repository.NewResultRepository(db)

	directorySvc := service.NewDirectoryService(studentRepo, cacheSvc, cfg.Directory.CacheTTL, logr)
	ingestSvc := service.NewIngestService(resultRepo, directorySvc, validate, cacheSvc, metricsSvc, logr, cfg.Ingest.PassingPercentage)
	resultSvc := service.NewResultService(resultRepo, cacheSvc, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	resultHandler := handler.NewResultHandler(ingestSvc, resultSvc, cfg.Ingest.MaxErrorDetail, cfg.Ingest.MaxUploadBytes)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	secured := api.Group("", internalmiddleware.JWT(tokenSvc))

	adminOnly := internalmiddleware.RequireRoles(models.RoleAdmin)
	adminOrSelf := internalmiddleware.RBAC(string(models.RoleAdmin), "SELF")

	secured.POST("/results/upload", adminOnly, resultHandler.Upload)
	secured.GET("/results/template", adminOnly, resultHandler.Template)
	secured.GET("/results", adminOnly, resultHandler.List)
	secured.GET("/students/:id/results", adminOrSelf, resultHandler.ListByStudent)
	secured.GET("/students/:id/results/export", adminOrSelf, resultHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
