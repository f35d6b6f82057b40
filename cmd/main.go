package main

import (
	"context"
	"log"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"invoicekit/internal/batch"
	"invoicekit/internal/caching"
	"invoicekit/internal/config"
	"invoicekit/internal/handlers"
	"invoicekit/internal/jobs/background"
	"invoicekit/internal/middleware"
	"invoicekit/internal/render"
	"invoicekit/internal/repositories"
	"invoicekit/internal/services"
	"invoicekit/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create database connection pool
	pool, err := database.NewPool(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.ClosePool(pool)

	// Initialize object storage
	storageSvc, err := services.NewStorageService(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background(), cfg.Minio.Bucket); err != nil {
		log.Fatalf("Failed to ensure bucket %s: %v", cfg.Minio.Bucket, err)
	}

	// Create repositories
	configRepo := repositories.NewConfigRepo(pool)
	historyRepo := repositories.NewHistoryRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)

	// Create the batch pipeline
	renderer := render.NewPDFRenderer()
	assembler := batch.NewAssembler(renderer, cfg.Batch.Workers, cfg.Batch.RenderTimeout())

	// Create services
	configSvc := services.NewConfigService(configRepo, cacheSvc)
	batchSvc := services.NewBatchService(assembler, configRepo, historyRepo, cacheSvc, storageSvc, cfg.Minio.Bucket)

	// Create handlers
	healthHandlers := handlers.NewHealthHandlers(pool)
	configHandlers := handlers.NewConfigHandlers(configSvc)
	batchHandlers := handlers.NewBatchHandlers(batchSvc)

	// Background retention cleanup
	scheduler := background.NewJobScheduler(historyRepo, storageSvc, cfg.Minio.Bucket, cfg.Batch.RetentionDays)
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Version middleware
	versionMiddleware := middleware.NewVersionMiddleware("v1")
	e.Use(versionMiddleware.APIVersionResolver())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// API routes
	v1 := e.Group("/v1")
	v1.Use(versionMiddleware.VersionHeader("v1"))

	// Protected routes (require JWT)
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.SellerJWTConfig(cfg.JWT.Secret)))

	// Batch pipeline routes
	protected.POST("/count", batchHandlers.CountOrders)
	protected.POST("/preview", batchHandlers.Preview)
	protected.POST("/generate", batchHandlers.Generate)

	// Seller configuration routes
	protected.GET("/config", configHandlers.GetConfig)
	protected.PUT("/config", configHandlers.SaveConfig)

	// Batch history routes
	protected.GET("/history", batchHandlers.History)
	protected.GET("/history/:id/download", batchHandlers.DownloadOutput)
	protected.GET("/history/:id/url", batchHandlers.DownloadURL)

	log.Printf("InvoiceKit server v%s starting on %s", version, cfg.Server.Port)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Logger.Fatal(e.Start(cfg.Server.Port))
}
