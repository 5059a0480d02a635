package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "tailor-backend/api/swagger" // swagger docs
	"tailor-backend/internal/cache"
	"tailor-backend/internal/config"
	"tailor-backend/internal/database"
	"tailor-backend/internal/handler"
	"tailor-backend/internal/middleware"
	"tailor-backend/internal/repository"
	"tailor-backend/internal/service"
	"tailor-backend/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Tailor Shop API
// @version         1.0
// @description     Back-office API for a tailoring shop: customers, suits, workers and their images.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Database handle unavailable: %v", err)
	}
	defer sqlDB.Close()
	log.Println("Connected to PostgreSQL successfully.")

	var store storage.FileStore
	var localStore *storage.LocalStore
	switch cfg.Storage.Driver {
	case "cloudinary":
		if store, err = storage.NewCloudinaryStore(cfg.Storage.CloudinaryURL); err != nil {
			log.Fatalf("Cloudinary setup failed: %v", err)
		}
		log.Println("Storing uploads on Cloudinary.")
	default:
		if localStore, err = storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.PublicPrefix); err != nil {
			log.Fatalf("Upload directory setup failed: %v", err)
		}
		store = localStore
		log.Printf("Storing uploads in %s", cfg.Storage.UploadDir)
	}

	var guard cache.LoginGuard
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		defer client.Close()
		guard = cache.NewRedisLoginGuard(client, cfg.Login.MaxAttempts, cfg.Login.BlockDuration)
		log.Println("Login throttling backed by Redis.")
	} else {
		guard = cache.NewMemoryLoginGuard(cfg.Login.MaxAttempts, cfg.Login.BlockDuration)
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	customerRepo := repository.NewCustomerRepository(db)
	suitRepo := repository.NewSuitRepository(db)
	workerRepo := repository.NewWorkerRepository(db)
	imageRepo := repository.NewImageRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	statisticsRepo := repository.NewStatisticsRepository(db)

	ids := service.NewIdentityAssigner()
	aggregates := service.NewAggregateMaintainer(customerRepo, suitRepo, workerRepo)
	attachments := service.NewAttachmentManager(imageRepo, store)

	customerService := service.NewCustomerService(customerRepo, suitRepo, auditRepo, txManager, ids, aggregates, attachments)
	suitService := service.NewSuitService(suitRepo, customerRepo, workerRepo, auditRepo, txManager, ids, aggregates, attachments)
	workerService := service.NewWorkerService(workerRepo, suitRepo, auditRepo, txManager, attachments)
	searchService := service.NewSearchService(customerService, suitService, workerService)
	statisticsService := service.NewStatisticsService(statisticsRepo)
	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, guard, cfg.JWTSecret)

	if err := authService.EnsureAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		log.Fatalf("Admin seed failed: %v", err)
	}

	// Set up Gin Router
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "x-auth-token"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.SlowRequestLogger(cfg.SlowRequest))
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	if localStore != nil {
		router.Static(localStore.Prefix, localStore.Root)
	}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api")
	handler.NewHealthHandler(sqlDB).RegisterRoutes(api)
	handler.NewAuthHandler(authService, cfg.JWTSecret).RegisterRoutes(api)

	protected := api.Group("", middleware.RequireAuth(cfg.JWTSecret))
	handler.NewCustomerHandler(customerService, searchService).RegisterRoutes(protected)
	handler.NewSuitHandler(suitService, searchService).RegisterRoutes(protected)
	handler.NewWorkerHandler(workerService, searchService).RegisterRoutes(protected)
	handler.NewStatisticsHandler(statisticsService).RegisterRoutes(protected)
	handler.NewAuditHandler(auditService).RegisterRoutes(protected)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
