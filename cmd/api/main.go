package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/cache"
	"github.com/GTDGit/gtd_shop/internal/config"
	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/handler"
	"github.com/GTDGit/gtd_shop/internal/mailer"
	"github.com/GTDGit/gtd_shop/internal/middleware"
	"github.com/GTDGit/gtd_shop/internal/repository"
	"github.com/GTDGit/gtd_shop/internal/search"
	"github.com/GTDGit/gtd_shop/internal/service"
	"github.com/GTDGit/gtd_shop/internal/storage"
	"github.com/GTDGit/gtd_shop/internal/utils"
	"github.com/GTDGit/gtd_shop/internal/worker"
)

const (
	invalidAuthLimit  = 5
	invalidAuthWindow = 15 * time.Minute
)

// main is the application entrypoint for the GTD Shop API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting gtd shop")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Connect database
	db, err := database.Connect(ctx, &cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Listing cache
	resultCache := cache.NewResultCache(redisClient, "shop:")

	// 4. External services
	imageStore, err := storage.NewImageStore(ctx, &cfg.Storage)
	if err != nil {
		log.Error().Err(err).Msg("image storage initialization failed")
		fmt.Fprintf(os.Stderr, "image storage initialization failed: %v\n", err)
		os.Exit(1)
	}

	var productIndex *search.ProductIndex
	if cfg.SearchEnabled() {
		productIndex, err = search.NewProductIndex(&cfg.Search)
		if err != nil {
			log.Warn().Err(err).Msg("Search initialization failed - free-text search will be disabled")
			productIndex = nil
		}
	} else {
		log.Warn().Msg("SEARCH_URLS not set - free-text search disabled")
	}

	mailWorker := worker.NewMailWorker(mailer.NewSender(&cfg.Mail), cfg.Mail.QueueSize)

	// 5. Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db)
	brandRepo := repository.NewBrandRepository(db)
	attributeRepo := repository.NewAttributeRepository(db)
	productRepo := repository.NewProductRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	stockRepo := repository.NewStockRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)

	// 6. Initialize services
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	categorySvc := service.NewCategoryService(categoryRepo)
	catalogSvc := service.NewCatalogService(productRepo, categoryRepo, inventoryRepo, stockRepo, attributeRepo, imageStore, resultCache, cfg.Cache)
	adminSvc := service.NewCatalogAdminService(brandRepo, attributeRepo, productRepo, categoryRepo)
	inventorySvc := service.NewInventoryService(productRepo, inventoryRepo, stockRepo, attributeRepo, imageStore)
	orderSvc := service.NewOrderService(orderRepo, userRepo, inventoryRepo, productRepo, attributeRepo)
	userSvc := service.NewUserService(userRepo, tokens, mailWorker, cfg)

	var indexSvc *service.SearchIndexService
	if productIndex != nil {
		catalogSvc.SetSearcher(productIndex)
		indexSvc = service.NewSearchIndexService(productRepo, categoryRepo, inventoryRepo, attributeRepo, productIndex)
	}

	// 7. Initialize middleware
	authMw := middleware.NewAuthMiddleware(tokens)
	limiter := middleware.NewInvalidAuthRateLimiter(invalidAuthLimit, invalidAuthWindow)

	// 8. Initialize handlers
	handlers := &Handlers{
		Health: handler.NewHealthHandler(map[string]handler.HealthCheck{
			"database": db.PingContext,
			"redis":    redisClient.Ping,
		}),
		Category:     handler.NewCategoryHandler(categorySvc),
		Product:      handler.NewProductHandler(catalogSvc),
		Order:        handler.NewOrderHandler(orderSvc),
		User:         handler.NewUserHandler(userSvc, limiter),
		AdminCatalog: handler.NewAdminCatalogHandler(categorySvc, adminSvc, inventorySvc, indexSvc),
	}

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, authMw, limiter)

	// 10. Start workers
	go mailWorker.Start(ctx)
	go limiter.Cleanup(ctx, time.Minute)
	if indexSvc != nil {
		go worker.NewSearchSyncWorker(indexSvc, cfg.Worker.SearchSyncInterval).Start(ctx)
	}

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	Category     *handler.CategoryHandler
	Product      *handler.ProductHandler
	Order        *handler.OrderHandler
	User         *handler.UserHandler
	AdminCatalog *handler.AdminCatalogHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, authMiddleware *middleware.AuthMiddleware, limiter *middleware.InvalidAuthRateLimiter) {
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", "Not found")
	})
	router.NoMethod(func(c *gin.Context) {
		utils.Error(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	})

	router.GET("/health", handlers.Health.GetHealth)

	// Catalog routes. Anonymous and logged in users are cached separately.
	public := router.Group("/")
	public.Use(authMiddleware.Optional())
	{
		public.GET("/main-categories/", handlers.Category.ListRoots)
		public.GET("/categories/:id/", handlers.Category.GetCategory)
		public.GET("/products/", handlers.Product.ListProducts)
		public.GET("/products/:id/", handlers.Product.GetProduct)
		public.GET("/products-by-category/:id/", handlers.Product.ListByCategory)
		public.GET("/attribute-values/", handlers.Product.ListAttributeValues)
	}

	// Account routes
	router.POST("/users/create/", handlers.User.CreateAccount)
	router.POST("/users/token/", limiter.Handle(), handlers.User.IssueToken)
	router.POST("/users/forgot-password/", handlers.User.ForgotPassword)
	router.PATCH("/users/reset-password/:encoded_id/:token/", handlers.User.ResetPassword)

	// Routes for logged in users
	private := router.Group("/")
	private.Use(authMiddleware.Handle())
	{
		private.GET("/users/profile/", handlers.User.GetProfile)
		private.PATCH("/users/profile/", handlers.User.UpdateProfile)
		private.POST("/orders/", handlers.Order.CreateOrder)
		private.GET("/orders/", handlers.Order.ListOrders)
		private.GET("/orders/:id/", handlers.Order.GetOrder)
	}

	// Admin routes (staff only)
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Handle(), authMiddleware.RequireStaff())
	{
		admin.POST("/categories", handlers.AdminCatalog.CreateCategory)
		admin.DELETE("/categories/:id", handlers.AdminCatalog.DeleteCategory)

		admin.POST("/brands", handlers.AdminCatalog.CreateBrand)
		admin.DELETE("/brands/:id", handlers.AdminCatalog.DeleteBrand)

		admin.POST("/attributes", handlers.AdminCatalog.CreateAttribute)
		admin.POST("/attributes/:id/values", handlers.AdminCatalog.CreateAttributeValue)

		admin.POST("/products", handlers.AdminCatalog.CreateProduct)
		admin.POST("/products/:id/inventories", handlers.AdminCatalog.CreateInventory)

		admin.GET("/inventories/:id/in-stock", handlers.AdminCatalog.InStock)
		admin.POST("/inventories/:id/images", handlers.AdminCatalog.UploadImage)
		admin.POST("/stocks/:id/sell", handlers.AdminCatalog.SellUnits)

		admin.POST("/search/reindex", handlers.AdminCatalog.Reindex)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
