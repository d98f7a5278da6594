package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"spendtree/internal/cache"
	"spendtree/internal/config"
	"spendtree/internal/database"
	"spendtree/internal/logger"
	"spendtree/internal/router"
	"spendtree/internal/services"
	"spendtree/internal/store"
	"spendtree/internal/validator"

	"github.com/gin-gonic/gin"

	_ "spendtree/internal/docs" // Import swagger docs
)

// @title           Spendtree API
// @version         1.0
// @description     Spendtree tracks expenses against a per-user tree of spending categories, with monthly goals and period reports.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	trees, err := treeCache(appConfig)
	if err != nil {
		return err
	}

	db := dbManager.DB()
	categoryStore := store.NewCategoryStore(db)

	usage := services.SkipUsageCheck()
	if appConfig.ExpenseUsageCheck {
		usage = services.NewExpenseUsageGuard(db)
	}

	validator.Register()

	engine := router.New(router.Services{
		Users:      services.NewUserService(db),
		Categories: services.NewCategoryService(categoryStore, usage, appConfig.CategoryRules, trees),
		Expenses:   services.NewExpenseService(db),
		Goals:      services.NewGoalService(db, categoryStore),
		Reports:    services.NewReportService(db, categoryStore),
		Audit:      services.NewAuditService(db),
	}, router.Options{
		AllowedOrigins: appConfig.CORSAllowedOrigins,
		RequestLogging: true,
		Swagger:        appConfig.Env != "production",
	})

	log.Infow("category rules",
		"max_depth", appConfig.CategoryRules.MaxDepth,
		"max_name_length", appConfig.CategoryRules.MaxNameLength,
		"usage_check", appConfig.ExpenseUsageCheck,
	)
	log.Infof("Starting Spendtree server on port %s (driver %s)", appConfig.Port, appConfig.DBDriver)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return engine.Run(":" + appConfig.Port)
}

// treeCache connects to Redis when REDIS_ADDR is set and falls back to no caching otherwise.
func treeCache(cfg *config.Config) (cache.TreeCache, error) {
	if cfg.RedisAddr == "" {
		logger.Get().Info("REDIS_ADDR not set, category tree cache disabled")
		return cache.NewNoopTreeCache(), nil
	}

	rdb := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	return cache.NewRedisTreeCache(rdb, cfg.TreeCacheTTL), nil
}
