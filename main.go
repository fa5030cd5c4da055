// Package main provides the main entry point for the operations dashboard API
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdash/opsdash/app/handlers"
	"github.com/opsdash/opsdash/app/middleware"
	"github.com/opsdash/opsdash/app/router"
	"github.com/opsdash/opsdash/app/scheduler"
	"github.com/opsdash/opsdash/app/services"
	businessflow "github.com/opsdash/opsdash/business_flow"
	"github.com/opsdash/opsdash/config"
	"github.com/opsdash/opsdash/repository"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting operations dashboard...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging routes the standard logger to stdout, a rotated file, or both
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output == "stdout" || cfg.FilePath == "" {
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	switch cfg.Output {
	case "file":
		log.SetOutput(rotated)
	default:
		log.SetOutput(io.MultiWriter(os.Stdout, rotated))
	}
}

// initializeDatabase opens the SQLite database, configures pooling, and
// applies pending migrations
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", cfg.Path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// SQLite serializes writers anyway, keep the pool small
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		return nil, err
	}

	log.Printf("Database ready at %s", cfg.Path)
	return db, nil
}

// applyMigrations executes every SQL file under migrations/ in name order.
// The files are written to be idempotent.
func applyMigrations(db *gorm.DB) error {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("migrations directory not found")
		}
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if err := db.Exec(string(content)).Error; err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	log.Printf("Applied %d migrations", len(files))
	return nil
}

// initializeCache initializes the Redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startMetricsServer exposes the Prometheus registry on a dedicated port.
// The returned function shuts the server down.
func startMetricsServer(cfg config.MetricsConfig) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}

	go func() {
		log.Printf("Metrics server listening on :%d%s", cfg.Port, cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	var cacheService services.CacheService
	if rc != nil {
		cacheService = services.NewRedisCacheService(rc, cfg.Cache.RedisPrefix, cfg.Cache.DefaultTTL)
	}

	// Initialize repositories
	profileRepo := repository.NewSocialProfileRepository(db)
	groupRepo := repository.NewFacebookGroupRepository(db)
	pgRepo := repository.NewProfileGroupRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	sessionRepo := repository.NewOperatorSessionRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
		cfg.Auth.Issuer,
		cfg.Auth.Audience,
		cfg.Auth.UseRSAKeys,
		cfg.Auth.JWTPrivateKey,
		cfg.Auth.JWTPublicKey,
		cfg.Auth.JWTSecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.Auth.Issuer, cfg.Auth.Audience)

	googleVerifier := services.NewGoogleVerifier(cfg.Auth.TokenInfoURL, cfg.Auth.GoogleClientID, cfg.Auth.TokenInfoTimeout)

	// Initialize flows
	loginFlow := businessflow.NewLoginFlow(
		sessionRepo,
		auditRepo,
		tokenService,
		googleVerifier,
		cfg.Auth.AllowedEmails,
		db,
	)

	profileFlow := businessflow.NewProfileFlow(
		profileRepo,
		groupRepo,
		pgRepo,
		taskRepo,
		cacheService,
		db,
	)

	groupFlow := businessflow.NewGroupFlow(
		groupRepo,
		pgRepo,
		auditRepo,
		cacheService,
		db,
	)

	taskFlow := businessflow.NewTaskFlow(
		taskRepo,
		profileRepo,
		groupRepo,
		pgRepo,
		auditRepo,
		nil,
		db,
	)

	customerFlow := businessflow.NewCustomerFlow(customerRepo, db)

	// Seed the starter group list on first boot
	if _, err := groupFlow.SeedGroups(context.Background(), "system", businessflow.NewClientMetadata("", "startup")); err != nil {
		return nil, fmt.Errorf("failed to seed groups: %w", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(loginFlow)
	profileHandler := handlers.NewProfileHandler(profileFlow)
	groupHandler := handlers.NewGroupHandler(groupFlow)
	taskHandler := handlers.NewTaskHandler(taskFlow)
	customerHandler := handlers.NewCustomerHandler(customerFlow)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService, sessionRepo)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		profileHandler,
		groupHandler,
		taskHandler,
		customerHandler,
		authMiddleware,
		cfg,
	)

	if cfg.Scheduler.Enabled {
		loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone: %w", err)
		}
		sched := scheduler.NewTaskScheduler(taskFlow, cfg.Scheduler.DailyTime, loc)
		stopScheduler, err := sched.Start(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to start scheduler: %w", err)
		}
		stopFuncs = append(stopFuncs, stopScheduler)
	}

	if cfg.Metrics.Enabled {
		stopFuncs = append(stopFuncs, startMetricsServer(cfg.Metrics))
	}

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}
