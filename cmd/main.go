package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Singh4599/techno-sapiens/internal/config"
	"github.com/Singh4599/techno-sapiens/internal/handler"
	"github.com/Singh4599/techno-sapiens/internal/livesync"
	"github.com/Singh4599/techno-sapiens/internal/model"
	"github.com/Singh4599/techno-sapiens/internal/repository"
	"github.com/Singh4599/techno-sapiens/internal/service"
	jwtpkg "github.com/Singh4599/techno-sapiens/pkg/jwt"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. Initialize logger
	var logger *zap.Logger
	if cfg.Log.Format == "json" {
		logger, _ = zap.NewProduction()
	} else {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// 3. Connect to PostgreSQL
	db, err := config.NewPostgresDB(cfg.Database.Postgres)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}

	// 4. Auto-migrate if enabled
	if cfg.Database.Postgres.AutoMigrate {
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("failed to auto-migrate", zap.Error(err))
		}
		logger.Info("database migration completed")
	}

	// 5. Ephemeral state store and live-sync bus. Both need Redis when the
	// service runs as more than one instance.
	var redisClient *redis.Client
	if cfg.State.Backend == "redis" || cfg.Sync.Backend == "redis" {
		redisClient, err = config.NewRedisClient(cfg.Database.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
	}

	var stateStore repository.StateStore
	switch cfg.State.Backend {
	case "redis":
		stateStore = repository.NewRedisStateStore(redisClient)
		logger.Info("using Redis state store")
	case "memory":
		stateStore = repository.NewMemoryStateStore()
		logger.Info("using in-memory state store")
	default:
		logger.Fatal("unknown state backend", zap.String("backend", cfg.State.Backend))
	}

	var bus livesync.Bus
	switch cfg.Sync.Backend {
	case "redis":
		bus = livesync.NewRedisBus(redisClient, logger)
		logger.Info("using Redis live-sync bus")
	case "memory":
		bus = livesync.NewMemoryBus()
		logger.Info("using in-memory live-sync bus")
	default:
		logger.Fatal("unknown sync backend", zap.String("backend", cfg.Sync.Backend))
	}
	defer bus.Close()

	// 6. Initialize repositories
	eventRepo := repository.NewPGEventRepository(db)
	registrationRepo := repository.NewPGRegistrationRepository(db)
	profileRepo := repository.NewPGProfileRepository(db)

	// 7. Initialize JWT manager
	jwtManager := jwtpkg.NewManager(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.AccessTokenTTL)

	// 8. Initialize services
	authService := service.NewAuthService(profileRepo, jwtManager)
	eventService := service.NewEventService(eventRepo, stateStore, bus)
	registrationService := service.NewRegistrationService(eventRepo, registrationRepo, stateStore, bus)
	capacityService := service.NewCapacityService(eventRepo, registrationRepo, stateStore, bus)

	// 9. Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(eventService, capacityService)
	registrationHandler := handler.NewRegistrationHandler(eventService, registrationService, profileRepo)
	adminHandler := handler.NewAdminHandler(eventService, registrationService)

	// 10. Setup router
	router := handler.SetupRouter(cfg, logger, jwtManager, authHandler, eventHandler, registrationHandler, adminHandler)

	// 11. Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 12. Start server with graceful shutdown
	go func() {
		logger.Info("server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
