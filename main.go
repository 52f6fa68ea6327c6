package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/wellbeing-service/internal/auth"
	"github.com/SAP-F-2025/wellbeing-service/internal/cache"
	"github.com/SAP-F-2025/wellbeing-service/internal/config"
	"github.com/SAP-F-2025/wellbeing-service/internal/events"
	"github.com/SAP-F-2025/wellbeing-service/internal/handlers"
	"github.com/SAP-F-2025/wellbeing-service/internal/metrics"
	"github.com/SAP-F-2025/wellbeing-service/internal/realtime"
	"github.com/SAP-F-2025/wellbeing-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/wellbeing-service/internal/services"
	"github.com/SAP-F-2025/wellbeing-service/internal/tenancy"
	"github.com/SAP-F-2025/wellbeing-service/internal/utils"
	"github.com/SAP-F-2025/wellbeing-service/internal/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Opens the master store and every tenant store; any failure aborts startup
	registry, err := tenancy.Open(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to open stores: %v", err)
	}

	// nil when Redis is not configured or unreachable; the service then runs
	// without the cache and without real-time delivery
	redisClient := cache.Connect(cfg.RedisURL, slogLogger)

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		Registry:    registry,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	var broadcaster realtime.Broadcaster = realtime.NopBroadcaster{}
	if redisClient != nil {
		broadcaster = realtime.NewRedisBroadcaster(redisClient, slogLogger)
	}

	publisher, err := newPublisher(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	issuer, err := auth.NewIssuer(cfg.JWT.SigningKey, cfg.JWT.TTL)
	if err != nil {
		log.Fatalf("Failed to initialize token issuer: %v", err)
	}

	m := metrics.New()

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repositories: repoManager,
		Registry:     registry,
		Issuer:       issuer,
		Broadcaster:  broadcaster,
		Publisher:    publisher,
		Metrics:      m,
		Logger:       slogLogger,
		Validator:    validator.New(),
	}, services.ServiceManagerConfig{
		LoginStoreTimeout:   cfg.Login.StoreTimeout,
		ScreenerReuseWindow: cfg.Screener.ReuseWindow,
		AlertFanoutLimit:    cfg.Alert.FanoutLimit,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, m)
	handlers.NewHandlerManager(serviceManager, issuer, registry, m, logger, cfg.IsProduction()).SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"tenants", registry.Names(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// closes the publisher and every store pool
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn("Failed to close redis", "error", err)
		}
	}

	logger.Info("Server exited")
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, logger)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	}

	logger.Info("KAFKA_BROKERS not set, domain events stay in process")
	publisher, _ := events.NewInProcessPublisher(logger)
	return publisher, nil
}
