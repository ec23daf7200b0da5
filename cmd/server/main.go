package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AirBox.influxDB/internal/config"
	"AirBox.influxDB/internal/controller"
	"AirBox.influxDB/internal/feed"
	"AirBox.influxDB/internal/logger"
	"AirBox.influxDB/internal/metrics"
	"AirBox.influxDB/internal/middleware"
	"AirBox.influxDB/internal/notify"
	"AirBox.influxDB/internal/repository"
	"AirBox.influxDB/internal/routes"
	"AirBox.influxDB/internal/scheduler"
	"AirBox.influxDB/internal/service"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if !cfg.EnvFileLoaded {
		log.Info("No .env file found, relying on system environment variables")
	}
	log.Info("Starting AirBox service",
		zap.String("port", cfg.Server.Port),
		zap.Float64("interval_minutes", cfg.FetchIntervalMinutes),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collectorSet := metrics.New(registry)

	// Store
	repo := repository.NewInfluxDBRepository(cfg.InfluxDB.URL, cfg.InfluxDB.Token, cfg.InfluxDB.Org, cfg.InfluxDB.Bucket, log)
	defer repo.Close()

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := repo.Ping(startupCtx); err != nil {
		cancel()
		log.Fatal("❌ Failed to connect to InfluxDB", zap.Error(err))
	}
	if err := repo.EnsureBucket(startupCtx); err != nil {
		log.Warn("Could not verify bucket, writes may fail", zap.String("bucket", cfg.InfluxDB.Bucket), zap.Error(err))
	}
	cancel()

	// Notification sinks
	dispatchers := notify.Fanout{notify.NewEmailDispatcher(cfg.Resend, log)}
	if redisClient := connectRedis(cfg.Redis, log); redisClient != nil {
		defer redisClient.Close()
		dispatchers = append(dispatchers, notify.NewRedisPublisher(redisClient, cfg.Redis.AlertChannel, log))
	}

	// Pipeline
	airbox := feed.NewAirBoxClient(cfg.AirBox.URL, cfg.AirBox.Token, cfg.AirBox.Timeout, log)
	ingestion := service.NewIngestionService(airbox, repo, cfg.SaveConcurrency, log, collectorSet)
	thresholds := service.NewThresholdStore()
	alerts := service.NewAlertService(repo, thresholds, dispatchers, log, collectorSet)

	sched, err := scheduler.New(ingestion, alerts, cfg.FetchIntervalMinutes, scheduler.SystemClock(), log, collectorSet)
	if err != nil {
		log.Fatal("Invalid scheduler configuration", zap.Error(err))
	}

	// HTTP
	guard, err := middleware.NewAuthGuard(cfg.Auth0, log)
	if err != nil {
		log.Fatal("Failed to configure Auth0", zap.Error(err))
	}
	router := routes.NewRouter(routes.Handlers{
		Data:          controller.NewDataController(repo, ingestion, sched, log),
		Interval:      controller.NewIntervalController(sched, log),
		Notifications: controller.NewNotificationController(thresholds, log),
		Metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Guard:         guard,
	}, log, collectorSet)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(router)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	go sched.Start(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	sched.Stop()

	log.Info("Server exited properly")
}

// connectRedis returns nil when Redis is not configured or unreachable; the
// alert mirror is optional.
func connectRedis(cfg config.RedisConfig, log *zap.Logger) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Could not connect to Redis, alert mirror disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return nil
	}
	log.Info("✅ Connected to Redis", zap.String("addr", cfg.Addr), zap.String("channel", cfg.AlertChannel))
	return client
}
