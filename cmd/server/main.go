package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"ai-image-service/internal/api"
	"ai-image-service/internal/artifact"
	"ai-image-service/internal/config"
	"ai-image-service/internal/generate"
	"ai-image-service/internal/logging"
	"ai-image-service/internal/monitor"
	"ai-image-service/internal/notify"
	"ai-image-service/internal/ratelimit"
	"ai-image-service/internal/store"
	workerproc "ai-image-service/internal/worker"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	st := store.New(redisClient, cfg.JobTTL)

	// Each channel is optional; the service runs with zero, one, or all
	// three active.
	var channels []notify.Channel
	var mqttChannel *notify.MQTTChannel
	if cfg.MQTTBrokerURL != "" {
		ch, err := notify.NewMQTT(cfg)
		if err != nil {
			slog.Warn("mqtt unavailable, continuing without real-time channel", "error", err)
		} else {
			mqttChannel = ch
			channels = append(channels, ch)
		}
	}
	if cfg.EventBusName != "" {
		ch, err := notify.NewEventBridge(ctx, cfg)
		if err != nil {
			slog.Warn("eventbridge unavailable, continuing without durable channel", "error", err)
		} else {
			channels = append(channels, ch)
		}
	}
	if cfg.BackendURL != "" {
		channels = append(channels, notify.NewWebhook(cfg.BackendURL, cfg.WebhookTimeout))
	}
	events := notify.NewDispatcher(channels...)

	var gen generate.Generator
	if cfg.GeneratorURL != "" {
		gen = generate.NewHTTPGenerator(cfg.GeneratorURL, cfg.GeneratorTimeout)
	} else {
		slog.Info("no GENERATOR_URL configured, using local simulator")
		gen = generate.NewSimulator()
	}

	var artifacts artifact.Store
	if cfg.ArtifactS3Bucket != "" {
		s3Store, err := artifact.NewS3(ctx, cfg)
		if err != nil {
			slog.Error("init s3 artifact store", "error", err)
			os.Exit(1)
		}
		artifacts = s3Store
	} else {
		artifacts = artifact.NewLocal(cfg.ArtifactOutputDir)
	}

	processor := workerproc.New(cfg, st, gen, artifacts, events)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = processor.Run(ctx)
	}()

	mon := monitor.New(cfg, events)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		mon.Run(ctx)
	}()

	limiter := ratelimit.NewTokenBucket(redisClient, cfg.RateLimitCapacity, cfg.RateLimitRefill, time.Hour)
	server := api.New(cfg, st, limiter)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Router(),
	}

	go func() {
		slog.Info("api listening", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("listen", "error", err)
			cancel()
		}
	}()
	mon.ServiceReady(ctx)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(shutdownCtx)

	// The worker observes cancellation within one pop timeout; in-flight
	// generation is allowed to finish.
	<-workerDone
	<-monitorDone

	if mqttChannel != nil {
		mqttChannel.Close()
	}
	_ = redisClient.Close()
}
