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

	"flood-prediction-api/config"
	"flood-prediction-api/forecast"
	"flood-prediction-api/handlers"
	"flood-prediction-api/logging"
	"flood-prediction-api/services"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(gin.ReleaseMode)

	// The service cannot answer anything without a model, so refuse to start.
	model, err := forecast.Load(cfg.Model.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load forecasting model")
	}
	logger.WithFields(logrus.Fields{
		"path":    cfg.Model.Path,
		"version": model.Version(),
	}).Info("Forecasting model loaded")

	cache, err := services.NewCacheService(cfg.Redis, logger)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, continuing without cache and alert stream")
	}
	defer cache.Close()

	predictions := services.NewPredictionService(
		model,
		cache,
		time.Duration(cfg.Redis.CacheTTLSeconds)*time.Second,
		cfg.Model.FloodThreshold,
		logger,
	)

	var publishers []services.AlertPublisher
	if cache.Available() {
		publishers = append(publishers, services.NewRedisAlertPublisher(cache, cfg.Redis.AlertChannel))
	}
	if cfg.MQTT.Enabled() {
		mqttPub, err := services.NewMQTTAlertPublisher(cfg.MQTT, logger)
		if err != nil {
			logger.WithError(err).Warn("MQTT unavailable, alerts will not be sent to the broker")
		} else {
			defer mqttPub.Close()
			publishers = append(publishers, mqttPub)
		}
	}

	var scheduler *cron.Cron
	if cfg.Outlook.Enabled() {
		job := services.NewOutlookJob(predictions, publishers, cfg.Outlook.Days, logger)
		scheduler, err = job.Schedule(cfg.Outlook.Schedule)
		if err != nil {
			logger.WithError(err).Fatal("Failed to schedule flood outlook")
		}
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Predictions:  predictions,
		Cache:        cache,
		AlertChannel: cfg.Redis.AlertChannel,
		CORS:         cfg.CORS,
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
}
