package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	httpapi "github.com/agrosmart/farm-control/internal/api/http"
	"github.com/agrosmart/farm-control/internal/config"
	"github.com/agrosmart/farm-control/internal/farm"
	"github.com/agrosmart/farm-control/internal/logger"
	"github.com/agrosmart/farm-control/internal/scheduler"
	"github.com/agrosmart/farm-control/internal/store"
	"github.com/agrosmart/farm-control/internal/weather"
	"github.com/agrosmart/farm-control/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "farm-control")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Weather source: live OpenWeather when a key is configured, otherwise
	// the deterministic simulator. The core never knows the difference.
	var provider weather.Provider
	if cfg.OpenWeatherAPIKey != "" {
		httpClient := &http.Client{Timeout: cfg.WeatherTimeout}
		provider = providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.FarmLat, cfg.FarmLon)
	} else {
		zlog.Info("no OpenWeather API key configured; using simulated weather")
		provider = weather.NewSimulatedProvider()
	}

	thresholdStore := store.NewFileStore(cfg.ThresholdsPath)

	service, err := farm.NewService(farm.Options{
		Store:            thresholdStore,
		Weather:          provider,
		Logger:           zlog,
		AnalysisInterval: cfg.AnalysisInterval,
		WeatherTimeout:   cfg.WeatherTimeout,
	})
	if err != nil {
		zlog.Fatal("failed to build farm service", zap.Error(err))
	}

	sched := scheduler.New(service, cfg.AnalysisInterval, cfg.SchedulerInterval, zlog)
	if err := sched.Start(); err != nil {
		zlog.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "farm-control",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "farm-control",
			"mode":    service.GetMode(),
			"weather": provider.Name(),
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
}
