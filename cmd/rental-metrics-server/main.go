package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iwvelando/rental-metrics/internal/logging"
	"github.com/iwvelando/rental-metrics/internal/rentestimate"
	"github.com/iwvelando/rental-metrics/internal/server"
	"github.com/iwvelando/rental-metrics/internal/store"
	"github.com/iwvelando/rental-metrics/pkg/constants"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	_ = godotenv.Load()

	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	prefs, err := store.Open(logger, cfg.StorePath)
	if err != nil {
		logger.Fatal("failed to open preferences store",
			zap.String("op", "main"),
			zap.String("path", cfg.StorePath),
			zap.Error(err),
		)
	}
	defer func() {
		if err := prefs.Close(); err != nil {
			logger.Warn("failed to close preferences store",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	opts := []server.HandlerOption{server.WithStore(prefs)}
	estimator, err := rentestimate.FromConfig(logger, cfg.RentEstimator)
	if err != nil {
		logger.Fatal("failed to configure rent estimator",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if estimator != nil {
		opts = append(opts, server.WithRentEstimator(estimator, cfg.RentEstimator.Concurrency))
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, cfg.UploadSizeBytes(), version, opts...),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("version", version),
			zap.Bool("persistentStore", cfg.StorePath != ""),
			zap.Bool("rentEstimator", estimator != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down", zap.String("op", "main"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
