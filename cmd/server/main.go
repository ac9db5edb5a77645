// Package main - Entry point for the quizcost estimation server
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"quizcost/api"
	"quizcost/internal/config"
	"quizcost/internal/logging"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Config file (.yaml or .json)")
	addr := flag.String("addr", "", "Server address (overrides config)")
	flag.Parse()

	if err := run(*configPath, *addr); err != nil {
		logging.Error("server failed", zap.Error(err))
		logging.Sync()
		os.Exit(1)
	}
}

func run(configPath, addr string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	config.Set(cfg)

	if err := logging.Initialize(cfg.Logging); err != nil {
		return err
	}
	defer logging.Sync()

	svc, err := cfg.NewService()
	if err != nil {
		return err
	}
	logging.Info("estimation service ready",
		zap.String("strategy", svc.Strategy().Name()),
		zap.String("calibration", cfg.Estimation.CalibrationFile))
	if cfg.Server.AllowConfigUpdates {
		logging.Warn("PATCH /config is enabled; estimation calibration can change at runtime")
	}

	server, err := api.NewServer(version, cfg, svc)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigChan:
	}

	logging.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logging.Info("server shutdown complete")
	return nil
}
