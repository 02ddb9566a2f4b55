package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"darkwave/internal/util"
	"darkwave/services/portfolio/internal/app"
	"darkwave/services/portfolio/internal/config"
	"darkwave/services/portfolio/internal/server"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := util.InitLogger(cfg.LogLevel)
	durations, err := cfg.Durations()
	if err != nil {
		log.Fatalf("failed to parse durations: %v", err)
	}

	appCfg, err := app.ConfigFromFile(cfg)
	if err != nil {
		log.Fatalf("failed to map config: %v", err)
	}
	appCfg.Logger = logger
	appCore, err := app.New(appCfg)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	defer appCore.Close()

	httpServer, err := server.New(server.Config{
		App:               appCore,
		MaxUploadBytes:    cfg.MaxUploadBytes,
		TrustedProxyCIDRs: cfg.TrustedProxyCIDRs,
		AllowedOrigins:    cfg.AllowedOrigins,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	appCore.Start(ctx)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("portfolio server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
		}
		return
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", durations.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), durations.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
}
