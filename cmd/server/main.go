package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "desathor/internal/adapters/web"
	"desathor/internal/app"
	"desathor/internal/config"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger := config.NewLogger(config.LogConfig{Level: "info", Format: "json"})
		logger.WithError(err).Fatal("config")
	}
	logger := config.NewLogger(cfg.Log)
	if err := cfg.ValidateServer(); err != nil {
		logger.WithError(err).Fatal("config")
	}

	svc, sessions, err := app.NewFromConfig(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sessions.StartPurge(ctx, time.Minute)

	handler := webAdapter.NewHandler(svc, webAdapter.Options{
		AllowedOrigins: webAdapter.SplitOrigins(cfg.Server.AllowedOrigins),
		JWTSecret:      cfg.Auth.JWTSecret,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		UploadRate:     rate.Limit(cfg.Server.UploadRatePerSec),
		UploadBurst:    cfg.Server.UploadRateBurst,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithFields(map[string]interface{}{"port": cfg.Server.Port, "env": cfg.AppEnv, "desadv_mode": cfg.DESADV.Mode}).Info("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server")
	}
	logger.Info("server stopped")
}
