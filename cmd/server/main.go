package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/antialias/abaci-one-sub007/internal/cache"
	"github.com/antialias/abaci-one-sub007/internal/config"
	"github.com/antialias/abaci-one-sub007/internal/database"
	"github.com/antialias/abaci-one-sub007/internal/game"
	"github.com/antialias/abaci-one-sub007/internal/server"
)

func main() {
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Redis and Postgres are optional: without them the service still runs,
	// it just drops move history and finished-round reports.
	if cfg.RedisAddr != "" {
		cache.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		logrus.WithField("addr", cfg.RedisAddr).Info("move historian enabled")
	}
	if cfg.PostgresDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.Connect(ctx, cfg.PostgresDSN); err != nil {
			logrus.WithError(err).Fatal("failed to connect to postgres")
		}
		if err := database.CreateSchema(ctx); err != nil {
			logrus.WithError(err).Fatal("failed to ensure schema")
		}
		cancel()
		logrus.Info("results store enabled")
	}

	manager := game.NewManager(cfg.MismatchDelay)
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.New(&cfg, manager).Router(),
	}

	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logrus.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("shutdown incomplete")
	}
}
