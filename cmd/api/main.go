package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/BruksfildServices01/church-platform/internal/audit"
	"github.com/BruksfildServices01/church-platform/internal/config"
	dbpkg "github.com/BruksfildServices01/church-platform/internal/db"
	"github.com/BruksfildServices01/church-platform/internal/infra/sms"
	"github.com/BruksfildServices01/church-platform/internal/infra/storage"
	"github.com/BruksfildServices01/church-platform/internal/metrics"
	"github.com/BruksfildServices01/church-platform/internal/middleware"
	"github.com/BruksfildServices01/church-platform/internal/routes"
	"github.com/BruksfildServices01/church-platform/internal/validators"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := cfg.NewLogger()

	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	if err := dbpkg.Migrate(db, log); err != nil {
		log.WithError(err).Fatal("migration failed")
	}
	if err := validators.Register(); err != nil {
		log.WithError(err).Fatal("register validators")
	}

	ctx := context.Background()

	provider, err := sms.New(cfg.SMS, log)
	if err != nil {
		log.WithError(err).Fatal("sms provider")
	}
	if provider == nil {
		log.WithField("provider", cfg.SMS.Provider).Warn("sms credentials missing, broadcasts disabled")
	}

	store, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		log.WithError(err).Fatal("media storage")
	}

	dispatcher := audit.NewDispatcher(audit.New(db), log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	err = routes.RegisterRoutes(r, routes.Dependencies{
		DB:       db,
		Config:   cfg,
		Log:      log,
		Recorder: dispatcher,
		Provider: provider,
		Storage:  store,
		Limiter:  middleware.NewLimiterStore(ctx, cfg.RedisURL, log),
	})
	if err != nil {
		log.WithError(err).Fatal("register routes")
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Addr()).Info("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("failed to start server")
		}
	}()

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = metrics.NewServer(cfg.MetricsAddr)
		go func() {
			log.WithField("addr", cfg.MetricsAddr).Info("metrics listener running")
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics listener stopped")
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	dispatcher.Close()

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
