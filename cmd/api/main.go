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

	"github.com/sirupsen/logrus"

	"meduhub/internal/config"
	"meduhub/internal/database"
	"meduhub/internal/server"
	"meduhub/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
	connectTimeout  = 15 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 15 * time.Second
	idleTimeout     = 60 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := config.NewLogger(&cfg.App)
	log.WithFields(logrus.Fields{
		"version":  cfg.App.Version,
		"debug":    cfg.App.Debug,
		"port":     cfg.App.Port,
		"host":     cfg.App.Host,
		"database": cfg.Database.Redacted(),
	}).Infof("Starting %s", cfg.App.Name)

	// Connect up front so a bad URL stops the process before it listens
	log.Info("Initializing database connection...")
	db := database.NewHandle(&cfg.Database, log)
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	_, err = db.Store(ctx)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer func() {
		log.Info("Closing database connections...")
		if err := db.Close(context.Background()); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}()

	log.Info("Initializing services...")
	emailSvc := services.NewEmailService(&cfg.Email, log)
	registrationSvc := services.NewRegistrationService(db, cfg.Registration, emailSvc, log)
	healthSvc := services.NewHealthService(cfg.App.Name)

	handler := server.New(cfg, registrationSvc, healthSvc, log, server.Options{Metrics: true})

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Infof("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server error: %w", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.WithError(err).Error("Server failed to start")
		return
	case sig := <-shutdown:
		log.Infof("Received signal: %v. Starting graceful shutdown...", sig)
	}

	ctx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Error during graceful shutdown")
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("Shutdown timeout exceeded, forcing close...")
			_ = httpServer.Close()
		}
	}

	log.Info("Server shutdown complete")
}
