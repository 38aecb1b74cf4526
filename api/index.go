// Package handler is the serverless entry point. Each cold start builds
// the router once; the database connection opens on the first request
// that needs it and is reused by every warm invocation after that.
package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"meduhub/internal/config"
	"meduhub/internal/database"
	"meduhub/internal/server"
	"meduhub/internal/services"
)

var (
	initOnce sync.Once
	app      http.Handler
	initErr  error
)

func setup() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		logrus.WithError(err).Error("Failed to load config")
		return
	}

	log := config.NewLogger(&cfg.App)
	db := database.NewHandle(&cfg.Database, log)
	emailSvc := services.NewEmailService(&cfg.Email, log)
	registrationSvc := services.NewRegistrationService(db, cfg.Registration, emailSvc, log).
		WithInlineNotifications()

	app = server.New(cfg, registrationSvc, services.NewHealthService(cfg.App.Name), log, server.Options{})
}

// Handler serves one invocation
func Handler(w http.ResponseWriter, r *http.Request) {
	initOnce.Do(setup)
	if initErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Server configuration error",
		})
		return
	}
	app.ServeHTTP(w, r)
}
