package services

import (
	"time"

	"meduhub/internal/store"
)

// HealthResult is the liveness payload
type HealthResult struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HealthService implements the health service
type HealthService struct {
	name string
	now  store.Clock
}

// NewHealthService creates a new health service
func NewHealthService(appName string) *HealthService {
	return &HealthService{name: appName, now: store.SystemClock}
}

// Check implements the health check method
func (s *HealthService) Check() *HealthResult {
	return &HealthResult{
		Status:    "ok",
		Message:   s.name + " is running",
		Timestamp: s.now().UTC().Format(time.RFC3339Nano),
	}
}
