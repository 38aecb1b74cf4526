package database

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"meduhub/internal/config"
	"meduhub/internal/store"
)

// OpenFunc opens a store. Open is the production implementation.
type OpenFunc func(ctx context.Context, cfg *config.DatabaseConfig, log *logrus.Logger) (store.Store, error)

// Handle owns a lazily opened store for the lifetime of the process.
// The first Store call connects; a failed connect is not remembered, so
// the next call tries again.
type Handle struct {
	cfg  *config.DatabaseConfig
	log  *logrus.Logger
	open OpenFunc

	mu    sync.Mutex
	store store.Store
}

// NewHandle creates a handle that connects with Open on first use
func NewHandle(cfg *config.DatabaseConfig, log *logrus.Logger) *Handle {
	return NewHandleWith(cfg, log, Open)
}

// NewHandleWith creates a handle with a custom open function
func NewHandleWith(cfg *config.DatabaseConfig, log *logrus.Logger, open OpenFunc) *Handle {
	return &Handle{cfg: cfg, log: log, open: open}
}

// Store returns the open store, connecting first if needed
func (h *Handle) Store(ctx context.Context) (store.Store, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store != nil {
		return h.store, nil
	}

	s, err := h.open(ctx, h.cfg, h.log)
	if err != nil {
		return nil, err
	}
	h.store = s
	return s, nil
}

// Close releases the store if it was opened
func (h *Handle) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store == nil {
		return nil
	}
	err := h.store.Close(ctx)
	h.store = nil
	return err
}
