// Package store persists registrations. Two backends share the Store
// contract: a MongoDB collection and a gorm-managed SQL table.
package store

import (
	"context"
	"errors"
	"time"

	"meduhub/internal/domain"
)

// ErrNotFound is returned when no registration has the requested id.
// Malformed ids are reported the same way.
var ErrNotFound = errors.New("registration not found")

// Store is the registration persistence contract
type Store interface {
	// Insert persists reg, assigning its ID and CreatedAt.
	Insert(ctx context.Context, reg *domain.Registration) (string, error)
	// ExistsRecent reports whether any record created at or after since
	// shares phone or email.
	ExistsRecent(ctx context.Context, phone, email string, since time.Time) (bool, error)
	// FindMany returns one page sorted by CreatedAt descending, and the
	// number of records matching filter.
	FindMany(ctx context.Context, filter domain.Filter, page domain.Page) ([]domain.Registration, int64, error)
	// UpdateByID applies the provided fields and returns the updated record.
	UpdateByID(ctx context.Context, id string, upd domain.Update) (*domain.Registration, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Clock returns the current time. Stores stamp CreatedAt with it.
type Clock func() time.Time

// SystemClock is the default Clock
func SystemClock() time.Time {
	return time.Now().UTC()
}
