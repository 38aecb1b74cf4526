package store

import (
	"context"
	"errors"
	"time"

	"meduhub/internal/domain"
	"meduhub/internal/metrics"
)

// Instrumented wraps a Store and records query counts and latency
type Instrumented struct {
	next Store
}

// NewInstrumented decorates next with Prometheus query metrics
func NewInstrumented(next Store) *Instrumented {
	return &Instrumented{next: next}
}

func (s *Instrumented) Insert(ctx context.Context, reg *domain.Registration) (id string, err error) {
	defer observe("insert", time.Now(), &err)
	return s.next.Insert(ctx, reg)
}

func (s *Instrumented) ExistsRecent(ctx context.Context, phone, email string, since time.Time) (ok bool, err error) {
	defer observe("exists_recent", time.Now(), &err)
	return s.next.ExistsRecent(ctx, phone, email, since)
}

func (s *Instrumented) FindMany(ctx context.Context, filter domain.Filter, page domain.Page) (regs []domain.Registration, total int64, err error) {
	defer observe("find_many", time.Now(), &err)
	return s.next.FindMany(ctx, filter, page)
}

func (s *Instrumented) UpdateByID(ctx context.Context, id string, upd domain.Update) (reg *domain.Registration, err error) {
	defer func(start time.Time) {
		// ErrNotFound is recorded as a successful query
		recorded := err
		if errors.Is(recorded, ErrNotFound) {
			recorded = nil
		}
		metrics.RecordDBQuery("update_by_id", time.Since(start), recorded)
	}(time.Now())
	return s.next.UpdateByID(ctx, id, upd)
}

func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *Instrumented) Close(ctx context.Context) error {
	return s.next.Close(ctx)
}

func observe(op string, start time.Time, err *error) {
	metrics.RecordDBQuery(op, time.Since(start), *err)
}
