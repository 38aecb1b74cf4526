package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"meduhub/internal/domain"
)

// SQLStore keeps registrations in a gorm-managed table (PostgreSQL or SQLite)
type SQLStore struct {
	db    *gorm.DB
	clock Clock
}

// NewSQLStore creates a store over db. A nil clock means SystemClock.
func NewSQLStore(db *gorm.DB, clock Clock) *SQLStore {
	if clock == nil {
		clock = SystemClock
	}
	return &SQLStore{db: db, clock: clock}
}

// Migrate creates or updates the registrations table and its indexes
func (s *SQLStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&domain.Registration{}); err != nil {
		return fmt.Errorf("failed to migrate registrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Insert(ctx context.Context, reg *domain.Registration) (string, error) {
	reg.ID = uuid.NewString()
	// PostgreSQL keeps microsecond precision
	reg.CreatedAt = s.clock().UTC().Truncate(time.Microsecond)
	reg.ApplyDefaults()

	if err := s.db.WithContext(ctx).Create(reg).Error; err != nil {
		return "", fmt.Errorf("failed to insert registration: %w", err)
	}
	return reg.ID, nil
}

func (s *SQLStore) ExistsRecent(ctx context.Context, phone, email string, since time.Time) (bool, error) {
	var existing domain.Registration
	err := s.db.WithContext(ctx).
		Select("id").
		Where("(phone = ? OR email = ?) AND created_at >= ?", phone, email, since.UTC()).
		Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query recent registrations: %w", err)
	}
	return true, nil
}

func (s *SQLStore) FindMany(ctx context.Context, filter domain.Filter, page domain.Page) ([]domain.Registration, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Registration{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.InquiryType != nil {
		query = query.Where("inquiry_type = ?", *filter.InquiryType)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count registrations: %w", err)
	}

	registrations := make([]domain.Registration, 0, page.Size)
	err := query.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&registrations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch registrations: %w", err)
	}
	return registrations, total, nil
}

func (s *SQLStore) UpdateByID(ctx context.Context, id string, upd domain.Update) (*domain.Registration, error) {
	var reg domain.Registration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&reg).Error; err != nil {
			return err
		}
		if upd.Empty() {
			return nil
		}

		fields := map[string]any{}
		if upd.Status != nil {
			fields["status"] = *upd.Status
		}
		if upd.Notes != nil {
			fields["notes"] = *upd.Notes
		}
		if err := tx.Model(&domain.Registration{}).Where("id = ?", id).Updates(fields).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Take(&reg).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update registration: %w", err)
	}
	return &reg, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
