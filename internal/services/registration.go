package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"meduhub/internal/config"
	"meduhub/internal/domain"
	"meduhub/internal/metrics"
	"meduhub/internal/store"
	apperrors "meduhub/pkg/errors"
)

const (
	defaultDuplicateWindow = 24 * time.Hour
	defaultPageSize        = 20
	defaultRequestTimeout  = 10 * time.Second
)

// StoreProvider hands out the process-wide store. The long-running
// server passes an opened store; the serverless handler passes a lazily
// connecting database.Handle.
type StoreProvider interface {
	Store(ctx context.Context) (store.Store, error)
}

type openedStore struct {
	s store.Store
}

func (o openedStore) Store(context.Context) (store.Store, error) {
	return o.s, nil
}

// OpenedStore adapts an already opened store to StoreProvider
func OpenedStore(s store.Store) StoreProvider {
	return openedStore{s: s}
}

// Notifier is told about every accepted registration
type Notifier interface {
	NotifyNewRegistration(reg *domain.Registration) error
}

// ListParams are the admin listing query parameters. Zero values select
// the defaults.
type ListParams struct {
	Page        int
	Limit       int
	Status      string
	InquiryType string
}

// ListResult is one page of registrations
type ListResult struct {
	Registrations []domain.Registration
	Page          int
	Limit         int
	Total         int64
	Pages         int
}

// UpdatePayload is a partial admin update. Nil fields are left untouched.
type UpdatePayload struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// RegistrationService runs the submission pipeline and the admin operations
type RegistrationService struct {
	stores   StoreProvider
	notifier Notifier
	cfg      config.RegistrationConfig
	log      *logrus.Entry
	now      store.Clock

	// notifyInline sends the notification before Submit returns
	notifyInline bool
}

// NewRegistrationService creates a new registration service. notifier may be nil.
func NewRegistrationService(stores StoreProvider, cfg config.RegistrationConfig, notifier Notifier, log *logrus.Logger) *RegistrationService {
	if cfg.DuplicateWindow <= 0 {
		cfg.DuplicateWindow = defaultDuplicateWindow
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		cfg.MaxPageSize = cfg.DefaultPageSize
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	return &RegistrationService{
		stores:   stores,
		notifier: notifier,
		cfg:      cfg,
		log:      log.WithField("component", "registration"),
		now:      store.SystemClock,
	}
}

// WithInlineNotifications makes Submit send the notification before it
// returns. Serverless runtimes may freeze the process once the response is
// written, which would drop a background send. A failed send is still only
// logged.
func (s *RegistrationService) WithInlineNotifications() *RegistrationService {
	s.notifyInline = true
	return s
}

// WithClock replaces the clock the duplicate window is measured against
func (s *RegistrationService) WithClock(clock store.Clock) *RegistrationService {
	s.now = clock
	return s
}

// Submit validates a submission, rejects it if the same phone or email
// was accepted within the duplicate window, and stores it.
//
// The duplicate check and the insert are separate store calls, so two
// identical submissions arriving together can both be accepted.
func (s *RegistrationService) Submit(ctx context.Context, p SubmitPayload) (*domain.Registration, error) {
	log := s.log.WithField("email", strings.TrimSpace(p.Email))
	log.Debug("Submit request")

	reg, err := Validate(p)
	if err != nil {
		log.WithError(err).Info("Submit rejected: validation failed")
		metrics.RecordValidationFailure()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	st, err := s.stores.Store(ctx)
	if err != nil {
		log.WithError(err).Error("Submit failed: store unavailable")
		return nil, persistenceError(msgSubmitFailed, err)
	}

	since := s.now().Add(-s.cfg.DuplicateWindow)
	exists, err := st.ExistsRecent(ctx, reg.Phone, reg.Email, since)
	if err != nil {
		log.WithError(err).Error("Submit failed: duplicate check error")
		return nil, persistenceError(msgSubmitFailed, err)
	}
	if exists {
		log.Info("Submit rejected: duplicate within window")
		metrics.RecordDuplicateSubmission()
		return nil, apperrors.New(apperrors.ErrCodeConflict, msgDuplicate)
	}

	if _, err := st.Insert(ctx, reg); err != nil {
		log.WithError(err).Error("Submit failed: database error")
		return nil, persistenceError(msgSubmitFailed, err)
	}

	log.WithFields(logrus.Fields{
		"id":           reg.ID,
		"inquiry_type": reg.InquiryType,
	}).Infof("New %s from %s", reg.InquiryType, reg.Name)
	metrics.RecordRegistrationSubmission(string(reg.InquiryType))

	if s.notifier != nil {
		notified := *reg
		if s.notifyInline {
			s.notify(&notified)
		} else {
			go s.notify(&notified)
		}
	}

	return reg, nil
}

func (s *RegistrationService) notify(reg *domain.Registration) {
	if err := s.notifier.NotifyNewRegistration(reg); err != nil {
		s.log.WithError(err).WithField("id", reg.ID).Warn("Failed to send notification email")
	}
}

// List returns one page of registrations, newest first
func (s *RegistrationService) List(ctx context.Context, p ListParams) (*ListResult, error) {
	page := p.Page
	if page < 1 {
		page = 1
	}
	limit := p.Limit
	if limit < 1 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	var filter domain.Filter
	if p.Status != "" {
		status := domain.Status(p.Status)
		filter.Status = &status
	}
	if p.InquiryType != "" {
		inquiryType := domain.InquiryType(p.InquiryType)
		filter.InquiryType = &inquiryType
	}

	log := s.log.WithFields(logrus.Fields{"page": page, "limit": limit})
	log.Debug("List request")

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	st, err := s.stores.Store(ctx)
	if err != nil {
		log.WithError(err).Error("List failed: store unavailable")
		return nil, persistenceError(msgListFailed, err)
	}

	registrations, total, err := st.FindMany(ctx, filter, domain.Page{Number: page, Size: limit})
	if err != nil {
		log.WithError(err).Error("List failed: database error")
		return nil, persistenceError(msgListFailed, err)
	}

	log.WithField("returned", len(registrations)).Debug("List successful")
	return &ListResult{
		Registrations: registrations,
		Page:          page,
		Limit:         limit,
		Total:         total,
		Pages:         int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Update applies an admin status/notes change to one registration
func (s *RegistrationService) Update(ctx context.Context, id string, p UpdatePayload) (*domain.Registration, error) {
	log := s.log.WithField("id", id)

	var upd domain.Update
	if p.Status != nil {
		status := domain.Status(strings.TrimSpace(*p.Status))
		if !status.Valid() {
			log.WithField("status", *p.Status).Info("Update rejected: invalid status")
			return nil, apperrors.Validation([]string{msgInvalidStatus})
		}
		upd.Status = &status
	}
	upd.Notes = p.Notes

	ctx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()

	st, err := s.stores.Store(ctx)
	if err != nil {
		log.WithError(err).Error("Update failed: store unavailable")
		return nil, persistenceError(msgUpdateFailed, err)
	}

	reg, err := st.UpdateByID(ctx, id, upd)
	if errors.Is(err, store.ErrNotFound) {
		log.Info("Update failed: not found")
		return nil, apperrors.New(apperrors.ErrCodeNotFound, msgNotFound)
	}
	if err != nil {
		log.WithError(err).Error("Update failed: database error")
		return nil, persistenceError(msgUpdateFailed, err)
	}

	log.WithField("status", reg.Status).Info("Update successful")
	metrics.RecordRegistrationUpdate(string(reg.Status))
	return reg, nil
}

func persistenceError(message string, err error) error {
	return apperrors.Wrap(apperrors.ErrCodeInternalError, message, err)
}

