// Package scans ingests, lists, deletes and summarizes food scans.
package scans

import (
	"context"
	"log/slog"
	"time"

	"github.com/franckalain/nutriscan/internal/apperr"
	"github.com/franckalain/nutriscan/internal/models"
	"github.com/google/uuid"
)

// Store is the persistence the service needs
type Store interface {
	SaveScan(ctx context.Context, rec *models.ScanRecord) error
	GetScan(ctx context.Context, id string) (*models.ScanRecord, error)
	ListScansByUser(ctx context.Context, userID string) ([]*models.ScanRecord, error)
	DeleteScanOwned(ctx context.Context, id, userID string) (bool, error)
}

// Service implements the scan operations on top of a Store
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes a Service
type Option func(*Service)

// WithClock replaces the wall clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the uuid generator
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService creates a scan service
func NewService(store Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:  store,
		logger: logger.With("component", "scans"),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest normalizes a payload and persists it as a new record
func (s *Service) Ingest(ctx context.Context, p models.ScanPayload) (*models.ScanRecord, error) {
	rec, err := BuildRecord(p, s.newID(), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveScan(ctx, rec); err != nil {
		s.logger.Error("failed to save scan", "user_id", rec.UserID, "error", err)
		return nil, apperr.WrapStorage(err)
	}
	s.logger.Debug("scan saved", "id", rec.ID, "user_id", rec.UserID, "source", rec.Source)
	return rec, nil
}

// List returns all of a user's records, newest scan first
func (s *Service) List(ctx context.Context, userID string) ([]*models.ScanRecord, error) {
	if userID == "" {
		return nil, apperr.Validationf("userId is required")
	}
	records, err := s.store.ListScansByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list scans", "user_id", userID, "error", err)
		return nil, apperr.WrapStorage(err)
	}
	if records == nil {
		records = []*models.ScanRecord{}
	}
	return records, nil
}

// History returns a user's scans as view models, newest first
func (s *Service) History(ctx context.Context, userID string) ([]models.ScanView, error) {
	records, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NormalizeRecords(records, s.now()), nil
}

// Summary computes the dashboard aggregates for a user
func (s *Service) Summary(ctx context.Context, userID string) (models.Summary, error) {
	records, err := s.List(ctx, userID)
	if err != nil {
		return models.Summary{}, err
	}
	now := s.now()
	return Summarize(NormalizeRecords(records, now), now), nil
}

// Delete removes a record owned by userID. A missing record is NotFound, a
// record owned by someone else is Forbidden and stays untouched.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if id == "" {
		return apperr.Validationf("id is required")
	}
	if userID == "" {
		return apperr.Validationf("userId is required")
	}

	rec, err := s.store.GetScan(ctx, id)
	if err != nil {
		s.logger.Error("failed to load scan", "id", id, "error", err)
		return apperr.WrapStorage(err)
	}
	if rec == nil {
		return apperr.NewNotFound("scan not found")
	}
	if rec.UserID != userID {
		s.logger.Warn("scan delete rejected", "id", id, "owner", rec.UserID, "user_id", userID)
		return apperr.NewForbidden("not allowed to delete this scan")
	}

	// Zero rows here means a concurrent delete got there first.
	deleted, err := s.store.DeleteScanOwned(ctx, id, userID)
	if err != nil {
		s.logger.Error("failed to delete scan", "id", id, "error", err)
		return apperr.WrapStorage(err)
	}
	if !deleted {
		return apperr.NewNotFound("scan not found")
	}
	s.logger.Debug("scan deleted", "id", id, "user_id", userID)
	return nil
}
