package scans

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/franckalain/nutriscan/internal/apperr"
	"github.com/franckalain/nutriscan/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store
type memStore struct {
	mu      sync.Mutex
	records map[string]*models.ScanRecord
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.ScanRecord{}}
}

func (m *memStore) SaveScan(_ context.Context, rec *models.ScanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *memStore) GetScan(_ context.Context, id string) (*models.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id], nil
}

func (m *memStore) ListScansByUser(_ context.Context, userID string) ([]*models.ScanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ScanRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScannedAt.After(out[j].ScannedAt) })
	return out, nil
}

func (m *memStore) DeleteScanOwned(_ context.Context, id, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

// mockStore lets tests script storage failures
type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveScan(ctx context.Context, rec *models.ScanRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockStore) GetScan(ctx context.Context, id string) (*models.ScanRecord, error) {
	args := m.Called(ctx, id)
	rec, _ := args.Get(0).(*models.ScanRecord)
	return rec, args.Error(1)
}

func (m *mockStore) ListScansByUser(ctx context.Context, userID string) ([]*models.ScanRecord, error) {
	args := m.Called(ctx, userID)
	recs, _ := args.Get(0).([]*models.ScanRecord)
	return recs, args.Error(1)
}

func (m *mockStore) DeleteScanOwned(ctx context.Context, id, userID string) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

// steppingClock advances by one minute on every call
func steppingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := t
		t = t.Add(time.Minute)
		return now
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("scan-%d", n)
	}
}

func newTestService(store Store) *Service {
	return NewService(store, nil,
		WithClock(steppingClock(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))),
		WithIDGenerator(sequentialIDs()))
}

func TestService_IngestThenList(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	first, err := svc.Ingest(ctx, models.ScanPayload{"userId": "u1", "productName": "Oats"})
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, models.ScanPayload{"userId": "u1", "detected_name": "Cola", "brand": "Fizz"})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, models.ScanPayload{"userId": "u2", "productName": "Tea"})
	require.NoError(t, err)

	records, err := svc.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, second.ID, records[0].ID, "newest first")
	assert.Equal(t, "Cola", records[0].ProductName)
	assert.Equal(t, first.ID, records[1].ID)
	assert.Equal(t, "Oats", records[1].ProductName)
}

func TestService_ListValidationAndEmpty(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore())

	_, err := svc.List(ctx, "")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	records, err := svc.List(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestService_IngestMissingUserDoesNotWrite(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store)

	_, err := svc.Ingest(context.Background(), models.ScanPayload{"productName": "Oats"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	store.AssertNotCalled(t, "SaveScan", mock.Anything, mock.Anything)
}

func TestService_StorageErrorsPassThrough(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{}
	store.On("SaveScan", mock.Anything, mock.Anything).Return(errors.New("UNIQUE constraint failed: scans.id"))
	store.On("ListScansByUser", mock.Anything, "u1").Return(nil, errors.New("database is locked"))
	svc := newTestService(store)

	_, err := svc.Ingest(ctx, models.ScanPayload{"userId": "u1"})
	require.Error(t, err)
	assert.Equal(t, apperr.Storage, apperr.KindOf(err))
	assert.Equal(t, "UNIQUE constraint failed: scans.id", apperr.MessageOf(err))

	_, err = svc.List(ctx, "u1")
	assert.Equal(t, apperr.Storage, apperr.KindOf(err))
	assert.Equal(t, "database is locked", apperr.MessageOf(err))
	store.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store)

	rec, err := svc.Ingest(ctx, models.ScanPayload{"userId": "owner", "productName": "Oats"})
	require.NoError(t, err)

	t.Run("missing fields", func(t *testing.T) {
		assert.Equal(t, apperr.Validation, apperr.KindOf(svc.Delete(ctx, "", "owner")))
		assert.Equal(t, apperr.Validation, apperr.KindOf(svc.Delete(ctx, rec.ID, "")))
	})

	t.Run("unknown id", func(t *testing.T) {
		err := svc.Delete(ctx, "does-not-exist", "owner")
		require.Error(t, err)
		assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	})

	t.Run("other user", func(t *testing.T) {
		err := svc.Delete(ctx, rec.ID, "intruder")
		require.Error(t, err)
		assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
		got, _ := store.GetScan(ctx, rec.ID)
		assert.NotNil(t, got, "record must survive a forbidden delete")
	})

	t.Run("owner", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, rec.ID, "owner"))
		got, _ := store.GetScan(ctx, rec.ID)
		assert.Nil(t, got)
	})

	t.Run("already deleted", func(t *testing.T) {
		assert.Equal(t, apperr.NotFound, apperr.KindOf(svc.Delete(ctx, rec.ID, "owner")))
	})
}

func TestService_DeleteLostRace(t *testing.T) {
	store := &mockStore{}
	store.On("GetScan", mock.Anything, "s1").Return(&models.ScanRecord{ID: "s1", UserID: "u1"}, nil)
	store.On("DeleteScanOwned", mock.Anything, "s1", "u1").Return(false, nil)
	svc := newTestService(store)

	err := svc.Delete(context.Background(), "s1", "u1")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	store.AssertExpectations(t)
}

func TestService_SummaryAndHistory(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	svc := NewService(store, nil, WithClock(func() time.Time { return now }), WithIDGenerator(sequentialIDs()))

	for _, score := range []float64{90, 75, 20} {
		_, err := svc.Ingest(ctx, models.ScanPayload{"userId": "u1", "healthScore": score})
		require.NoError(t, err)
	}
	// a record from yesterday written by an older producer
	require.NoError(t, store.SaveScan(ctx, &models.ScanRecord{
		ID: "legacy", UserID: "u1", ProductName: "Old", HealthScore: 60,
		ScannedAt: now.AddDate(0, 0, -1), CreatedAt: now.AddDate(0, 0, -1),
	}))

	history, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, "Old", history[3].Name)

	summary, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalScans)
	assert.Equal(t, 2, summary.HealthyCount)
	assert.Equal(t, 50, summary.SuccessRate)
	assert.Equal(t, 61, summary.AverageScore)
	assert.Equal(t, 2, summary.Streak)
	assert.Equal(t, 3, summary.Weekly[6].Count)
	assert.Equal(t, 62, summary.Weekly[6].AverageScore)
	assert.Equal(t, 1, summary.Weekly[5].Count)

	_, err = svc.Summary(ctx, "")
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}
