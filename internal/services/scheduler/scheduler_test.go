package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) DeleteStalePendingPurchases(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_sweep(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	before := now.Add(-48 * time.Hour)

	tests := []struct {
		name       string
		setupMocks func(*MockRepository)
	}{
		{
			name: "stale purchases deleted",
			setupMocks: func(r *MockRepository) {
				r.On("DeleteStalePendingPurchases", mock.Anything, before).Return(int64(3), nil).Once()
			},
		},
		{
			name: "nothing to delete",
			setupMocks: func(r *MockRepository) {
				r.On("DeleteStalePendingPurchases", mock.Anything, before).Return(int64(0), nil).Once()
			},
		},
		{
			name: "repository error is only logged",
			setupMocks: func(r *MockRepository) {
				r.On("DeleteStalePendingPurchases", mock.Anything, before).Return(int64(0), errors.New("db error")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMocks(repo)

			service := New(repo, config.Scheduler{Interval: time.Hour, PendingTTL: 48 * time.Hour}, newNoopLogger())
			service.now = func() time.Time { return now }

			service.sweep(context.Background())

			repo.AssertExpectations(t)
		})
	}
}

func TestService_RunStopsOnCancel(t *testing.T) {
	repo := new(MockRepository)
	var calls atomic.Int32
	repo.On("DeleteStalePendingPurchases", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(int64(0), nil)

	service := New(repo, config.Scheduler{Interval: 10 * time.Millisecond, PendingTTL: time.Hour}, newNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		service.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}
