// Package scheduler периодически удаляет брошенные ожидающие покупки.
//
// Сессия Stripe Checkout живёт не дольше суток, поэтому покупка в статусе
// pending старше PendingTTL уже не может быть оплачена.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/learnify-backend/internal/config"
	"github.com/magabrotheeeer/learnify-backend/internal/lib/sl"
)

// PurchaseRepository хранилище покупок.
type PurchaseRepository interface {
	DeleteStalePendingPurchases(ctx context.Context, before time.Time) (int64, error)
}

// Service фоновая задача очистки.
type Service struct {
	repo       PurchaseRepository
	interval   time.Duration
	pendingTTL time.Duration
	log        *slog.Logger
	now        func() time.Time
}

// New создает новый экземпляр Service.
func New(repo PurchaseRepository, cfg config.Scheduler, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		interval:   cfg.Interval,
		pendingTTL: cfg.PendingTTL,
		log:        log.With(slog.String("component", "scheduler")),
		now:        time.Now,
	}
}

// Run выполняет очистку сразу и затем раз в interval, пока не отменён ctx.
func (s *Service) Run(ctx context.Context) {
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	before := s.now().Add(-s.pendingTTL)
	deleted, err := s.repo.DeleteStalePendingPurchases(ctx, before)
	if err != nil {
		s.log.Error("failed to delete stale pending purchases", sl.Err(err))
		return
	}
	if deleted > 0 {
		s.log.Info("stale pending purchases deleted", slog.Int64("count", deleted), slog.Time("before", before))
	}
}
