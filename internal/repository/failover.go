package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"depremkit/internal/domain"
	"depremkit/internal/models"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverNotificationRepository writes to primary and switches to fallback
// while primary is failing, probing it again once per recoveryInterval.
type FailoverNotificationRepository struct {
	primary  domain.NotificationRepository
	fallback domain.NotificationRepository
	logger   *zerolog.Logger
	now      func() time.Time

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverNotificationRepository(primary, fallback domain.NotificationRepository, logger *zerolog.Logger) *FailoverNotificationRepository {
	return &FailoverNotificationRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// Degraded reports whether calls are currently served by the fallback.
func (r *FailoverNotificationRepository) Degraded() bool {
	return r.isDown.Load()
}

// usePrimary decides whether the next call should go to primary.
func (r *FailoverNotificationRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Try to recover after 1 minute
	if r.now().Sub(r.lastCheck) > recoveryInterval {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverNotificationRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("Primary notification repository failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverNotificationRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("Primary notification repository recovered")
	}
}

func (r *FailoverNotificationRepository) Save(ctx context.Context, n *models.Notification) error {
	if r.usePrimary() {
		err := r.primary.Save(ctx, n)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.Save(ctx, n)
}

func (r *FailoverNotificationRepository) Get(ctx context.Context, id string) (*models.Notification, error) {
	if r.usePrimary() {
		n, err := r.primary.Get(ctx, id)
		if err == nil {
			r.markUp()
			if n != nil {
				return n, nil
			}
			return r.fallback.Get(ctx, id)
		}
		r.markDown(err)
	}
	return r.fallback.Get(ctx, id)
}

// Delete removes id from both stores so nothing written during an outage
// survives a cancel.
func (r *FailoverNotificationRepository) Delete(ctx context.Context, id string) error {
	if r.usePrimary() {
		if err := r.primary.Delete(ctx, id); err != nil {
			r.markDown(err)
		} else {
			r.markUp()
		}
	}
	return r.fallback.Delete(ctx, id)
}

func (r *FailoverNotificationRepository) DeleteAll(ctx context.Context) error {
	if r.usePrimary() {
		if err := r.primary.DeleteAll(ctx); err != nil {
			r.markDown(err)
		} else {
			r.markUp()
		}
	}
	return r.fallback.DeleteAll(ctx)
}

// List merges both stores; primary wins on duplicate ids.
func (r *FailoverNotificationRepository) List(ctx context.Context) ([]*models.Notification, error) {
	var primary []*models.Notification
	if r.usePrimary() {
		list, err := r.primary.List(ctx)
		if err == nil {
			r.markUp()
			primary = list
		} else {
			r.markDown(err)
		}
	}

	fallback, err := r.fallback.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(fallback) == 0 {
		return primary, nil
	}

	seen := make(map[string]struct{}, len(primary))
	out := make([]*models.Notification, 0, len(primary)+len(fallback))
	for _, n := range primary {
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}
	for _, n := range fallback {
		if _, ok := seen[n.ID]; !ok {
			out = append(out, n)
		}
	}
	sortByFireAt(out)
	return out, nil
}
