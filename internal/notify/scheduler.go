// Package notify schedules kit reminders and delivers them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"depremkit/internal/domain"
	"depremkit/internal/metrics"
	"depremkit/internal/models"
	"depremkit/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrNotFound    = errors.New("notification not found")
	ErrEmptyTitle  = errors.New("notification title is empty")
	ErrStopped     = errors.New("scheduler stopped")
	ErrBadInterval = errors.New("notification trigger must not be negative")
)

// LocalScheduler arms in-process timers for accepted notifications and keeps
// them in a repository. Delivery outcomes are logged and counted, never
// reported back to the caller that scheduled them.
type LocalScheduler struct {
	repo   domain.NotificationRepository
	sender domain.Sender
	retry  worker.RetryPolicy
	logger *zerolog.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	timers  map[string]*time.Timer
	firing  map[string]struct{}
	stopped bool
}

func NewLocalScheduler(
	repo domain.NotificationRepository,
	sender domain.Sender,
	retry worker.RetryPolicy,
	logger *zerolog.Logger,
) *LocalScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &LocalScheduler{
		repo:   repo,
		sender: sender,
		retry:  retry,
		logger: logger,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		timers: make(map[string]*time.Timer),
		firing: make(map[string]struct{}),
	}
}

// Schedule accepts req and returns its identifier.
func (s *LocalScheduler) Schedule(ctx context.Context, req models.NotificationRequest) (string, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", ErrEmptyTitle
	}
	if req.Trigger.Repeat < 0 || req.Trigger.After < 0 {
		return "", ErrBadInterval
	}

	now := s.now()
	n := &models.Notification{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Body:     req.Body,
		FireAt:   now.Add(req.Trigger.After),
		Interval: req.Trigger.Repeat,
		Repeats:  req.Trigger.Repeat > 0,
		Created:  now,
	}

	if err := s.repo.Save(ctx, n); err != nil {
		return "", fmt.Errorf("save notification: %w", err)
	}
	if err := s.arm(n); err != nil {
		_ = s.repo.Delete(ctx, n.ID)
		return "", err
	}

	s.logger.Debug().
		Str("id", n.ID).
		Str("title", n.Title).
		Time("fire_at", n.FireAt).
		Bool("repeats", n.Repeats).
		Msg("notification scheduled")
	return n.ID, nil
}

// Restore re-arms notifications persisted by a previous run. One-shot
// notifications that are already due fire immediately; repeating ones move
// to their next occurrence.
func (s *LocalScheduler) Restore(ctx context.Context) (int, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list notifications: %w", err)
	}

	now := s.now()
	restored := 0
	for _, n := range list {
		if n.Repeats && n.FireAt.Before(now) {
			n.FireAt = nextOccurrence(n.FireAt, n.Interval, now)
			if err := s.repo.Save(ctx, n); err != nil {
				s.logger.Error().Err(err).Str("id", n.ID).Msg("failed to persist restored notification")
			}
		}
		if err := s.arm(n); err != nil {
			return restored, err
		}
		restored++
	}
	if restored > 0 {
		s.logger.Info().Int("count", restored).Msg("notifications restored")
	}
	return restored, nil
}

func (s *LocalScheduler) arm(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}

	delay := n.FireAt.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	id := n.ID
	if old, ok := s.timers[id]; ok {
		old.Stop()
	}
	s.timers[id] = time.AfterFunc(delay, func() { s.fire(id) })
	metrics.SetPendingNotifications(len(s.timers))
	return nil
}

func (s *LocalScheduler) fire(id string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if _, ok := s.timers[id]; !ok {
		// отменено между срабатыванием таймера и захватом мьютекса
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)
	s.firing[id] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	ctx := s.ctx
	n, err := s.repo.Get(ctx, id)
	if err != nil || n == nil {
		s.logger.Warn().Err(err).Str("id", id).Msg("fired notification is missing from the repository")
		s.finishFiring(id)
		return
	}

	s.deliver(ctx, n)

	// отменено во время доставки или планировщик остановлен
	if !s.finishFiring(id) || ctx.Err() != nil {
		return
	}

	if !n.Repeats {
		if err := s.repo.Delete(ctx, id); err != nil {
			s.logger.Error().Err(err).Str("id", id).Msg("failed to remove delivered notification")
		}
		return
	}

	n.FireAt = nextOccurrence(n.FireAt, n.Interval, s.now())
	if err := s.repo.Save(ctx, n); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("failed to persist next occurrence")
	}
	if err := s.arm(n); err != nil && !errors.Is(err, ErrStopped) {
		s.logger.Error().Err(err).Str("id", id).Msg("failed to re-arm notification")
	}
}

// finishFiring reports whether id was still live when its delivery finished.
func (s *LocalScheduler) finishFiring(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, live := s.firing[id]
	delete(s.firing, id)
	metrics.SetPendingNotifications(len(s.timers))
	return live
}

func (s *LocalScheduler) deliver(ctx context.Context, n *models.Notification) {
	err := s.retry.Do(ctx, func(attempt int) error {
		err := s.sender.Send(ctx, n.Title, n.Body)
		if err != nil {
			s.logger.Warn().Err(err).Str("id", n.ID).Int("attempt", attempt).Msg("notification delivery failed")
		}
		return err
	})
	if err != nil {
		metrics.IncNotification("failed")
		s.logger.Error().Err(err).Str("id", n.ID).Str("title", n.Title).Msg("notification dropped")
		return
	}
	metrics.IncNotification("delivered")
	s.logger.Info().Str("id", n.ID).Str("title", n.Title).Msg("notification delivered")
}

// nextOccurrence returns the first fireAt + k*interval strictly after now.
func nextOccurrence(fireAt time.Time, interval time.Duration, now time.Time) time.Time {
	if interval <= 0 {
		return now
	}
	next := fireAt.Add(interval)
	if next.After(now) {
		return next
	}
	missed := now.Sub(next)/interval + 1
	return next.Add(missed * interval)
}

// Cancel stops and forgets one notification.
func (s *LocalScheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	t, armed := s.timers[id]
	if armed {
		t.Stop()
		delete(s.timers, id)
	}
	if _, ok := s.firing[id]; ok {
		armed = true
		delete(s.firing, id)
	}
	metrics.SetPendingNotifications(len(s.timers))
	s.mu.Unlock()

	if !armed {
		n, err := s.repo.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get notification: %w", err)
		}
		if n == nil {
			return ErrNotFound
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

// CancelAll stops and forgets every notification.
func (s *LocalScheduler) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	clear(s.firing)
	metrics.SetPendingNotifications(0)
	s.mu.Unlock()

	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete notifications: %w", err)
	}
	return nil
}

// Pending lists accepted notifications ordered by fire time.
func (s *LocalScheduler) Pending(ctx context.Context) ([]*models.Notification, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

// Stop disarms all timers and waits for in-flight deliveries. Persisted
// notifications stay in the repository for Restore.
func (s *LocalScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
