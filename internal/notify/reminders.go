package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"depremkit/internal/domain"
	"depremkit/internal/events"
	"depremkit/internal/expiry"
	"depremkit/internal/metrics"
	"depremkit/internal/models"

	"github.com/rs/zerolog"
)

const (
	expirationTitle = "⚠️ Son Kullanma Tarihi Yaklaşıyor"
	kitCheckTitle   = "🎒 Deprem Çantası Kontrolü"
	kitCheckBody    = "Deprem çantanızdaki ürünleri kontrol etme zamanı geldi!"
	statusTitle     = "📋 Deprem Çantası Durumu"
	statusAllGood   = "✅ Deprem çantanız güncel, süresi dolan ürün yok."

	refreshTimeout = 30 * time.Second
)

// ReminderConfig: за LeadDays дней до истечения в Hour:Minute, проверка
// набора каждые KitCheckInterval.
type ReminderConfig struct {
	LeadDays         int
	Hour             int
	Minute           int
	KitCheckInterval time.Duration
	WarningDays      int
}

func (c *ReminderConfig) applyDefaults() {
	if c.LeadDays <= 0 {
		c.LeadDays = models.DefaultReminderLeadDays
	}
	if c.KitCheckInterval <= 0 {
		c.KitCheckInterval = models.DefaultKitCheckIntervalDays * 24 * time.Hour
	}
	if c.WarningDays <= 0 {
		c.WarningDays = models.DefaultWarningDays
	}
}

// Reminders turns kit contents into scheduler requests. It does not track
// which identifier belongs to which item: Refresh rebuilds everything.
type Reminders struct {
	store     domain.ItemStore
	scheduler domain.Scheduler
	cfg       ReminderConfig
	logger    *zerolog.Logger

	mu sync.Mutex
}

func NewReminders(store domain.ItemStore, scheduler domain.Scheduler, cfg ReminderConfig, logger *zerolog.Logger) *Reminders {
	cfg.applyDefaults()
	return &Reminders{store: store, scheduler: scheduler, cfg: cfg, logger: logger}
}

// ReminderTime returns when the expiration reminder for item is due, and
// false when item does not expire or the moment has already passed.
func (r *Reminders) ReminderTime(item models.Item, now time.Time) (time.Time, bool) {
	if !item.HasExpiration() {
		return time.Time{}, false
	}
	exp, err := expiry.ParseDate(item.ExpirationDate, now.Location())
	if err != nil {
		r.logger.Warn().Err(err).Int64("item_id", item.ID).Msg("skipping reminder for unparsable date")
		return time.Time{}, false
	}
	exp = exp.In(now.Location())
	at := time.Date(exp.Year(), exp.Month(), exp.Day()-r.cfg.LeadDays, r.cfg.Hour, r.cfg.Minute, 0, 0, now.Location())
	if !at.After(now) {
		return time.Time{}, false
	}
	return at, true
}

// ScheduleExpirationReminder asks for a reminder LeadDays before the item
// expires. An empty id with nil error means nothing was scheduled.
func (r *Reminders) ScheduleExpirationReminder(ctx context.Context, item models.Item) (string, error) {
	now := r.store.Now()
	at, ok := r.ReminderTime(item, now)
	if !ok {
		return "", nil
	}
	return r.scheduler.Schedule(ctx, models.NotificationRequest{
		Title:   expirationTitle,
		Body:    fmt.Sprintf("%s ürününün son kullanma tarihi yaklaşıyor (%s)", item.Name, item.ExpirationDate),
		Trigger: models.Trigger{After: at.Sub(now)},
	})
}

// ScheduleKitCheck asks for the recurring kit check-up reminder.
func (r *Reminders) ScheduleKitCheck(ctx context.Context) (string, error) {
	return r.scheduler.Schedule(ctx, models.NotificationRequest{
		Title: kitCheckTitle,
		Body:  kitCheckBody,
		Trigger: models.Trigger{
			After:  r.cfg.KitCheckInterval,
			Repeat: r.cfg.KitCheckInterval,
		},
	})
}

// CheckNow sends an immediate summary of expired and soon expiring items.
func (r *Reminders) CheckNow(ctx context.Context) (string, error) {
	expired, err := r.store.GetExpired(ctx)
	if err != nil {
		return "", err
	}
	expiring, err := r.store.GetExpiringSoon(ctx, r.cfg.WarningDays)
	if err != nil {
		return "", err
	}
	return r.scheduler.Schedule(ctx, models.NotificationRequest{
		Title: statusTitle,
		Body:  statusBody(expired, expiring, r.cfg.WarningDays),
	})
}

func statusBody(expired, expiring []models.Item, warningDays int) string {
	if len(expired) == 0 && len(expiring) == 0 {
		return statusAllGood
	}
	var b strings.Builder
	if len(expired) > 0 {
		fmt.Fprintf(&b, "🚨 Süresi dolmuş %d ürün: %s", len(expired), itemNames(expired))
	}
	if len(expiring) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "⚠️ %d gün içinde süresi dolacak %d ürün: %s", warningDays, len(expiring), itemNames(expiring))
	}
	return b.String()
}

func itemNames(items []models.Item) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return strings.Join(names, ", ")
}

// Refresh cancels everything and schedules the kit check plus one reminder per
// dated item. Per-item failures are logged and skipped.
func (r *Reminders) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.scheduler.CancelAll(ctx); err != nil {
		return fmt.Errorf("cancel notifications: %w", err)
	}
	if _, err := r.ScheduleKitCheck(ctx); err != nil {
		return fmt.Errorf("schedule kit check: %w", err)
	}

	items, err := r.store.GetAll(ctx)
	if err != nil {
		return err
	}

	now := r.store.Now()
	scheduled, expired, expiring := 0, 0, 0
	for _, item := range items {
		if v, err := expiry.ClassifyItem(item, now, r.cfg.WarningDays); err == nil {
			switch v.Status {
			case expiry.StatusExpired:
				expired++
			case expiry.StatusExpiring:
				expiring++
			}
		}

		id, err := r.ScheduleExpirationReminder(ctx, item)
		if err != nil {
			r.logger.Error().Err(err).Int64("item_id", item.ID).Msg("failed to schedule expiration reminder")
			continue
		}
		if id != "" {
			scheduled++
		}
	}
	metrics.SetKitStatus(len(items), expired, expiring)

	r.logger.Info().
		Int("items", len(items)).
		Int("reminders", scheduled).
		Msg("notifications refreshed")
	return nil
}

// Subscribe refreshes reminders on every kit change and returns the
// unsubscribe func.
func (r *Reminders) Subscribe(bus *events.EventBus) func() {
	return bus.Subscribe(events.EventItemsChanged, func(_ *events.Event) error {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		return r.Refresh(ctx)
	})
}
