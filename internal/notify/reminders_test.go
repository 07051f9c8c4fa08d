package notify

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"depremkit/internal/database"
	"depremkit/internal/events"
	"depremkit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScheduler struct {
	mu         sync.Mutex
	requests   []models.NotificationRequest
	cancelAlls int
}

func (r *recordingScheduler) Schedule(_ context.Context, req models.NotificationRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return req.Title, nil
}

func (r *recordingScheduler) Cancel(context.Context, string) error { return nil }

func (r *recordingScheduler) CancelAll(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelAlls++
	r.requests = nil
	return nil
}

func (r *recordingScheduler) Pending(context.Context) ([]*models.Notification, error) {
	return nil, nil
}

func (r *recordingScheduler) snapshot() ([]models.NotificationRequest, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.NotificationRequest(nil), r.requests...), r.cancelAlls
}

var reminderNow = time.Date(2026, 10, 14, 15, 30, 0, 0, time.UTC)

func setupReminders(t *testing.T) (*Reminders, *database.DB, *recordingScheduler) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db := database.New(":memory:", &logger, database.WithClock(func() time.Time { return reminderNow }))
	require.NoError(t, db.Initialize(context.Background()))
	t.Cleanup(func() { _ = db.Close() })

	scheduler := &recordingScheduler{}
	r := NewReminders(db, scheduler, ReminderConfig{LeadDays: 3, Hour: 9}, &logger)
	return r, db, scheduler
}

func addKitItem(t *testing.T, db *database.DB, name, expiration string) models.Item {
	t.Helper()
	ctx := context.Background()
	id, err := db.Add(ctx, models.NewItem{Name: name, Category: models.CategoryFood, Quantity: 1, Unit: "pcs", ExpirationDate: expiration})
	require.NoError(t, err)
	item, err := db.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return *item
}

func TestReminderTime(t *testing.T) {
	r, _, _ := setupReminders(t)

	tests := []struct {
		name string
		date string
		want time.Time
		ok   bool
	}{
		{name: "lead days before at reminder hour", date: "2026-10-20", want: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), ok: true},
		{name: "crosses month", date: "2026-11-02", want: time.Date(2026, 10, 30, 9, 0, 0, 0, time.UTC), ok: true},
		{name: "already past", date: "2026-10-16", ok: false},
		{name: "today morning passed", date: "2026-10-17", ok: false},
		{name: "no date", date: "", ok: false},
		{name: "garbage", date: "soon", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, ok := r.ReminderTime(models.Item{ID: 1, ExpirationDate: tt.date}, reminderNow)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, at)
			}
		})
	}
}

func TestScheduleExpirationReminder(t *testing.T) {
	r, db, scheduler := setupReminders(t)
	ctx := context.Background()

	item := addKitItem(t, db, "Konserve", "2026-10-20")
	id, err := r.ScheduleExpirationReminder(ctx, item)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	reqs, _ := scheduler.snapshot()
	require.Len(t, reqs, 1)
	assert.Equal(t, expirationTitle, reqs[0].Title)
	assert.Contains(t, reqs[0].Body, "Konserve ürününün son kullanma tarihi yaklaşıyor")
	assert.Equal(t, 2*24*time.Hour+17*time.Hour+30*time.Minute, reqs[0].Trigger.After)
	assert.Zero(t, reqs[0].Trigger.Repeat)

	undated := addKitItem(t, db, "Düdük", "")
	id, err = r.ScheduleExpirationReminder(ctx, undated)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestScheduleKitCheck(t *testing.T) {
	r, _, scheduler := setupReminders(t)

	_, err := r.ScheduleKitCheck(context.Background())
	require.NoError(t, err)

	reqs, _ := scheduler.snapshot()
	require.Len(t, reqs, 1)
	assert.Equal(t, kitCheckTitle, reqs[0].Title)
	assert.Equal(t, kitCheckBody, reqs[0].Body)
	assert.Equal(t, 30*24*time.Hour, reqs[0].Trigger.After)
	assert.Equal(t, 30*24*time.Hour, reqs[0].Trigger.Repeat)
}

func TestCheckNow(t *testing.T) {
	t.Run("all good", func(t *testing.T) {
		r, db, scheduler := setupReminders(t)
		addKitItem(t, db, "Su", "2027-06-01")

		_, err := r.CheckNow(context.Background())
		require.NoError(t, err)

		reqs, _ := scheduler.snapshot()
		require.Len(t, reqs, 1)
		assert.Equal(t, statusAllGood, reqs[0].Body)
		assert.Zero(t, reqs[0].Trigger)
	})

	t.Run("expired and expiring", func(t *testing.T) {
		r, db, scheduler := setupReminders(t)
		addKitItem(t, db, "Ekmek", "2026-10-10")
		addKitItem(t, db, "Süt", "2026-10-18")
		addKitItem(t, db, "Su", "2027-06-01")

		_, err := r.CheckNow(context.Background())
		require.NoError(t, err)

		reqs, _ := scheduler.snapshot()
		require.Len(t, reqs, 1)
		assert.Equal(t, statusTitle, reqs[0].Title)
		assert.Contains(t, reqs[0].Body, "Süresi dolmuş 1 ürün: Ekmek")
		assert.Contains(t, reqs[0].Body, "7 gün içinde süresi dolacak 1 ürün: Süt")
		assert.NotContains(t, reqs[0].Body, "Su,")
	})
}

func TestRefresh(t *testing.T) {
	r, db, scheduler := setupReminders(t)
	ctx := context.Background()

	addKitItem(t, db, "Pil", "2026-12-01")
	addKitItem(t, db, "Ekmek", "2026-10-15")
	addKitItem(t, db, "Fener", "")

	require.NoError(t, r.Refresh(ctx))
	reqs, cancels := scheduler.snapshot()
	assert.Equal(t, 1, cancels)
	require.Len(t, reqs, 2)
	assert.Equal(t, kitCheckTitle, reqs[0].Title)
	assert.Contains(t, reqs[1].Body, "Pil")

	// повторный Refresh не дублирует напоминания
	require.NoError(t, r.Refresh(ctx))
	reqs, cancels = scheduler.snapshot()
	assert.Equal(t, 2, cancels)
	assert.Len(t, reqs, 2)
}

func TestSubscribeRefreshesOnItemsChanged(t *testing.T) {
	r, db, scheduler := setupReminders(t)
	bus := events.NewEventBus(nil)
	unsubscribe := r.Subscribe(bus)

	addKitItem(t, db, "Pil", "2026-12-01")
	require.NoError(t, bus.PublishJSON(events.EventItemsChanged, events.ItemsChangedPayload{Action: events.ActionAdded}))

	reqs, cancels := scheduler.snapshot()
	assert.Equal(t, 1, cancels)
	assert.Len(t, reqs, 2)

	unsubscribe()
	require.NoError(t, bus.PublishJSON(events.EventItemsChanged, events.ItemsChangedPayload{Action: events.ActionAdded}))
	_, cancels = scheduler.snapshot()
	assert.Equal(t, 1, cancels)
}
