package domain

import (
	"context"
	"time"

	"depremkit/internal/expiry"
	"depremkit/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ItemStore is the persistent kit inventory.
type ItemStore interface {
	GetAll(ctx context.Context) ([]models.Item, error)
	GetByCategory(ctx context.Context, categoryID string) ([]models.Item, error)
	Get(ctx context.Context, id int64) (*models.Item, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Add(ctx context.Context, item models.NewItem) (int64, error)
	Update(ctx context.Context, id int64, patch models.ItemPatch) error
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	GetExpired(ctx context.Context) ([]models.Item, error)
	GetExpiringSoon(ctx context.Context, daysAhead int) ([]models.Item, error)
	Count(ctx context.Context) (int, error)
	Now() time.Time
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// NotificationRepository keeps the notifications a scheduler has accepted.
type NotificationRepository interface {
	Save(ctx context.Context, n *models.Notification) error
	Get(ctx context.Context, id string) (*models.Notification, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	List(ctx context.Context) ([]*models.Notification, error)
}

// Scheduler accepts notification requests and returns opaque identifiers.
type Scheduler interface {
	Schedule(ctx context.Context, req models.NotificationRequest) (string, error)
	Cancel(ctx context.Context, id string) error
	CancelAll(ctx context.Context) error
	Pending(ctx context.Context) ([]*models.Notification, error)
}

// Sender delivers a fired notification.
type Sender interface {
	Send(ctx context.Context, title, body string) error
}

type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Generator builds kit recommendations from a household profile.
type Generator interface {
	Generate(ctx context.Context, profile models.HouseholdProfile) (*models.Recommendation, error)
}

// KitSummary counts the kit for the check-up notification and the API.
type KitSummary struct {
	Total      int            `json:"total"`
	Checked    int            `json:"checked"`
	Expired    int            `json:"expired"`
	Expiring   int            `json:"expiring"`
	NoExpiry   int            `json:"no_expiry"`
	Categories map[string]int `json:"categories"`
}

type KitService interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	ListByCategory(ctx context.Context, categoryID string) ([]models.Item, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	AddItem(ctx context.Context, item models.NewItem) (*models.Item, error)
	UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error)
	SetChecked(ctx context.Context, id int64, checked bool) (*models.Item, error)
	DeleteItem(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context) (int64, error)
	Expired(ctx context.Context) ([]models.Item, error)
	ExpiringSoon(ctx context.Context, days int) ([]models.Item, error)
	Classify(item models.Item, threshold int) (expiry.Verdict, bool)
	Summary(ctx context.Context) (*KitSummary, error)
	ApplyRecommendation(ctx context.Context, rec *models.Recommendation) ([]int64, error)
	Now() time.Time
	WarningDays() int
}
