package service

import (
	"context"
	"fmt"
	"time"

	"depremkit/internal/domain"
	"depremkit/internal/events"
	"depremkit/internal/expiry"
	"depremkit/internal/metrics"
	"depremkit/internal/models"

	"github.com/rs/zerolog"
)

// KitService is the input boundary over the item store: it validates, writes
// and announces every change on the event bus.
type KitService struct {
	store       domain.ItemStore
	events      domain.EventPublisher
	logger      *zerolog.Logger
	warningDays int
}

func NewKitService(store domain.ItemStore, publisher domain.EventPublisher, warningDays int, logger *zerolog.Logger) *KitService {
	if warningDays <= 0 {
		warningDays = models.DefaultWarningDays
	}
	return &KitService{
		store:       store,
		events:      publisher,
		logger:      logger,
		warningDays: warningDays,
	}
}

func (s *KitService) Now() time.Time {
	return s.store.Now()
}

func (s *KitService) WarningDays() int {
	return s.warningDays
}

func (s *KitService) publish(action string, ids ...int64) {
	metrics.IncItemMutation(action)
	if s.events == nil {
		return
	}
	payload := events.ItemsChangedPayload{Action: action, ItemIDs: ids}
	if err := s.events.PublishJSON(events.EventItemsChanged, payload); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("failed to publish items changed")
	}
}

func (s *KitService) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.store.GetAll(ctx)
}

func (s *KitService) ListByCategory(ctx context.Context, categoryID string) ([]models.Item, error) {
	return s.store.GetByCategory(ctx, categoryID)
}

func (s *KitService) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return item, nil
}

func (s *KitService) AddItem(ctx context.Context, item models.NewItem) (*models.Item, error) {
	if err := ValidateNewItem(&item); err != nil {
		return nil, err
	}

	id, err := s.store.Add(ctx, item)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("item_id", id).Str("name", item.Name).Str("category", item.Category).Msg("item added")
	s.publish(events.ActionAdded, id)

	return s.reload(ctx, id, func() *models.Item {
		now := s.store.Now()
		return &models.Item{
			ID: id, Name: item.Name, Category: item.Category, Quantity: item.Quantity, Unit: item.Unit,
			ExpirationDate: item.ExpirationDate, Notes: item.Notes, IsChecked: item.IsChecked,
			CreatedAt: now, UpdatedAt: now,
		}
	})
}

// reload reads id back after a successful write. The store swallows read
// faults, so a missing row falls back to what the caller knows.
func (s *KitService) reload(ctx context.Context, id int64, fallback func() *models.Item) (*models.Item, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		s.logger.Warn().Int64("item_id", id).Msg("written item could not be read back")
		return fallback(), nil
	}
	return item, nil
}

func (s *KitService) UpdateItem(ctx context.Context, id int64, patch models.ItemPatch) (*models.Item, error) {
	if err := ValidatePatch(&patch); err != nil {
		return nil, err
	}
	existing, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("item_id", id).Msg("item updated")
	s.publish(events.ActionUpdated, id)

	return s.reload(ctx, id, func() *models.Item { return existing })
}

// SetChecked toggles the packed flag of one item.
func (s *KitService) SetChecked(ctx context.Context, id int64, checked bool) (*models.Item, error) {
	return s.UpdateItem(ctx, id, models.ItemPatch{IsChecked: &checked})
}

func (s *KitService) DeleteItem(ctx context.Context, id int64) error {
	found, err := s.store.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("item_id", id).Msg("item deleted")
	s.publish(events.ActionDeleted, id)
	return nil
}

func (s *KitService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn().Int64("count", n).Msg("kit cleared")
	s.publish(events.ActionCleared)
	return n, nil
}

func (s *KitService) Expired(ctx context.Context) ([]models.Item, error) {
	return s.store.GetExpired(ctx)
}

func (s *KitService) ExpiringSoon(ctx context.Context, days int) ([]models.Item, error) {
	return s.store.GetExpiringSoon(ctx, days)
}

// Classify returns the freshness of item now; false when it does not expire
// or its date cannot be parsed.
func (s *KitService) Classify(item models.Item, threshold int) (expiry.Verdict, bool) {
	v, err := expiry.ClassifyItem(item, s.store.Now(), threshold)
	if err != nil {
		return expiry.Verdict{}, false
	}
	return v, true
}

func (s *KitService) Summary(ctx context.Context) (*domain.KitSummary, error) {
	items, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	summary := &domain.KitSummary{Total: len(items), Categories: make(map[string]int)}
	for _, item := range items {
		summary.Categories[item.Category]++
		if item.IsChecked {
			summary.Checked++
		}
		v, ok := s.Classify(item, s.warningDays)
		if !ok {
			summary.NoExpiry++
			continue
		}
		switch v.Status {
		case expiry.StatusExpired:
			summary.Expired++
		case expiry.StatusExpiring:
			summary.Expiring++
		}
	}
	return summary, nil
}

// ApplyRecommendation adds every recommended item through the regular add
// path. On failure the ids added so far are returned with the error.
func (s *KitService) ApplyRecommendation(ctx context.Context, rec *models.Recommendation) ([]int64, error) {
	if rec == nil {
		return nil, nil
	}

	ids := make([]int64, 0, len(rec.Items))
	var failure error
	for i, item := range rec.Items {
		if err := ValidateNewItem(&item); err != nil {
			failure = fmt.Errorf("recommended item %d: %w", i, err)
			break
		}
		id, err := s.store.Add(ctx, item)
		if err != nil {
			failure = fmt.Errorf("recommended item %d: %w", i, err)
			break
		}
		ids = append(ids, id)
	}

	if len(ids) > 0 {
		s.logger.Info().Int("count", len(ids)).Msg("recommendation applied")
		s.publish(events.ActionRecommended, ids...)
	}
	return ids, failure
}
