package repository

import (
	"context"
	"sort"
	"sync"

	"depremkit/internal/models"
)

type MemoryNotificationRepository struct {
	notifications sync.Map
}

func NewMemoryNotificationRepository() *MemoryNotificationRepository {
	return &MemoryNotificationRepository{}
}

func (r *MemoryNotificationRepository) Save(_ context.Context, n *models.Notification) error {
	stored := *n
	r.notifications.Store(n.ID, &stored)
	return nil
}

func (r *MemoryNotificationRepository) Get(_ context.Context, id string) (*models.Notification, error) {
	val, ok := r.notifications.Load(id)
	if !ok {
		return nil, nil
	}
	n := *val.(*models.Notification)
	return &n, nil
}

func (r *MemoryNotificationRepository) Delete(_ context.Context, id string) error {
	r.notifications.Delete(id)
	return nil
}

func (r *MemoryNotificationRepository) DeleteAll(_ context.Context) error {
	r.notifications.Range(func(key, _ any) bool {
		r.notifications.Delete(key)
		return true
	})
	return nil
}

func (r *MemoryNotificationRepository) List(_ context.Context) ([]*models.Notification, error) {
	var out []*models.Notification
	r.notifications.Range(func(_, val any) bool {
		n := *val.(*models.Notification)
		out = append(out, &n)
		return true
	})
	sortByFireAt(out)
	return out, nil
}

func sortByFireAt(list []*models.Notification) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].FireAt.Equal(list[j].FireAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].FireAt.Before(list[j].FireAt)
	})
}
