package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"depremkit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Save(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockRepo) Get(ctx context.Context, id string) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRepo) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context) ([]*models.Notification, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Notification), args.Error(1)
}

func TestFailoverNotificationRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := NewMemoryNotificationRepository()
	logger := zerolog.New(io.Discard)
	repo := NewFailoverNotificationRepository(primary, fallback, &logger)
	ctx := context.Background()

	clock := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	t.Run("PrimarySuccess", func(t *testing.T) {
		n := notification("p1", clock)
		primary.On("Save", ctx, n).Return(nil).Once()

		require.NoError(t, repo.Save(ctx, n))
		assert.False(t, repo.Degraded())
		primary.AssertExpectations(t)

		fromFallback, _ := fallback.Get(ctx, "p1")
		assert.Nil(t, fromFallback)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		n := notification("f1", clock)
		primary.On("Save", ctx, n).Return(errors.New("fail")).Once()

		require.NoError(t, repo.Save(ctx, n))
		assert.True(t, repo.Degraded())
		primary.AssertExpectations(t)

		fromFallback, _ := fallback.Get(ctx, "f1")
		assert.NotNil(t, fromFallback)
	})

	t.Run("StaysOnFallbackWithinInterval", func(t *testing.T) {
		clock = clock.Add(30 * time.Second)
		got, err := repo.Get(ctx, "f1")
		require.NoError(t, err)
		require.NotNil(t, got)
		primary.AssertNotCalled(t, "Get", ctx, "f1")
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		primary.On("List", ctx).Return([]*models.Notification{notification("p1", clock)}, nil).Once()

		list, err := repo.List(ctx)
		require.NoError(t, err)
		assert.False(t, repo.Degraded())

		var got []string
		for _, n := range list {
			got = append(got, n.ID)
		}
		assert.ElementsMatch(t, []string{"p1", "f1"}, got)
		primary.AssertExpectations(t)
	})

	t.Run("DeleteClearsBoth", func(t *testing.T) {
		primary.On("Delete", ctx, "f1").Return(nil).Once()

		require.NoError(t, repo.Delete(ctx, "f1"))
		fromFallback, _ := fallback.Get(ctx, "f1")
		assert.Nil(t, fromFallback)
		primary.AssertExpectations(t)
	})

	t.Run("DeleteAllFailureDegrades", func(t *testing.T) {
		primary.On("DeleteAll", ctx).Return(errors.New("fail")).Once()

		require.NoError(t, repo.DeleteAll(ctx))
		assert.True(t, repo.Degraded())
		primary.AssertExpectations(t)
	})
}
