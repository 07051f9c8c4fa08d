package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, policy.NextDelay(0))
	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 5*time.Second, policy.NextDelay(4))

	assert.Equal(t, time.Second, RetryPolicy{}.NextDelay(1))
	assert.Equal(t, 2*time.Second, RetryPolicy{}.NextDelay(2))
}

func TestRetryPolicyDo(t *testing.T) {
	fast := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	t.Run("success after retries", func(t *testing.T) {
		var calls []int
		err := fast.Do(context.Background(), func(attempt int) error {
			calls = append(calls, attempt)
			if attempt < 3 {
				return errors.New("temporary")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := fast.Do(context.Background(), func(int) error {
			calls++
			return errors.New("permanent")
		})
		assert.EqualError(t, err, "permanent")
		assert.Equal(t, 3, calls)
	})

	t.Run("no retries", func(t *testing.T) {
		calls := 0
		err := RetryPolicy{}.Do(context.Background(), func(int) error {
			calls++
			return errors.New("fail")
		})
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("context canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		slow := RetryPolicy{MaxRetries: 5, InitialDelay: time.Hour}
		calls := 0
		err := slow.Do(ctx, func(int) error {
			calls++
			cancel()
			return errors.New("fail")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
