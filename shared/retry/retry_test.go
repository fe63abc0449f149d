package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_Do(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		name       string
		attempts   int
		failures   int
		wantErr    bool
		wantCalls  int
		wantSleeps int
	}{
		{
			name:       "first attempt succeeds",
			attempts:   3,
			failures:   0,
			wantErr:    false,
			wantCalls:  1,
			wantSleeps: 0,
		},
		{
			name:       "succeeds after two failures",
			attempts:   3,
			failures:   2,
			wantErr:    false,
			wantCalls:  3,
			wantSleeps: 2,
		},
		{
			name:       "budget exhausted",
			attempts:   3,
			failures:   5,
			wantErr:    true,
			wantCalls:  3,
			wantSleeps: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			sleeps := 0

			policy := NewPolicy(tt.attempts, 500*time.Millisecond).
				WithSleep(func(ctx context.Context, d time.Duration) error {
					sleeps++
					assert.Equal(t, 500*time.Millisecond, d)
					return nil
				})

			err := policy.Do(context.Background(), func(ctx context.Context) error {
				calls++
				if calls <= tt.failures {
					return errBoom
				}
				return nil
			})

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errBoom)
				assert.Contains(t, err.Error(), "after 3 attempts")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls)
			assert.Equal(t, tt.wantSleeps, sleeps)
		})
	}
}

func TestPolicy_Do_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	policy := NewPolicy(3, time.Second)
	err := policy.Do(ctx, func(ctx context.Context) error {
		calls++
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestPolicy_Do_CancelDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	policy := NewPolicy(3, time.Minute).
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		})

	err := policy.Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.New("transient")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNewPolicy_MinimumAttempts(t *testing.T) {
	policy := NewPolicy(0, time.Second)
	assert.Equal(t, 1, policy.Attempts)
}
