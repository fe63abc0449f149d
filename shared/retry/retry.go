package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy is a bounded fixed-delay retry policy. The zero value is not
// usable; construct with NewPolicy.
type Policy struct {
	Attempts int
	Delay    time.Duration

	// sleep is swappable so tests can run the policy against a fake clock
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPolicy creates a retry policy with the given attempt budget and
// inter-attempt delay.
func NewPolicy(attempts int, delay time.Duration) *Policy {
	if attempts <= 0 {
		attempts = 1
	}
	return &Policy{
		Attempts: attempts,
		Delay:    delay,
		sleep:    sleepCtx,
	}
}

// WithSleep returns a copy of the policy using the given sleep function.
func (p *Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Policy {
	cp := *p
	cp.sleep = sleep
	return &cp
}

// Do runs fn until it succeeds, the attempt budget is spent, or the context
// is canceled. The last error is returned wrapped with the attempt count.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt < p.Attempts {
			if err := sleep(ctx, p.Delay); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("after %d attempts: %w", p.Attempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
