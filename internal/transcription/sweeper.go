package transcription

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/talentview/transcription-worker/internal/transcription/domain"
)

// Sweeper default settings
const (
	DefaultSweepInterval  = 30 * time.Second
	DefaultBackoffStep    = 10 * time.Second
	DefaultCooldown       = 300 * time.Second
	DefaultFailureCeiling = 5
	DefaultBatchSize      = 10
)

// SweeperConfig holds periodic sweep configuration
type SweeperConfig struct {
	Interval       time.Duration
	BackoffStep    time.Duration
	Cooldown       time.Duration
	FailureCeiling int
	BatchSize      int
}

type recordProcessor interface {
	Process(ctx context.Context, responseID string) error
}

// Sweeper periodically discovers pending video responses and runs them
// through the processor. It catches records whose webhook delivery failed.
// Repeated query failures back off linearly up to a ceiling, then take a
// long cooldown before starting over.
type Sweeper struct {
	store     Store
	processor recordProcessor
	config    SweeperConfig
	logger    *slog.Logger

	consecutiveFailures int

	// sleep is swappable so tests can observe the computed delays
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSweeper creates a new Sweeper instance; zero config fields take the
// package defaults.
func NewSweeper(store Store, processor recordProcessor, config SweeperConfig, logger *slog.Logger) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweepInterval
	}
	if config.BackoffStep <= 0 {
		config.BackoffStep = DefaultBackoffStep
	}
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultCooldown
	}
	if config.FailureCeiling <= 0 {
		config.FailureCeiling = DefaultFailureCeiling
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}

	return &Sweeper{
		store:     store,
		processor: processor,
		config:    config,
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// Run executes the sweep loop until the context is canceled. In-flight
// batch items are allowed to finish; only the sleep/requery cycle halts.
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Sweeper started",
		slog.Duration("interval", s.config.Interval),
		slog.Int("batch_size", s.config.BatchSize),
	)

	for {
		if ctx.Err() != nil {
			s.logger.Info("Sweeper stopped")
			return
		}

		if err := s.sweep(ctx); err != nil {
			s.consecutiveFailures++
			s.logger.Error("Sweep query failed",
				slog.String("error", err.Error()),
				slog.Int("consecutive_failures", s.consecutiveFailures),
			)

			if s.consecutiveFailures >= s.config.FailureCeiling {
				s.logger.Warn("Sweep failure ceiling reached, entering cooldown",
					slog.Duration("cooldown", s.config.Cooldown),
				)
				if err := s.sleep(ctx, s.config.Cooldown); err != nil {
					s.logger.Info("Sweeper stopped during cooldown")
					return
				}
				s.consecutiveFailures = 0
				// Restart immediately, skipping the inter-sweep delay
				continue
			}
		} else {
			s.consecutiveFailures = 0
		}

		if err := s.sleep(ctx, s.nextDelay()); err != nil {
			s.logger.Info("Sweeper stopped")
			return
		}
	}
}

// sweep runs one polling query plus its result batch. Only the query
// itself can fail the sweep; per-record failures are logged and the batch
// continues, so one poisoned record never blocks the rest. Cancellation
// stops the batch between items; the record already in flight finishes.
func (s *Sweeper) sweep(ctx context.Context) error {
	records, err := s.store.QueryPending(ctx, s.config.BatchSize)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		s.logger.Debug("No pending video responses")
		return nil
	}

	s.logger.Info("Found pending video responses",
		slog.Int("count", len(records)),
	)

	for i := range records {
		if ctx.Err() != nil {
			return nil
		}

		rec := &records[i]
		// Run the record on a context detached from shutdown cancellation.
		// A record aborted after the claim would be stuck in processing,
		// invisible to both the sweep query and any future trigger.
		if err := s.processor.Process(context.WithoutCancel(ctx), rec.ID); err != nil {
			if errors.Is(err, domain.ErrAlreadyClaimed) {
				s.logger.Info("Pending response taken by a concurrent trigger",
					slog.String("response_id", rec.ID),
				)
				continue
			}
			s.logger.Error("Failed to process pending response",
				slog.String("response_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// nextDelay computes the inter-sweep delay: the base interval plus a linear
// backoff step per consecutive query failure.
func (s *Sweeper) nextDelay() time.Duration {
	return s.config.Interval + time.Duration(s.consecutiveFailures)*s.config.BackoffStep
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
