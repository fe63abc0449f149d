package transcription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talentview/transcription-worker/internal/transcription/domain"
)

type fakeProcessor struct {
	processed []string
	errs      map[string]error
}

func (f *fakeProcessor) Process(ctx context.Context, responseID string) error {
	f.processed = append(f.processed, responseID)
	if err, ok := f.errs[responseID]; ok {
		return err
	}
	return nil
}

func newTestSweeper(store Store, processor recordProcessor) *Sweeper {
	return NewSweeper(store, processor, SweeperConfig{
		Interval:       30 * time.Second,
		BackoffStep:    10 * time.Second,
		Cooldown:       300 * time.Second,
		FailureCeiling: 5,
		BatchSize:      10,
	}, testLogger())
}

func TestSweeper_NextDelay(t *testing.T) {
	s := newTestSweeper(&fakeStore{}, &fakeProcessor{})

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{name: "no failures", failures: 0, want: 30 * time.Second},
		{name: "one failure", failures: 1, want: 40 * time.Second},
		{name: "three failures", failures: 3, want: 60 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.consecutiveFailures = tt.failures
			assert.Equal(t, tt.want, s.nextDelay())
		})
	}
}

func TestSweeper_BackoffGrowsThenCoolsDownAtCeiling(t *testing.T) {
	store := &fakeStore{queryErr: errors.New("store unreachable")}
	s := newTestSweeper(store, &fakeProcessor{})

	ctx, cancel := context.WithCancel(context.Background())
	var delays []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		if len(delays) >= 6 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	s.Run(ctx)

	// Four failures back off linearly, the fifth hits the ceiling and takes
	// the cooldown with no inter-sweep delay, then the counter starts over.
	require.Len(t, delays, 6)
	assert.Equal(t, []time.Duration{
		40 * time.Second,
		50 * time.Second,
		60 * time.Second,
		70 * time.Second,
		300 * time.Second,
		40 * time.Second,
	}, delays)
}

func TestSweeper_SuccessResetsBackoff(t *testing.T) {
	store := &fakeStore{queryErr: errors.New("store unreachable")}
	s := newTestSweeper(store, &fakeProcessor{})

	ctx, cancel := context.WithCancel(context.Background())
	var delays []time.Duration
	s.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		if len(delays) == 2 {
			// Store comes back before the ceiling is reached
			store.queryErr = nil
		}
		if len(delays) >= 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	s.Run(ctx)

	require.Len(t, delays, 3)
	assert.Equal(t, 40*time.Second, delays[0])
	assert.Equal(t, 50*time.Second, delays[1])
	assert.Equal(t, 30*time.Second, delays[2])
	assert.Zero(t, s.consecutiveFailures)
}

func TestSweeper_Sweep_PoisonedRecordDoesNotAbortBatch(t *testing.T) {
	store := &fakeStore{
		pending: []domain.Record{
			{ID: "r1"},
			{ID: "r2"},
			{ID: "r3"},
		},
	}
	processor := &fakeProcessor{
		errs: map[string]error{
			"r2": errors.New("provider exploded"),
		},
	}
	s := newTestSweeper(store, processor)

	err := s.sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2", "r3"}, processor.processed)
}

func TestSweeper_Sweep_AlreadyClaimedIsSkipped(t *testing.T) {
	store := &fakeStore{
		pending: []domain.Record{{ID: "r1"}, {ID: "r2"}},
	}
	processor := &fakeProcessor{
		errs: map[string]error{
			"r1": domain.ErrAlreadyClaimed,
		},
	}
	s := newTestSweeper(store, processor)

	err := s.sweep(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, processor.processed)
}

// cancelingProcessor fires the given cancel during its first call and
// records whether its own context survived, the way an in-flight record
// sees a shutdown arriving mid-processing.
type cancelingProcessor struct {
	cancel    context.CancelFunc
	processed []string
	ctxErr    error
}

func (p *cancelingProcessor) Process(ctx context.Context, responseID string) error {
	p.processed = append(p.processed, responseID)
	p.cancel()
	p.ctxErr = ctx.Err()
	return nil
}

func TestSweeper_Sweep_InFlightRecordOutlivesCancel(t *testing.T) {
	store := &fakeStore{
		pending: []domain.Record{{ID: "r1"}, {ID: "r2"}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	processor := &cancelingProcessor{cancel: cancel}
	s := newTestSweeper(store, processor)

	err := s.sweep(ctx)
	require.NoError(t, err)

	// The dispatched record keeps a live context through the shutdown
	assert.NoError(t, processor.ctxErr)
	// The next item is never dispatched once the context is canceled
	assert.Equal(t, []string{"r1"}, processor.processed)
}

func TestSweeper_Sweep_RespectsBatchSize(t *testing.T) {
	var pending []domain.Record
	for _, id := range []string{"a", "b", "c", "d"} {
		pending = append(pending, domain.Record{ID: id})
	}
	store := &fakeStore{pending: pending}
	processor := &fakeProcessor{}

	s := NewSweeper(store, processor, SweeperConfig{BatchSize: 2}, testLogger())

	err := s.sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, processor.processed)
}

func TestSweeper_RunStopsPromptly(t *testing.T) {
	store := &fakeStore{}
	s := newTestSweeper(store, &fakeProcessor{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
	assert.Zero(t, store.queries)
}
