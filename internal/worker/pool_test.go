package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/talentview/transcription-worker/internal/transcription/domain"
	"github.com/talentview/transcription-worker/shared/rabbitmq"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingProcessor captures the ids it was asked to process and the
// context state it observed at call time.
type recordingProcessor struct {
	ids    []string
	ctxErr error
}

func (p *recordingProcessor) Process(ctx context.Context, responseID string) error {
	p.ids = append(p.ids, responseID)
	p.ctxErr = ctx.Err()
	return nil
}

func TestHandleTrigger_FinishesAfterShutdownCancel(t *testing.T) {
	processor := &recordingProcessor{}
	w := NewWorker(&Config{
		Logger:       testLogger(),
		RabbitClient: &rabbitmq.Client{},
		Processor:    processor,
		Concurrency:  1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w.handleTrigger(ctx, "w-0", &triggerDelivery{ResponseID: "r1", DeliveryTag: 7})

	// A dispatched trigger still runs to completion on a live context even
	// though shutdown cancellation already fired
	assert.Equal(t, []string{"r1"}, processor.ids)
	assert.NoError(t, processor.ctxErr)
}

func TestShouldRequeue(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "retryable store error is requeued",
			err:  domain.NewRetryableError(errors.New("connection reset")),
			want: true,
		},
		{
			name: "wrapped retryable error is requeued",
			err:  fmt.Errorf("sweep: %w", domain.NewRetryableError(errors.New("timeout"))),
			want: true,
		},
		{
			name: "already claimed is not requeued",
			err:  domain.ErrAlreadyClaimed,
			want: false,
		},
		{
			name: "record not found is not requeued",
			err:  domain.ErrRecordNotFound,
			want: false,
		},
		{
			name: "terminal processing failure is not requeued",
			err:  errors.New("transcription failed: boom"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRequeue(tt.err))
		})
	}
}
