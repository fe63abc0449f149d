package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/talentview/transcription-worker/internal/transcription"
	"github.com/talentview/transcription-worker/shared/rabbitmq"
)

// Processor runs one response record through the transcription lifecycle
type Processor interface {
	Process(ctx context.Context, responseID string) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	RabbitClient  *rabbitmq.Client
	Processor     Processor
	Sweeper       *transcription.Sweeper
	Concurrency   int
	PrefetchCount int
	QueueName     string
}

// Worker hosts the trigger consumer, the processing pool, and the
// periodic sweeper. Both intake paths funnel into the same Processor,
// which is what keeps duplicate triggers harmless.
type Worker struct {
	logger        *slog.Logger
	rabbitClient  *rabbitmq.Client
	processor     Processor
	sweeper       *transcription.Sweeper
	concurrency   int
	prefetchCount int
	queueName     string
	workerID      string
	triggerChan   chan *triggerDelivery
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// triggerDelivery pairs a parsed trigger with its broker delivery tag so
// the pool can ack or nack after processing.
type triggerDelivery struct {
	ResponseID  string
	DeliveryTag uint64
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		rabbitClient:  cfg.RabbitClient,
		processor:     cfg.Processor,
		sweeper:       cfg.Sweeper,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		queueName:     cfg.QueueName,
		workerID:      fmt.Sprintf("transcription-worker-%s", uuid.New().String()[:8]),
		triggerChan:   make(chan *triggerDelivery),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming triggers and sweeping for pending records. It
// blocks until the context is canceled (nil return) or the broker
// delivery channel closes unexpectedly (non-nil, so the caller can exit
// instead of degrading to sweep-only).
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnPool(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.sweeper.Run(ctx)
	}()

	return w.dispatch(ctx, deliveries)
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...",
		slog.String("worker_id", w.workerID),
	)
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
