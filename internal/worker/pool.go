package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/talentview/transcription-worker/internal/transcription/domain"
)

// spawnPool starts the processing goroutines
func (w *Worker) spawnPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.poolLoop(ctx, i)
	}
}

// poolLoop is the processing loop for one pool goroutine. Every consumed
// trigger ends in exactly one ack or nack.
func (w *Worker) poolLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Pool goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Pool goroutine stopping - stop requested",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Pool goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case trigger, ok := <-w.triggerChan:
			if !ok {
				return
			}

			w.handleTrigger(ctx, workerName, trigger)
		}
	}
}

// handleTrigger runs one trigger through the processor and settles the
// delivery. Processing runs on a context detached from shutdown
// cancellation: once a trigger is dispatched the record is about to be
// claimed, and aborting mid-run would strand it in processing with no
// trigger left to finish it.
func (w *Worker) handleTrigger(ctx context.Context, workerName string, trigger *triggerDelivery) {
	err := w.processor.Process(context.WithoutCancel(ctx), trigger.ResponseID)
	w.settle(workerName, trigger, err)
}

// settle acks or nacks the delivery based on the processing outcome.
// Terminal failures were already persisted on the record by the
// processor, so the trigger itself is done either way; only transient
// pre-claim errors are worth a redelivery.
func (w *Worker) settle(workerName string, trigger *triggerDelivery, err error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		w.logger.Error("No RabbitMQ channel to settle delivery",
			slog.String("worker_name", workerName),
			slog.String("response_id", trigger.ResponseID),
		)
		return
	}

	if err != nil && shouldRequeue(err) {
		w.logger.Warn("Transient failure, requeueing trigger",
			slog.String("worker_name", workerName),
			slog.String("response_id", trigger.ResponseID),
			slog.String("error", err.Error()),
		)
		if nackErr := channel.Nack(trigger.DeliveryTag, false, true); nackErr != nil {
			w.logger.Error("Failed to NACK trigger",
				slog.String("worker_name", workerName),
				slog.String("response_id", trigger.ResponseID),
				slog.String("error", nackErr.Error()),
			)
		}
		return
	}

	if err != nil && !errors.Is(err, domain.ErrAlreadyClaimed) {
		w.logger.Error("Trigger processing failed",
			slog.String("worker_name", workerName),
			slog.String("response_id", trigger.ResponseID),
			slog.String("error", err.Error()),
		)
	}

	if ackErr := channel.Ack(trigger.DeliveryTag, false); ackErr != nil {
		w.logger.Error("Failed to ACK trigger",
			slog.String("worker_name", workerName),
			slog.String("response_id", trigger.ResponseID),
			slog.String("error", ackErr.Error()),
		)
	}
}

// shouldRequeue reports whether a processing error deserves redelivery.
// Only transient failures that happen before the record is claimed are
// retryable; everything else either persisted a failed status or is a
// clean skip.
func shouldRequeue(err error) bool {
	var retryable *domain.RetryableError
	return errors.As(err, &retryable)
}
