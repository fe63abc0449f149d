package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer configures QoS on the broker channel and starts the
// manual-ack consumer.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	if err := channel.Qos(w.prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.String("queue", w.queueName),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	return deliveries, nil
}

// dispatch reads broker deliveries and hands parsed triggers to the pool.
// Response ids are opaque strings; the only thing a trigger must carry is
// a non-empty one. A canceled context returns nil; a delivery channel that
// closes on its own is an error, otherwise the service would quietly keep
// running on the sweep path alone.
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	w.logger.Info("Trigger dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Trigger dispatcher stopped - context canceled")
			return nil

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Error("RabbitMQ delivery channel closed")
				return fmt.Errorf("rabbitmq delivery channel closed")
			}

			var msg struct {
				ResponseID string `json:"response_id"`
			}

			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				w.logger.Error("Failed to parse trigger message",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// Malformed triggers can never succeed; drop without requeue.
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed trigger",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if msg.ResponseID == "" {
				w.logger.Error("Trigger message missing response_id",
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK empty trigger",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			trigger := &triggerDelivery{
				ResponseID:  msg.ResponseID,
				DeliveryTag: delivery.DeliveryTag,
			}

			select {
			case w.triggerChan <- trigger:
				w.logger.Debug("Trigger dispatched to pool",
					slog.String("response_id", msg.ResponseID),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Trigger dispatcher stopped while dispatching")
				// Let the broker redeliver; the claim keeps a second run harmless.
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK trigger on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return nil
			}
		}
	}
}
