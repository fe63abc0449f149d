package worker

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatchWorker() (*Worker, *recordingProcessor) {
	processor := &recordingProcessor{}
	w := NewWorker(&Config{
		Logger:    testLogger(),
		Processor: processor,
		QueueName: "transcriptions_queue",
	})
	return w, processor
}

func TestDispatch_ClosedDeliveryChannelReturnsError(t *testing.T) {
	w, _ := newDispatchWorker()

	deliveries := make(chan amqp.Delivery)
	close(deliveries)

	err := w.dispatch(context.Background(), deliveries)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery channel closed")
}

func TestDispatch_ContextCancelReturnsNil(t *testing.T) {
	w, _ := newDispatchWorker()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := w.dispatch(ctx, make(chan amqp.Delivery))

	assert.NoError(t, err)
}

func TestDispatch_ValidTriggerReachesPool(t *testing.T) {
	w, _ := newDispatchWorker()

	deliveries := make(chan amqp.Delivery, 1)
	deliveries <- amqp.Delivery{
		Body:        []byte(`{"response_id": "r1"}`),
		DeliveryTag: 3,
	}

	done := make(chan error, 1)
	go func() {
		done <- w.dispatch(context.Background(), deliveries)
	}()

	trigger := <-w.triggerChan
	assert.Equal(t, "r1", trigger.ResponseID)
	assert.Equal(t, uint64(3), trigger.DeliveryTag)

	close(deliveries)
	require.Error(t, <-done)
}
