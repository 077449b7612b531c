package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitaguide/backend/internal/domain/catalog"
)

func TestKafkaSyncPublisher_Handle(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	handler := NewKafkaSyncPublisher(producer, "catalog.sync_completed", zap.NewNop())

	event := catalog.NewSyncCompletedEvent(false, 10, 7, 2, 1, map[string]int{"Acme": 7}, 1500)

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "catalog.sync_completed" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != catalog.AggregateTypeCatalog {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})

	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, []string{catalog.EventTypeSyncCompleted}, handler.EventTypes())
	require.NoError(t, producer.Close())
}

func TestKafkaSyncPublisher_PayloadShape(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	handler := NewKafkaSyncPublisher(producer, "events", nil)

	event := catalog.NewSyncCompletedEvent(true, 4, 4, 0, 0, nil, 250)

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var envelope Envelope
		if err := json.Unmarshal(value, &envelope); err != nil {
			return err
		}
		var payload catalog.SyncCompletedEvent
		if err := json.Unmarshal(envelope.Payload, &payload); err != nil {
			return err
		}
		if envelope.Type != catalog.EventTypeSyncCompleted || envelope.ID != event.EventID().String() {
			return errors.New("envelope mismatch")
		}
		if !payload.Success || payload.Synced != 4 || payload.DurationMs != 250 {
			return errors.New("payload mismatch")
		}
		return nil
	})

	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, producer.Close())
}

func TestKafkaSyncPublisher_SendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	handler := NewKafkaSyncPublisher(producer, "events", zap.NewNop())

	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := handler.Handle(context.Background(), catalog.NewSyncCompletedEvent(true, 0, 0, 0, 0, nil, 0))

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}

func TestKafkaSyncPublisher_ThroughBus(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewKafkaSyncPublisher(producer, "events", zap.NewNop()))

	producer.ExpectSendMessageAndSucceed()

	require.NoError(t, bus.Publish(context.Background(),
		catalog.NewSyncCompletedEvent(true, 1, 1, 0, 0, nil, 5),
		newTestEvent("unrelated"),
	))
	require.NoError(t, producer.Close())
}
