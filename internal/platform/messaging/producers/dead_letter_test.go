package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/cash-register-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("WrapsOriginalMessage", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(newTestLogger(), mockWriter, "ledger_events_dlq", "ledger_events")
		producer.now = func() time.Time { return fixed }

		original := []byte(`{"broken":`)
		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 || string(msgs[0].Key) != "evt-1" {
				return false
			}
			var letter DeadLetter
			if err := json.Unmarshal(msgs[0].Value, &letter); err != nil {
				return false
			}
			return letter.OriginalKey == "evt-1" &&
				letter.OriginalValue == string(original) &&
				letter.Reason == "undecodable event" &&
				letter.SourceTopic == "ledger_events" &&
				letter.Timestamp == fixed.Format(time.RFC3339Nano) &&
				string(msgs[0].Headers[0].Value) == "undecodable event"
		})).Return(nil).Once()

		require.NoError(t, producer.PublishToDLQ(ctx, "evt-1", original, "undecodable event"))
		mockWriter.AssertExpectations(t)
	})

	t.Run("WriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(newTestLogger(), mockWriter, "ledger_events_dlq", "ledger_events")
		writerError := errors.New("kafka DLQ write error")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.PublishToDLQ(ctx, "k", []byte("v"), "reason")
		assert.ErrorIs(t, err, writerError)
	})

	t.Run("NilProducerIsDisabled", func(t *testing.T) {
		var producer *DLQProducer
		err := producer.PublishToDLQ(ctx, "k", []byte("v"), "reason")
		assert.ErrorIs(t, err, ErrDLQDisabled)
		assert.NoError(t, producer.Close())
	})
}

func TestDLQProducer_Close(t *testing.T) {
	mockWriter := new(MockKafkaWriter)
	producer := newDLQProducer(newTestLogger(), mockWriter, "ledger_events_dlq", "ledger_events")
	closeError := errors.New("kafka DLQ close error")
	mockWriter.On("Close").Return(closeError).Once()

	err := producer.Close()
	assert.ErrorIs(t, err, closeError)
	mockWriter.AssertExpectations(t)
}

func TestNewDLQProducer_DisabledWithoutTopic(t *testing.T) {
	producer, err := NewDLQProducer(context.Background(), newTestLogger(), &config.KafkaConfig{Brokers: "localhost:9092"})
	require.NoError(t, err)
	assert.Nil(t, producer)
}
