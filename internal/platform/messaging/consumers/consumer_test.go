package consumers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/cash-register-ledger/internal/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockKafkaReader struct {
	mock.Mock
}

func (m *MockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *MockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaReader) Close() error {
	return m.Called().Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}

func TestNewKafkaConsumer(t *testing.T) {
	cfg := &config.KafkaConfig{
		Brokers:       "localhost:9092",
		EventTopic:    "ledger_events",
		ConsumerGroup: "ledger-event-archiver",
		MinBytes:      1024,
		MaxBytes:      10240,
		MaxWait:       time.Second,
	}

	consumer := NewKafkaConsumer(newTestLogger(), cfg)
	require.NotNil(t, consumer)
	require.NotNil(t, consumer.reader)
	assert.Equal(t, "ledger_events", consumer.topic)
	assert.Equal(t, "ledger-event-archiver", consumer.groupID)
	assert.NoError(t, consumer.Close())
}

func TestKafkaConsumer_Consume(t *testing.T) {
	t.Run("CommitsOnlyHandledMessages", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reader := new(MockKafkaReader)
		good := kafka.Message{Topic: "ledger_events", Key: []byte("a"), Value: []byte("ok"), Offset: 1}
		bad := kafka.Message{Topic: "ledger_events", Key: []byte("b"), Value: []byte("fail"), Offset: 2}

		reader.On("FetchMessage", mock.Anything).Return(good, nil).Once()
		reader.On("FetchMessage", mock.Anything).Return(bad, nil).Once()
		reader.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).
			Return(kafka.Message{}, context.Canceled).Once()
		reader.On("CommitMessages", mock.Anything, []kafka.Message{good}).Return(nil).Once()

		var handled []string
		consumer := newKafkaConsumer(newTestLogger(), reader, "ledger_events", "group")
		err := consumer.Consume(ctx, func(_ context.Context, key, value []byte) error {
			handled = append(handled, string(key))
			if string(value) == "fail" {
				return errors.New("handler failed")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, handled)
		reader.AssertExpectations(t)
	})

	t.Run("RetriesAfterFetchError", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		reader := new(MockKafkaReader)
		reader.On("FetchMessage", mock.Anything).Return(kafka.Message{}, errors.New("broker down")).Once()
		reader.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).
			Return(kafka.Message{}, context.Canceled).Once()

		consumer := newKafkaConsumer(newTestLogger(), reader, "ledger_events", "group")
		consumer.retryDelay = time.Millisecond

		err := consumer.Consume(ctx, func(context.Context, []byte, []byte) error {
			t.Fatal("handler must not run")
			return nil
		})
		require.NoError(t, err)
		reader.AssertExpectations(t)
	})
}

func TestKafkaConsumer_Close(t *testing.T) {
	t.Run("CloseWithNilReader", func(t *testing.T) {
		consumer := &KafkaConsumer{logger: newTestLogger()}
		require.NoError(t, consumer.Close())
	})

	t.Run("ClosesReader", func(t *testing.T) {
		reader := new(MockKafkaReader)
		reader.On("Close").Return(nil).Once()
		consumer := newKafkaConsumer(newTestLogger(), reader, "ledger_events", "group")
		require.NoError(t, consumer.Close())
		reader.AssertExpectations(t)
	})
}
