package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
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
	args := m.Called()
	return args.Error(0)
}

func message(t *testing.T, event Event) kafka.Message {
	t.Helper()
	value, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Key: event.Key(), Value: value}
}

func TestConsumer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := Event{Type: CompanyCreated, Aggregate: "companies", ID: 1}
	second := Event{Type: CompanyDeleted, Aggregate: "companies", ID: 1}

	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(message(t, first), nil).Once()
	reader.On("FetchMessage", mock.Anything).Return(message(t, second), nil).Once()
	reader.On("FetchMessage", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled)
	reader.On("CommitMessages", mock.Anything, mock.Anything).Return(nil)

	var handled []Event
	consumer := newConsumer(reader, zaptest.NewLogger(t))
	consumer.RegisterHandler(func(_ context.Context, event Event) error {
		handled = append(handled, event)
		return nil
	})

	consumer.Run(ctx)

	require.Len(t, handled, 2)
	assert.Equal(t, CompanyCreated, handled[0].Type)
	assert.Equal(t, CompanyDeleted, handled[1].Type)
	reader.AssertNumberOfCalls(t, "CommitMessages", 2)
}

func TestConsumer_HandlerErrorSkipsCommit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, recorded := observer.New(zap.ErrorLevel)
	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(message(t, Event{Type: ProductUpdated, ID: 4}), nil).Once()
	reader.On("FetchMessage", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled)

	consumer := newConsumer(reader, zap.New(core))
	consumer.RegisterHandler(func(context.Context, Event) error {
		return errors.New("downstream unavailable")
	})

	consumer.Run(ctx)

	assert.Equal(t, 1, recorded.FilterMessage("Failed to handle event").Len())
	reader.AssertNotCalled(t, "CommitMessages", mock.Anything, mock.Anything)
}

func TestConsumer_MalformedMessageIsCommitted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core, recorded := observer.New(zap.ErrorLevel)
	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(kafka.Message{Value: []byte("{not json")}, nil).Once()
	reader.On("FetchMessage", mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled)
	reader.On("CommitMessages", mock.Anything, mock.Anything).Return(nil)

	consumer := newConsumer(reader, zap.New(core))
	consumer.Run(ctx)

	assert.Equal(t, 1, recorded.FilterMessage("Failed to parse event").Len())
	reader.AssertNumberOfCalls(t, "CommitMessages", 1)
}

func TestConsumer_Close(t *testing.T) {
	reader := new(MockKafkaReader)
	reader.On("Close").Return(nil)

	newConsumer(reader, zaptest.NewLogger(t)).Close()

	reader.AssertCalled(t, "Close")
}
