package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozzus/nsca-agent/internal/domain"
)

type fakeConsumer struct {
	mu        sync.Mutex
	messages  []kafkago.Message
	committed []int64
	commitErr error
}

func (f *fakeConsumer) ReadEvent(_ context.Context, v interface{}) (kafkago.Message, error) {
	f.mu.Lock()
	if len(f.messages) == 0 {
		f.mu.Unlock()
		return kafkago.Message{}, context.DeadlineExceeded
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	f.mu.Unlock()

	if err := json.Unmarshal(msg.Value, v); err != nil {
		return msg, err
	}
	return msg, nil
}

func (f *fakeConsumer) CommitMessage(_ context.Context, msg kafkago.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, msg.Offset)
	return nil
}

func message(t *testing.T, offset int64, v interface{}) kafkago.Message {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return kafkago.Message{Offset: offset, Value: b}
}

func TestKafkaTaskRepositoryFetchAndAck(t *testing.T) {
	consumer := &fakeConsumer{}
	consumer.messages = []kafkago.Message{
		message(t, 1, domain.Task{ID: "t1", Type: domain.TaskTypeHTTP, Target: "example.com", Host: "web-01", Service: "http"}),
		{Offset: 2, Value: []byte("{not json")},
		message(t, 3, domain.Task{Type: domain.TaskTypeTCP, Target: "db:5432", Host: "db-01"}),
		message(t, 4, domain.Task{ID: "nohost", Type: domain.TaskTypeTCP}),
	}

	repo := NewKafkaTaskRepository(consumer, slog.New(slog.DiscardHandler))

	tasks, err := repo.FetchTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t1", tasks[0].ID)
	assert.NotEmpty(t, tasks[1].ID, "missing ids are generated")

	consumer.mu.Lock()
	assert.ElementsMatch(t, []int64{2, 4}, consumer.committed, "malformed messages are committed and skipped")
	consumer.mu.Unlock()

	require.NoError(t, repo.AckTask(context.Background(), "t1"))
	require.NoError(t, repo.AckTask(context.Background(), "unknown"))
	assert.Contains(t, consumer.committed, int64(1))

	repo.NackTask(tasks[1].ID)
	require.NoError(t, repo.AckTask(context.Background(), tasks[1].ID))
	assert.NotContains(t, consumer.committed, int64(3))
}

func TestKafkaTaskRepositoryAckFailure(t *testing.T) {
	consumer := &fakeConsumer{commitErr: errors.New("rebalance")}
	repo := NewKafkaTaskRepository(consumer, slog.New(slog.DiscardHandler))
	repo.messages["t1"] = kafkago.Message{Offset: 9}

	err := repo.AckTask(context.Background(), "t1")
	assert.ErrorContains(t, err, "rebalance")
}

func TestStaticTaskRepository(t *testing.T) {
	defs := []domain.Task{
		{ID: "web", Type: domain.TaskTypeHTTP, Target: "example.com", Host: "web-01"},
		{Type: domain.TaskTypePing, Target: "gw", Host: "gw-01"},
	}
	repo := NewStaticTaskRepository(defs)

	first, err := repo.FetchTasks(context.Background())
	require.NoError(t, err)
	second, err := repo.FetchTasks(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, "web", first[0].ID)
	assert.NotEmpty(t, first[1].ID)
	assert.Equal(t, first[1].ID, second[1].ID, "generated ids are stable")
	assert.Empty(t, defs[1].ID, "definitions are not modified")
	assert.False(t, first[0].ScheduledAt.IsZero())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = repo.FetchTasks(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
