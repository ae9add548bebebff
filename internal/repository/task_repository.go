package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go" // <-- alias the client lib

	"ozzus/nsca-agent/internal/domain"
)

type TaskRepository interface {
	FetchTasks(ctx context.Context) ([]domain.Task, error)
	AckTask(ctx context.Context, taskID string) error
	NackTask(taskID string)
}

// EventConsumer is the part of kafka.Consumer the task repository needs.
type EventConsumer interface {
	ReadEvent(ctx context.Context, v interface{}) (kafkago.Message, error)
	CommitMessage(ctx context.Context, msg kafkago.Message) error
}

const (
	fetchWindow   = 5 * time.Second
	fetchMaxTasks = 100
)

type KafkaTaskRepository struct {
	consumer EventConsumer
	log      *slog.Logger

	mu       sync.Mutex
	messages map[string]kafkago.Message
}

func NewKafkaTaskRepository(consumer EventConsumer, log *slog.Logger) *KafkaTaskRepository {
	return &KafkaTaskRepository{
		consumer: consumer,
		log:      log,
		messages: make(map[string]kafkago.Message),
	}
}

// FetchTasks collects up to 100 tasks arriving within a five second window.
// Messages that do not decode into a usable task are committed and skipped.
func (r *KafkaTaskRepository) FetchTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task

	timeoutCtx, cancel := context.WithTimeout(ctx, fetchWindow)
	defer cancel()

	for len(tasks) < fetchMaxTasks {
		if timeoutCtx.Err() != nil {
			break
		}

		var task domain.Task
		msg, err := r.consumer.ReadEvent(timeoutCtx, &task)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
			if msg.Value == nil {
				return tasks, fmt.Errorf("failed to read event: %w", err)
			}
		}

		if err != nil || task.Host == "" || task.Type == "" {
			r.log.Warn("skipping malformed task", "offset", msg.Offset, "error", err)
			r.commit(ctx, msg)
			continue
		}

		if task.ID == "" {
			task.ID = uuid.NewString()
		}

		r.mu.Lock()
		r.messages[task.ID] = msg
		r.mu.Unlock()

		tasks = append(tasks, task)
	}

	return tasks, nil
}

func (r *KafkaTaskRepository) commit(ctx context.Context, msg kafkago.Message) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchWindow)
	defer cancel()

	if err := r.consumer.CommitMessage(commitCtx, msg); err != nil {
		r.log.Warn("failed to commit skipped message", "offset", msg.Offset, "error", err)
	}
}

func (r *KafkaTaskRepository) AckTask(ctx context.Context, taskID string) error {
	r.mu.Lock()
	msg, ok := r.messages[taskID]
	r.mu.Unlock()

	if !ok {
		return nil
	}

	const maxRetries = 3

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return ctx.Err()
			}
			if remaining < timeout {
				timeout = remaining
			}
		}

		commitCtx, cancel := context.WithTimeout(context.Background(), timeout)

		if err := r.consumer.CommitMessage(commitCtx, msg); err != nil {
			cancel()
			lastErr = err

			if ctx.Err() != nil {
				break
			}

			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}

		cancel()

		r.mu.Lock()
		delete(r.messages, taskID)
		r.mu.Unlock()

		return nil
	}

	return fmt.Errorf("failed to commit message: %w", lastErr)
}

func (r *KafkaTaskRepository) NackTask(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, taskID)
}

// StaticTaskRepository serves the same configured tasks on every poll.
type StaticTaskRepository struct {
	tasks []domain.Task
}

// NewStaticTaskRepository copies tasks, giving an id to each task that
// has none.
func NewStaticTaskRepository(tasks []domain.Task) *StaticTaskRepository {
	out := make([]domain.Task, len(tasks))
	now := time.Now()
	for i, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		out[i] = t
	}
	return &StaticTaskRepository{tasks: out}
}

func (r *StaticTaskRepository) FetchTasks(ctx context.Context) ([]domain.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	tasks := make([]domain.Task, len(r.tasks))
	for i, t := range r.tasks {
		t.ScheduledAt = now
		tasks[i] = t
	}
	return tasks, nil
}

func (r *StaticTaskRepository) AckTask(context.Context, string) error { return nil }

func (r *StaticTaskRepository) NackTask(string) {}
