package repository

import (
	"context"
	"fmt"
	"log/slog"

	"ozzus/nsca-agent/internal/domain"
)

type ResultRepository interface {
	SendResult(ctx context.Context, result domain.CheckResult) error
	SendLog(ctx context.Context, logEntry domain.LogEntry) error
}

// Sender delivers one passive check result. *nsca.Client implements it.
type Sender interface {
	Send(ctx context.Context, result domain.CheckResult) error
}

// EventPublisher is the part of kafka.Producer used for the log stream.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// NscaResultRepository submits results to the NSCA daemon. Log entries go
// to the Kafka log topic when a publisher is set and to the local logger
// otherwise.
type NscaResultRepository struct {
	sender Sender
	logs   EventPublisher
	log    *slog.Logger
}

func NewNscaResultRepository(sender Sender, logs EventPublisher, log *slog.Logger) *NscaResultRepository {
	return &NscaResultRepository{
		sender: sender,
		logs:   logs,
		log:    log,
	}
}

func (r *NscaResultRepository) SendResult(ctx context.Context, result domain.CheckResult) error {
	if err := r.sender.Send(ctx, result); err != nil {
		return fmt.Errorf("failed to submit result for %s: %w", describe(result), err)
	}

	r.log.Debug("result submitted",
		"host", result.Host,
		"service", result.Service,
		"state", result.ReturnCode.String())

	return nil
}

func (r *NscaResultRepository) SendLog(ctx context.Context, logEntry domain.LogEntry) error {
	if r.logs == nil {
		level := slog.LevelInfo
		if logEntry.Level == domain.LogLevelError {
			level = slog.LevelError
		}
		r.log.Log(ctx, level, logEntry.Message,
			"task_id", logEntry.TaskID,
			"host", logEntry.Host,
			"service", logEntry.Service,
			"state", logEntry.State)
		return nil
	}

	key := fmt.Sprintf("%s-%d", logEntry.TaskID, logEntry.Timestamp.UnixNano())
	if err := r.logs.PublishEvent(ctx, key, logEntry); err != nil {
		return fmt.Errorf("failed to publish log: %w", err)
	}
	return nil
}

func describe(r domain.CheckResult) string {
	if r.IsHostCheck() {
		return "host " + r.Host
	}
	return r.Host + "/" + r.Service
}
