package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"ozzus/nsca-agent/internal/checks"
	"ozzus/nsca-agent/internal/domain"
	"ozzus/nsca-agent/internal/lib/logger/sl"
	"ozzus/nsca-agent/internal/metrics"
	"ozzus/nsca-agent/internal/repository"
)

type AgentService struct {
	taskRepo   repository.TaskRepository
	resultRepo repository.ResultRepository
	metrics    *metrics.Metrics
	log        *slog.Logger

	mu       sync.RWMutex
	checkers checks.Set

	agentID      string
	pollInterval time.Duration
	concurrency  int
	nscaAddress  string
	encryption   string

	running   atomic.Bool
	submitted atomic.Uint64
	failed    atomic.Uint64
	lastRun   atomic.Int64
}

type Config struct {
	AgentID      string
	PollInterval time.Duration
	Concurrency  int
	NSCAAddress  string
	Encryption   string
}

func NewAgentService(
	taskRepo repository.TaskRepository,
	resultRepo repository.ResultRepository,
	m *metrics.Metrics,
	log *slog.Logger,
	config Config,
) *AgentService {
	if config.PollInterval == 0 {
		config.PollInterval = 30 * time.Second
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 8
	}

	return &AgentService{
		taskRepo:     taskRepo,
		resultRepo:   resultRepo,
		metrics:      m,
		log:          log.With("component", "agent", "agent_id", config.AgentID),
		checkers:     make(checks.Set),
		agentID:      config.AgentID,
		pollInterval: config.PollInterval,
		concurrency:  config.Concurrency,
		nscaAddress:  config.NSCAAddress,
		encryption:   config.Encryption,
	}
}

// RegisterChecker регистрирует checker для определенного типа задач
func (s *AgentService) RegisterChecker(checker checks.Checker) {
	s.mu.Lock()
	s.checkers[checker.Type()] = checker
	total := len(s.checkers)
	s.mu.Unlock()

	s.log.Debug("checker registered", "task_type", checker.Type(), "total_checkers", total)
}

// Start polls for tasks until ctx is cancelled. The first poll runs
// immediately.
func (s *AgentService) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("agent service already running")
	}
	defer s.running.Store(false)

	s.log.Info("agent service started",
		"poll_interval", s.pollInterval,
		"concurrency", s.concurrency,
		"checkers", s.checkerCount())

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("failed to process tasks", sl.Err(err))
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			s.log.Info("agent service stopped")
			return nil
		}
	}
}

// RunOnce fetches one batch of tasks, runs them with bounded concurrency
// and submits every result.
func (s *AgentService) RunOnce(ctx context.Context) error {
	tasks, err := s.taskRepo.FetchTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch tasks: %w", err)
	}

	if len(tasks) == 0 {
		s.finishRun()
		return nil
	}

	s.log.Debug("found tasks to process", "task_count", len(tasks))

	var processed, skipped atomic.Int64

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, task := range tasks {
		p.Go(func() {
			if err := s.processTask(ctx, task); err != nil {
				s.log.Warn("task processing failed", "task_id", task.ID, sl.Err(err))
				s.taskRepo.NackTask(task.ID)
				skipped.Add(1)
				return
			}

			if err := s.taskRepo.AckTask(ctx, task.ID); err != nil {
				s.log.Error("failed to ack task", "task_id", task.ID, sl.Err(err))
			}
			processed.Add(1)
		})
	}
	p.Wait()

	s.finishRun()

	s.log.Info("tasks processing summary",
		"total", len(tasks),
		"processed", processed.Load(),
		"skipped", skipped.Load())

	return nil
}

func (s *AgentService) finishRun() {
	now := time.Now()
	s.lastRun.Store(now.UnixNano())
	s.metrics.ObserveRun(now)
}

// processTask runs the check and submits its result. A result the daemon
// can never accept is reported but not retried; transport failures are
// returned so the task is redelivered.
func (s *AgentService) processTask(ctx context.Context, task domain.Task) error {
	startTime := time.Now()
	s.mu.RLock()
	result := s.checkers.Run(ctx, task)
	s.mu.RUnlock()
	s.metrics.ObserveCheck(task.Type, result.ReturnCode, time.Since(startTime))

	submitStart := time.Now()
	err := s.resultRepo.SendResult(ctx, result)
	s.metrics.ObserveSubmission(err, time.Since(submitStart))

	if err != nil {
		s.failed.Add(1)
		s.sendLog(ctx, task, result, domain.LogLevelError, fmt.Sprintf("Result submission failed: %v", err))
		if errors.Is(err, domain.ErrValidation) {
			return nil
		}
		return err
	}

	s.submitted.Add(1)
	s.sendLog(ctx, task, result, domain.LogLevelInfo, fmt.Sprintf("Check completed with state: %s", result.ReturnCode))

	return nil
}

func (s *AgentService) sendLog(ctx context.Context, task domain.Task, result domain.CheckResult, level domain.LogLevel, message string) {
	entry := domain.LogEntry{
		TaskID:    task.ID,
		AgentID:   s.agentID,
		Level:     level,
		Message:   message,
		Host:      result.Host,
		Service:   result.Service,
		State:     result.ReturnCode.String(),
		Timestamp: time.Now(),
	}

	if err := s.resultRepo.SendLog(ctx, entry); err != nil {
		s.log.Warn("failed to send log", "task_id", task.ID, sl.Err(err))
	}
}

func (s *AgentService) checkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.checkers)
}

func (s *AgentService) HealthCheck(ctx context.Context) error {
	if !s.running.Load() {
		return fmt.Errorf("service is not running")
	}
	if s.checkerCount() == 0 {
		return fmt.Errorf("no checkers registered")
	}

	return nil
}

func (s *AgentService) GetStatus() domain.AgentStatus {
	status := domain.AgentStatus{
		AgentID:      s.agentID,
		Running:      s.running.Load(),
		PollInterval: s.pollInterval.String(),
		Checkers:     s.checkerCount(),
		NSCAAddress:  s.nscaAddress,
		Encryption:   s.encryption,
		Submitted:    s.submitted.Load(),
		Failed:       s.failed.Load(),
	}
	if ns := s.lastRun.Load(); ns != 0 {
		status.LastRun = time.Unix(0, ns)
	}
	return status
}
