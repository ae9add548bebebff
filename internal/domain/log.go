package domain

import "time"

type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelError LogLevel = "error"
)

// LogEntry is an agent event published to the log stream.
type LogEntry struct {
	TaskID    string    `json:"task_id"`
	AgentID   string    `json:"agent_id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Host      string    `json:"host,omitempty"`
	Service   string    `json:"service,omitempty"`
	State     string    `json:"state,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
