package domain

import "time"

type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	AgentID   string       `json:"agent_id"`
	Message   string       `json:"message,omitempty"`
}

// ComponentHealth статус здоровья компонента
type ComponentHealth struct {
	Name    string      `json:"name"`
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// AgentStatus is the snapshot served by the status endpoint.
type AgentStatus struct {
	AgentID      string    `json:"agent_id"`
	Running      bool      `json:"is_running"`
	PollInterval string    `json:"poll_interval"`
	Checkers     int       `json:"checkers"`
	NSCAAddress  string    `json:"nsca_address"`
	Encryption   string    `json:"encryption"`
	Submitted    uint64    `json:"submitted"`
	Failed       uint64    `json:"failed"`
	LastRun      time.Time `json:"last_run,omitempty"`
}
