package http

import (
	"context"
	"net/http"
	"time"

	"ozzus/nsca-agent/internal/domain"

	"github.com/gin-gonic/gin"
)

// AgentService is what the controller reports on.
type AgentService interface {
	HealthCheck(ctx context.Context) error
	GetStatus() domain.AgentStatus
}

type HealthController struct {
	agentService AgentService
	agentID      string
	version      string
}

func NewHealthController(agentService AgentService, agentID, version string) *HealthController {
	return &HealthController{
		agentService: agentService,
		agentID:      agentID,
		version:      version,
	}
}

// Health handler для проверки работоспособности агента
func (h *HealthController) Health(c *gin.Context) {

	if err := h.agentService.HealthCheck(c.Request.Context()); err != nil {
		response := domain.HealthResponse{
			Status:    domain.HealthStatusUnhealthy,
			Timestamp: time.Now(),
			AgentID:   h.agentID,
			Message:   err.Error(),
		}
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	response := domain.HealthResponse{
		Status:    domain.HealthStatusHealthy,
		Timestamp: time.Now(),
		AgentID:   h.agentID,
		Message:   "Agent is running",
	}
	c.JSON(http.StatusOK, response)
}

// Status handler для получения детального статуса агента
func (h *HealthController) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.agentService.GetStatus())
}

// Ready handler для проверки готовности агента к работе
func (h *HealthController) Ready(c *gin.Context) {
	// Проверяем, что сервис запущен и основные компоненты работают
	if err := h.agentService.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "not_ready",
			"agent":     h.agentID,
			"message":   err.Error(),
			"timestamp": time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"agent":     h.agentID,
		"message":   "Agent is ready to process tasks",
		"timestamp": time.Now(),
	})
}

// Info handler для получения общей информации об агенте
func (h *HealthController) Info(c *gin.Context) {
	status := h.agentService.GetStatus()

	components := []domain.ComponentHealth{
		{Name: "task_processor", Status: runningState(status.Running)},
		{Name: "nsca_sender", Status: "configured", Details: gin.H{
			"address":    status.NSCAAddress,
			"encryption": status.Encryption,
		}},
	}

	info := gin.H{
		"agent_id":   h.agentID,
		"status":     status,
		"version":    h.version,
		"timestamp":  time.Now(),
		"components": components,
	}

	c.JSON(http.StatusOK, info)
}

func runningState(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}
