package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"ozzus/nsca-agent/internal/api/http/middleware"
)

// NewRouter serves the health endpoints and, when metrics is not nil,
// the Prometheus scrape endpoint.
func NewRouter(healthController *HealthController, metrics http.Handler, log *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(log))

	router.GET("/health", healthController.Health)
	router.GET("/status", healthController.Status)
	router.GET("/ready", healthController.Ready)
	router.GET("/info", healthController.Info)

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	return router
}
