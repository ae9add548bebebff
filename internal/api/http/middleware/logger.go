package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger middleware для логирования запросов
func Logger(log *slog.Logger) gin.HandlerFunc {
	log = log.With("component", "http")

	return func(c *gin.Context) {
		start := time.Now()

		// Продолжаем обработку запроса
		c.Next()

		log.Debug("request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
