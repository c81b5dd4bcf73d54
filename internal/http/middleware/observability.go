package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/metrics"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
)

// RequestLogger пишет по строке на запрос и обновляет HTTP метрики.
// Метка маршрута берётся из шаблона (c.FullPath), чтобы не раздувать кардинальность.
func RequestLogger(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		degraded := c.Writer.Header().Get(response.DegradedHeader) != ""

		if m != nil {
			m.ObserveHTTP(c.Request.Method, c.FullPath(), status, elapsed, degraded)
		}

		entry := logger.L().WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"client_ip":   c.ClientIP(),
		})
		if degraded {
			entry = entry.WithField("degraded", true)
		}
		switch {
		case status >= 500:
			entry.Error("запрос завершился ошибкой")
		case status >= 400:
			entry.Warn("запрос отклонён")
		default:
			entry.Debug("запрос обработан")
		}
	}
}
