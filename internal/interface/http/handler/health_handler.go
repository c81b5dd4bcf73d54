package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger: зависимость, которую проверяет /health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc адаптирует функцию к Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// HealthHandler предоставляет endpoint для проверки здоровья сервиса.
type HealthHandler struct {
	database Pinger
	cache    Pinger
}

// NewHealthHandler создаёт новый health handler. cache может быть nil, если Redis не настроен.
func NewHealthHandler(database, cache Pinger) *HealthHandler {
	return &HealthHandler{database: database, cache: cache}
}

// HealthResponse представляет ответ health check.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
// База обязательна: без неё сервис отвечает 503. Кэш черновиков только понижает статус до degraded.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	status := "healthy"

	if err := h.database.PingContext(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = "unhealthy"
	} else {
		checks["database"] = "healthy"
	}

	switch {
	case h.cache == nil:
		checks["draft_cache"] = "disabled"
	case h.cache.PingContext(ctx) != nil:
		checks["draft_cache"] = "unhealthy"
		if status == "healthy" {
			status = "degraded"
		}
	default:
		checks["draft_cache"] = "healthy"
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	})
}
