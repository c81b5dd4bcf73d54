package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
)

// KeyFunc выбирает, по чему считать лимит.
type KeyFunc func(c *gin.Context) string

// ByClientIP: лимит на IP, для публичных маршрутов.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByUser: лимит на пользователя; без авторизации падаем обратно на IP.
func ByUser(c *gin.Context) string {
	if userID, err := UserID(c); err == nil {
		return "user:" + userID.String()
	}
	return "ip:" + c.ClientIP()
}

// RateLimitMiddleware создаёт middleware для ограничения количества запросов.
// По умолчанию: 10 запросов в минуту.
func RateLimitMiddleware(limit int64, period time.Duration, key KeyFunc) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = 1 * time.Minute
	}
	if key == nil {
		key = ByClientIP
	}

	rate := limiter.Rate{
		Period: period,
		Limit:  limit,
	}
	instance := limiter.New(memory.NewStore(), rate)

	return func(c *gin.Context) {
		lctx, err := instance.Get(c, key(c))
		if err != nil {
			// Лимитер в памяти: при сбое пропускаем запрос, а не роняем API.
			logger.L().WithError(err).Warn("ошибка лимитера запросов")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", lctx.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", lctx.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", lctx.Reset))

		if lctx.Reached {
			response.TooManyRequests(c, "too many requests, try again later")
			return
		}

		c.Next()
	}
}
