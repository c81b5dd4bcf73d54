package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
)

// UUIDValidator проверяет, что параметры с указанными именами являются валидными UUID.
// Использование: router.GET("/proposals/:ownerId/:id", UUIDValidator("ownerId", "id"), handler.Get)
func UUIDValidator(paramNames ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range paramNames {
			raw := c.Param(name)
			if raw == "" {
				response.BadRequest(c, name+" is required")
				c.Abort()
				return
			}
			if _, err := uuid.Parse(raw); err != nil {
				response.BadRequest(c, name+" must be a valid UUID")
				c.Abort()
				return
			}
		}
		c.Next()
	}
}
