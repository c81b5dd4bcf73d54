package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

// ContextUserIDKey: ключ gin.Context с ID пользователя из токена.
const ContextUserIDKey = "userID"

// AccessTokenParser проверяет access токен и возвращает subject.
type AccessTokenParser interface {
	ParseAccess(token string) (uuid.UUID, error)
}

// AuthMiddleware проверяет JWT access токен.
func AuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			response.Unauthorized(c, "authorization required")
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		userID, err := tokens.ParseAccess(raw)
		if err != nil || userID == uuid.Nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Next()
	}
}

// UserID достаёт пользователя, выставленного AuthMiddleware.
func UserID(c *gin.Context) (uuid.UUID, error) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	userID, ok := value.(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}
	return userID, nil
}
