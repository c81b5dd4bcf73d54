package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
)

// ErrorHandler отдаёт ошибки, положенные в c.Errors, если обработчик не успел ответить.
// Заодно ловит паники, чтобы клиент получил конверт, а не оборванное соединение.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.L().WithFields(logrus.Fields{
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
					"panic":  fmt.Sprint(r),
				}).Error("паника в обработчике запроса")
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
						Success: false,
						Error:   &response.ErrorInfo{Code: "INTERNAL_ERROR", Message: "internal server error"},
					})
				}
			}
		}()

		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}
