package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

// DegradedHeader помечает ответ, собранный без хранилища.
const DegradedHeader = "X-Data-Degraded"

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// Degraded выставляет заголовок до записи тела.
func Degraded(c *gin.Context, degraded bool) {
	if degraded {
		c.Header(DegradedHeader, "true")
	}
}

// Error переводит AppError в конверт; всё прочее маскируется как внутренняя ошибка.
func Error(c *gin.Context, err error) {
	ErrorWithData(c, err, nil)
}

// ErrorWithData отдаёт ошибку и то, что удалось сохранить до неё.
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logRequestError(c, err)
		}
		c.JSON(appErr.HTTPStatus, Response{
			Success: false,
			Data:    data,
			Error: &ErrorInfo{
				Code:    string(appErr.Code),
				Message: appErr.Message,
			},
		})
		return
	}

	logRequestError(c, err)
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Data:    data,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeInternal),
			Message: "internal server error",
		},
	})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeBadRequest),
			Message: message,
		},
	})
}

func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeNotFound),
			Message: message,
		},
	})
}

func Unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    string(apperror.ErrCodeUnauthorized),
			Message: message,
		},
	})
}

func TooManyRequests(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    "RATE_LIMITED",
			Message: message,
		},
	})
}

func logRequestError(c *gin.Context, err error) {
	logger.L().WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"method": c.Request.Method,
	}).WithError(err).Error("ошибка обработки запроса")
}
