package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound         ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrCodeBadRequest       ErrorCode = "BAD_REQUEST"
	ErrCodeConflict         ErrorCode = "CONFLICT"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation       ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidState     ErrorCode = "INVALID_STATE"
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	ErrCodeDatabaseError    ErrorCode = "DATABASE_ERROR"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или INTERNAL_ERROR для неизвестных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func IsNotFound(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeNotFound
}

func IsValidation(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeValidation
}

func IsInvalidState(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeInvalidState
}

func IsGenerationFailed(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeGenerationFailed
}

// IsStoreError сообщает, что хранилище недоступно или запись не удалась.
func IsStoreError(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeDatabaseError
}

var (
	ErrProposalNotFound   = New(ErrCodeNotFound, "proposal not found")
	ErrAttachmentNotFound = New(ErrCodeNotFound, "attachment not found")
	ErrUserNotFound       = New(ErrCodeNotFound, "user not found")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "authorization required")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "invalid credentials")
	ErrNothingToEdit      = New(ErrCodeInvalidState, "proposal has no generated document to edit")
)
