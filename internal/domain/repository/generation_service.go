package repository

import (
	"context"

	"github.com/google/uuid"
)

// CompletionRequest описывает один запрос к языковой модели.
type CompletionRequest struct {
	System    string
	Prompt    string
	Operation string
}

// GenerationService возвращает текст модели; пустая строка допустима.
type GenerationService interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// EventPublisher рассылает события жизненного цикла владельцу заявки.
// Публикация не блокирует и не проваливает операцию.
type EventPublisher interface {
	Publish(ownerID uuid.UUID, event string, data any)
}
