package repository

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	UpdateLastLogin(ctx context.Context, user *entity.User) error
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.Attachment) error
	ListByProposal(ctx context.Context, proposalID, ownerID uuid.UUID) ([]*entity.Attachment, error)
	FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttachmentStorage хранит содержимое файлов вложений.
type AttachmentStorage interface {
	DeleteAll(ctx context.Context, paths []string) error
}

// StoredFile: результат сохранения файла с определённым по содержимому типом.
type StoredFile struct {
	Path     string
	Size     int64
	MimeType string
}

// AttachmentFiles добавляет загрузку и удаление одного файла.
type AttachmentFiles interface {
	AttachmentStorage
	Save(ctx context.Context, ownerID uuid.UUID, fileName string, r io.Reader) (*StoredFile, error)
	Delete(ctx context.Context, path string) error
}
