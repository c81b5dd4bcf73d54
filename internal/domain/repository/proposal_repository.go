package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
)

// ProposalRepository: постоянное хранилище заявок.
// Все чтения и записи ограничены владельцем, чужая запись неотличима от отсутствующей.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *entity.Proposal) error
	Update(ctx context.Context, proposal *entity.Proposal) error
	FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.Proposal, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Proposal, error)
	DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) error
	// Exists сообщает, есть ли запись с таким id у любого владельца.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// DraftCache: локальный кэш полных копий черновиков по id заявки.
// Промах Get возвращает apperror.ErrProposalNotFound.
type DraftCache interface {
	Put(ctx context.Context, proposal *entity.Proposal) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Proposal, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Proposal, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
