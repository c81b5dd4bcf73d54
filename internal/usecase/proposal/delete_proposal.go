package proposal

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type DeleteProposalUseCase struct {
	proposalRepo   repository.ProposalRepository
	drafts         repository.DraftCache
	attachmentRepo repository.AttachmentRepository
	files          repository.AttachmentStorage
	events         repository.EventPublisher
}

func NewDeleteProposalUseCase(
	proposalRepo repository.ProposalRepository,
	drafts repository.DraftCache,
	attachmentRepo repository.AttachmentRepository,
	files repository.AttachmentStorage,
	events repository.EventPublisher,
) *DeleteProposalUseCase {
	return &DeleteProposalUseCase{
		proposalRepo:   proposalRepo,
		drafts:         drafts,
		attachmentRepo: attachmentRepo,
		files:          files,
		events:         events,
	}
}

// Execute удаляет запись владельца, затем без атомарности убирает копию из кэша и файлы вложений.
func (uc *DeleteProposalUseCase) Execute(ctx context.Context, ownerID, proposalID uuid.UUID) error {
	log := logger.L().WithFields(logrus.Fields{
		"owner_id":    ownerID.String(),
		"proposal_id": proposalID.String(),
		"operation":   "delete",
	})

	var paths []string
	if uc.attachmentRepo != nil {
		attachments, err := uc.attachmentRepo.ListByProposal(ctx, proposalID, ownerID)
		if err != nil {
			log.WithError(err).Warn("не удалось получить вложения перед удалением")
		}
		for _, a := range attachments {
			paths = append(paths, a.FilePath)
		}
	}

	if err := uc.proposalRepo.DeleteByIDAndOwner(ctx, proposalID, ownerID); err != nil {
		if !apperror.IsNotFound(err) {
			return err
		}
		if unsyncedErr := uc.requireUnsyncedDraft(ctx, ownerID, proposalID); unsyncedErr != nil {
			return unsyncedErr
		}
		log.Info("удалён черновик, который так и не попал в хранилище")
	}

	deleted := &entity.Proposal{ID: proposalID, OwnerID: ownerID}
	forgetDraft(ctx, uc.drafts, deleted)

	if uc.files != nil && len(paths) > 0 {
		if err := uc.files.DeleteAll(ctx, paths); err != nil {
			log.WithError(err).Warn("не удалось удалить файлы вложений")
		}
	}

	publish(uc.events, deleted, EventProposalDeleted)
	return nil
}

// requireUnsyncedDraft разрешает удалить черновик, который есть только в кэше владельца.
// Запись с тем же id в хранилище принадлежит кому-то другому, её кэш не трогаем.
func (uc *DeleteProposalUseCase) requireUnsyncedDraft(ctx context.Context, ownerID, proposalID uuid.UUID) error {
	if cachedForOwner(ctx, uc.drafts, proposalID, ownerID) == nil {
		return apperror.ErrProposalNotFound
	}
	exists, err := uc.proposalRepo.Exists(ctx, proposalID)
	if err != nil {
		return storeError(err, "failed to check proposal")
	}
	if exists {
		return apperror.ErrProposalNotFound
	}
	return nil
}
