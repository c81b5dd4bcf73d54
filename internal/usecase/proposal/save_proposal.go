package proposal

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

type SaveProposalInput struct {
	OwnerID    uuid.UUID
	ProposalID *uuid.UUID
	Fields     entity.ProposalFields
	// Status пустой: draft для новой заявки, текущий для существующей.
	Status valueobject.ProposalStatus
}

// SaveProposalUseCase создаёт или обновляет заявку владельца.
type SaveProposalUseCase struct {
	proposalRepo repository.ProposalRepository
	drafts       repository.DraftCache
	events       repository.EventPublisher
}

func NewSaveProposalUseCase(proposalRepo repository.ProposalRepository, drafts repository.DraftCache, events repository.EventPublisher) *SaveProposalUseCase {
	return &SaveProposalUseCase{
		proposalRepo: proposalRepo,
		drafts:       drafts,
		events:       events,
	}
}

func (uc *SaveProposalUseCase) Execute(ctx context.Context, input SaveProposalInput) (*entity.Proposal, error) {
	if input.OwnerID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "owner id is required")
	}
	if input.Status != "" && !input.Status.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "invalid proposal status")
	}
	if input.ProposalID == nil || *input.ProposalID == uuid.Nil {
		return uc.create(ctx, input)
	}

	existing, err := uc.proposalRepo.FindByIDAndOwner(ctx, *input.ProposalID, input.OwnerID)
	switch {
	case err == nil:
		return uc.update(ctx, existing, input)
	case apperror.IsNotFound(err):
		cached, promoteErr := uc.findUnsyncedDraft(ctx, *input.ProposalID, input.OwnerID)
		if promoteErr != nil {
			return nil, promoteErr
		}
		return uc.promote(ctx, cached, input)
	default:
		uc.mirrorUnreachable(ctx, input)
		return nil, err
	}
}

// create при сбое хранилища возвращает черновик, оставленный в кэше, вместе с ошибкой:
// по его id клиент повторит сохранение.
func (uc *SaveProposalUseCase) create(ctx context.Context, input SaveProposalInput) (*entity.Proposal, error) {
	status := input.Status
	if status == "" {
		status = valueobject.ProposalStatusDraft
	}
	if status == valueobject.ProposalStatusGenerated {
		return nil, errGeneratedBySave
	}

	proposal, err := entity.NewProposal(input.OwnerID, input.Fields, status)
	if err != nil {
		return nil, err
	}

	if err := uc.proposalRepo.Create(ctx, proposal); err != nil {
		mirrorDraft(ctx, uc.drafts, proposal)
		if uc.drafts == nil {
			return nil, storeError(err, "failed to create proposal")
		}
		return proposal, storeError(err, "failed to create proposal")
	}

	mirrorDraft(ctx, uc.drafts, proposal)
	publish(uc.events, proposal, EventProposalSaved)
	return proposal, nil
}

func (uc *SaveProposalUseCase) update(ctx context.Context, existing *entity.Proposal, input SaveProposalInput) (*entity.Proposal, error) {
	proposal, err := applyInput(existing, input)
	if err != nil {
		return nil, err
	}

	if err := uc.proposalRepo.Update(ctx, proposal); err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		mirrorDraft(ctx, uc.drafts, proposal)
		return nil, storeError(err, "failed to update proposal")
	}

	mirrorDraft(ctx, uc.drafts, proposal)
	publish(uc.events, proposal, EventProposalSaved)
	return proposal, nil
}

// promote переносит в хранилище черновик, который когда-то не удалось создать удалённо.
func (uc *SaveProposalUseCase) promote(ctx context.Context, cached *entity.Proposal, input SaveProposalInput) (*entity.Proposal, error) {
	proposal, err := applyInput(cached, input)
	if err != nil {
		return nil, err
	}

	if err := uc.proposalRepo.Create(ctx, proposal); err != nil {
		mirrorDraft(ctx, uc.drafts, proposal)
		return nil, storeError(err, "failed to create proposal")
	}

	mirrorDraft(ctx, uc.drafts, proposal)
	publish(uc.events, proposal, EventProposalSaved)
	return proposal, nil
}

// findUnsyncedDraft ищет в кэше черновик владельца, которого нет в хранилище ни у кого.
func (uc *SaveProposalUseCase) findUnsyncedDraft(ctx context.Context, id, ownerID uuid.UUID) (*entity.Proposal, error) {
	if uc.drafts == nil {
		return nil, apperror.ErrProposalNotFound
	}

	exists, err := uc.proposalRepo.Exists(ctx, id)
	if err != nil {
		return nil, storeError(err, "failed to check proposal")
	}
	if exists {
		return nil, apperror.ErrProposalNotFound
	}

	cached, err := uc.drafts.Get(ctx, id)
	if err != nil || cached == nil || !cached.IsOwnedBy(ownerID) {
		return nil, apperror.ErrProposalNotFound
	}
	return cached, nil
}

// mirrorUnreachable сохраняет ввод пользователя в кэш, когда хранилище недоступно.
func (uc *SaveProposalUseCase) mirrorUnreachable(ctx context.Context, input SaveProposalInput) {
	if uc.drafts == nil {
		return
	}

	base, err := uc.drafts.Get(ctx, *input.ProposalID)
	if err != nil || base == nil {
		base = &entity.Proposal{
			ID:      *input.ProposalID,
			OwnerID: input.OwnerID,
			Status:  valueobject.ProposalStatusDraft,
		}
	}
	if !base.IsOwnedBy(input.OwnerID) {
		return
	}

	proposal, err := applyInput(base, input)
	if err != nil {
		return
	}
	mirrorDraft(ctx, uc.drafts, proposal)
}

// applyInput проверяет поля и переход статуса на копии записи.
func applyInput(current *entity.Proposal, input SaveProposalInput) (*entity.Proposal, error) {
	target := input.Status
	if target == "" {
		target = current.Status
	}
	if err := input.Fields.Validate(target); err != nil {
		return nil, err
	}

	// generated ставит только генерация; сохранить уже сгенерированную заявку можно.
	if target == valueobject.ProposalStatusGenerated && current.Status != valueobject.ProposalStatusGenerated {
		return nil, errGeneratedBySave
	}

	proposal := current.Clone()
	if target != proposal.Status {
		if err := proposal.TransitionTo(target); err != nil {
			return nil, err
		}
	}
	proposal.ApplyFields(input.Fields)
	if proposal.CreatedAt.IsZero() {
		proposal.CreatedAt = proposal.UpdatedAt
	}
	return proposal, nil
}

var errGeneratedBySave = apperror.New(apperror.ErrCodeInvalidState, "status generated is set only by generation")

// storeError оставляет коды AppError как есть, остальное считает ошибкой хранилища.
func storeError(err error, message string) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}
