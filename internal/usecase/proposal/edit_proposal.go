package proposal

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type EditProposalInput struct {
	OwnerID     uuid.UUID
	ProposalID  uuid.UUID
	Instruction string
	// Section сужает правку до одного раздела, документ всё равно переписывается целиком.
	Section string
}

type EditProposalUseCase struct {
	proposalRepo repository.ProposalRepository
	drafts       repository.DraftCache
	generator    repository.GenerationService
	events       repository.EventPublisher
	instructions Instructions
}

func NewEditProposalUseCase(
	proposalRepo repository.ProposalRepository,
	drafts repository.DraftCache,
	generator repository.GenerationService,
	events repository.EventPublisher,
	instructions Instructions,
) *EditProposalUseCase {
	return &EditProposalUseCase{
		proposalRepo: proposalRepo,
		drafts:       drafts,
		generator:    generator,
		events:       events,
		instructions: instructions.withDefaults(),
	}
}

// Execute переписывает сгенерированный документ по инструкции пользователя.
func (uc *EditProposalUseCase) Execute(ctx context.Context, input EditProposalInput) (*entity.Proposal, error) {
	if strings.TrimSpace(input.Instruction) == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "edit instructions are required")
	}

	current, err := uc.proposalRepo.FindByIDAndOwner(ctx, input.ProposalID, input.OwnerID)
	if err != nil {
		return nil, storeError(err, "failed to load proposal")
	}
	if !current.HasDocument() {
		return nil, apperror.ErrNothingToEdit
	}

	log := logger.L().WithFields(logrus.Fields{
		"owner_id":    input.OwnerID.String(),
		"proposal_id": input.ProposalID.String(),
		"operation":   "edit",
	})

	text, err := uc.generator.Complete(ctx, repository.CompletionRequest{
		System:    uc.instructions.Edit,
		Prompt:    BuildEditPrompt(current.GeneratedProposal, input.Instruction, input.Section),
		Operation: "edit",
	})
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("модель вернула пустой ответ")
	}
	if err != nil {
		log.WithError(err).Error("правка заявки не удалась")
		return nil, generationError(err, "failed to edit proposal")
	}

	proposal := current.Clone()
	if err := proposal.ReplaceGenerated(text); err != nil {
		return nil, err
	}

	if err := uc.proposalRepo.Update(ctx, proposal); err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		mirrorDraft(ctx, uc.drafts, proposal)
		return nil, storeError(err, "failed to save edited proposal")
	}

	mirrorDraft(ctx, uc.drafts, proposal)
	publish(uc.events, proposal, EventProposalEdited)
	return proposal, nil
}
