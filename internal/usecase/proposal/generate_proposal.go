package proposal

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type GenerateProposalInput struct {
	OwnerID        uuid.UUID
	ProposalID     *uuid.UUID
	Fields         entity.ProposalFields
	ResearcherName string
}

type GenerateProposalUseCase struct {
	save         *SaveProposalUseCase
	proposalRepo repository.ProposalRepository
	drafts       repository.DraftCache
	generator    repository.GenerationService
	events       repository.EventPublisher
	instructions Instructions
}

func NewGenerateProposalUseCase(
	save *SaveProposalUseCase,
	proposalRepo repository.ProposalRepository,
	drafts repository.DraftCache,
	generator repository.GenerationService,
	events repository.EventPublisher,
	instructions Instructions,
) *GenerateProposalUseCase {
	return &GenerateProposalUseCase{
		save:         save,
		proposalRepo: proposalRepo,
		drafts:       drafts,
		generator:    generator,
		events:       events,
		instructions: instructions.withDefaults(),
	}
}

// Execute генерирует документ заявки. Отсутствующая запись сначала создаётся в статусе submitted.
// При ошибке модели ничего не сохраняется: статус и документ остаются прежними.
func (uc *GenerateProposalUseCase) Execute(ctx context.Context, input GenerateProposalInput) (*entity.Proposal, error) {
	if err := input.Fields.Validate(valueobject.ProposalStatusSubmitted); err != nil {
		return nil, err
	}

	current, err := uc.resolve(ctx, input)
	if err != nil {
		return nil, err
	}

	log := logger.L().WithFields(logrus.Fields{
		"owner_id":    input.OwnerID.String(),
		"proposal_id": current.ID.String(),
		"operation":   "generate",
	})

	text, err := uc.generator.Complete(ctx, repository.CompletionRequest{
		System:    uc.instructions.Generate,
		Prompt:    BuildGenerationPrompt(input.Fields, input.ResearcherName),
		Operation: "generate",
	})
	if err != nil {
		log.WithError(err).Error("генерация заявки не удалась")
		return nil, generationError(err, "failed to generate proposal")
	}
	if strings.TrimSpace(text) == "" {
		text = NoContentGenerated
	}

	proposal := current.Clone()
	proposal.ApplyFields(input.Fields)
	proposal.MarkGenerated(text)

	if err := uc.proposalRepo.Update(ctx, proposal); err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		mirrorDraft(ctx, uc.drafts, proposal)
		return nil, storeError(err, "failed to save generated proposal")
	}

	mirrorDraft(ctx, uc.drafts, proposal)
	publish(uc.events, proposal, EventProposalGenerated)
	log.Info("заявка сгенерирована")
	return proposal, nil
}

// resolve находит запись владельца или создаёт её через сохранение со статусом submitted.
func (uc *GenerateProposalUseCase) resolve(ctx context.Context, input GenerateProposalInput) (*entity.Proposal, error) {
	if input.ProposalID != nil && *input.ProposalID != uuid.Nil {
		existing, err := uc.proposalRepo.FindByIDAndOwner(ctx, *input.ProposalID, input.OwnerID)
		if err == nil {
			return existing, nil
		}
		if !apperror.IsNotFound(err) {
			return nil, storeError(err, "failed to load proposal")
		}
	}

	return uc.save.Execute(ctx, SaveProposalInput{
		OwnerID:    input.OwnerID,
		ProposalID: input.ProposalID,
		Fields:     input.Fields,
		Status:     valueobject.ProposalStatusSubmitted,
	})
}

// generationError сводит любую ошибку модели к GENERATION_FAILED.
func generationError(err error, message string) error {
	if apperror.IsGenerationFailed(err) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeGenerationFailed, message)
}
