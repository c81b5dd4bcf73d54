package proposal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

type ListProposalsInput struct {
	OwnerID uuid.UUID
	Filter  Filter
}

type ListProposalsOutput struct {
	Proposals []*entity.Proposal
	// Degraded: хранилище недоступно, показаны только локальные черновики.
	Degraded bool
}

type ListProposalsUseCase struct {
	proposalRepo repository.ProposalRepository
	drafts       repository.DraftCache
	now          func() time.Time
}

func NewListProposalsUseCase(proposalRepo repository.ProposalRepository, drafts repository.DraftCache) *ListProposalsUseCase {
	return &ListProposalsUseCase{
		proposalRepo: proposalRepo,
		drafts:       drafts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ListProposalsUseCase) Execute(ctx context.Context, input ListProposalsInput) (*ListProposalsOutput, error) {
	log := logger.L().WithFields(logrus.Fields{"owner_id": input.OwnerID.String(), "operation": "list"})

	remote, remoteErr := uc.proposalRepo.ListByOwner(ctx, input.OwnerID)
	if remoteErr != nil {
		log.WithError(remoteErr).Warn("хранилище недоступно, список собран из локального кэша")
	}

	var local []*entity.Proposal
	if uc.drafts != nil {
		cached, err := uc.drafts.ListByOwner(ctx, input.OwnerID)
		if err != nil {
			log.WithError(err).Warn("кэш черновиков недоступен")
			if remoteErr != nil {
				return nil, storeError(remoteErr, "failed to list proposals")
			}
		}
		local = cached
	} else if remoteErr != nil {
		return nil, storeError(remoteErr, "failed to list proposals")
	}

	merged := Merge(local, remote, uc.now())
	return &ListProposalsOutput{
		Proposals: input.Filter.Apply(merged),
		Degraded:  remoteErr != nil,
	}, nil
}

type GetProposalOutput struct {
	Proposal *entity.Proposal
	Degraded bool
}

type GetProposalUseCase struct {
	proposalRepo repository.ProposalRepository
	drafts       repository.DraftCache
	now          func() time.Time
}

func NewGetProposalUseCase(proposalRepo repository.ProposalRepository, drafts repository.DraftCache) *GetProposalUseCase {
	return &GetProposalUseCase{
		proposalRepo: proposalRepo,
		drafts:       drafts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Execute читает заявку владельца. При недоступном хранилище отдаёт копию из кэша.
func (uc *GetProposalUseCase) Execute(ctx context.Context, ownerID, proposalID uuid.UUID) (*GetProposalOutput, error) {
	p, err := uc.proposalRepo.FindByIDAndOwner(ctx, proposalID, ownerID)
	if err == nil {
		return &GetProposalOutput{Proposal: NormalizeEntity(p, uc.now())}, nil
	}
	if apperror.IsNotFound(err) {
		return nil, err
	}

	cached := cachedForOwner(ctx, uc.drafts, proposalID, ownerID)
	if cached == nil {
		return nil, storeError(err, "failed to load proposal")
	}
	logger.L().WithFields(logrus.Fields{
		"owner_id":    ownerID.String(),
		"proposal_id": proposalID.String(),
	}).WithError(err).Warn("хранилище недоступно, заявка отдана из локального кэша")
	return &GetProposalOutput{Proposal: NormalizeEntity(cached, uc.now()), Degraded: true}, nil
}

// GetDraftUseCase загружает заявку для конструктора: запись хранилища,
// дополненная более полной локальной копией.
type GetDraftUseCase struct {
	proposalRepo repository.ProposalRepository
	drafts       repository.DraftCache
	now          func() time.Time
}

func NewGetDraftUseCase(proposalRepo repository.ProposalRepository, drafts repository.DraftCache) *GetDraftUseCase {
	return &GetDraftUseCase{
		proposalRepo: proposalRepo,
		drafts:       drafts,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (uc *GetDraftUseCase) Execute(ctx context.Context, ownerID, proposalID uuid.UUID) (*GetProposalOutput, error) {
	cached := cachedForOwner(ctx, uc.drafts, proposalID, ownerID)

	remote, err := uc.proposalRepo.FindByIDAndOwner(ctx, proposalID, ownerID)
	switch {
	case err == nil:
		return &GetProposalOutput{Proposal: NormalizeEntity(overlayDraft(remote, cached), uc.now())}, nil
	case apperror.IsNotFound(err):
		if cached == nil {
			return nil, err
		}
		exists, existsErr := uc.proposalRepo.Exists(ctx, proposalID)
		if existsErr != nil || exists {
			return nil, apperror.ErrProposalNotFound
		}
		return &GetProposalOutput{Proposal: NormalizeEntity(cached, uc.now())}, nil
	default:
		if cached == nil {
			return nil, storeError(err, "failed to load proposal")
		}
		return &GetProposalOutput{Proposal: NormalizeEntity(cached, uc.now()), Degraded: true}, nil
	}
}

// overlayDraft дополняет запись хранилища непустыми полями локальной копии,
// если копия не старше записи. Статус и документ всегда берутся из хранилища.
func overlayDraft(remote, cached *entity.Proposal) *entity.Proposal {
	result := remote.Clone()
	if cached == nil || cached.UpdatedAt.Before(remote.UpdatedAt) {
		return result
	}

	if cached.ProjectTitle != "" {
		result.ProjectTitle = cached.ProjectTitle
	}
	if cached.FundingAgency != "" {
		result.FundingAgency = cached.FundingAgency
	}
	if cached.FundingAmount.IsPositive() {
		result.FundingAmount = cached.FundingAmount
	}
	for _, s := range entity.Sections {
		if v := s.Value(&cached.ProposalFields); v != "" {
			s.Set(&result.ProposalFields, v)
		}
	}
	return result
}

func cachedForOwner(ctx context.Context, drafts repository.DraftCache, id, ownerID uuid.UUID) *entity.Proposal {
	if drafts == nil {
		return nil
	}
	cached, err := drafts.Get(ctx, id)
	if err != nil || cached == nil || !cached.IsOwnedBy(ownerID) {
		return nil
	}
	return cached
}
