package proposal

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
)

const recentLimit = 3

type Stats struct {
	Total        int
	Drafts       int
	Submitted    int
	Generated    int
	TotalFunding valueobject.FundingAmount
	Recent       []*entity.Proposal
	Degraded     bool
}

// StatsUseCase считает сводку для дашборда по тому же слитому списку, что и ListProposals.
type StatsUseCase struct {
	list *ListProposalsUseCase
}

func NewStatsUseCase(list *ListProposalsUseCase) *StatsUseCase {
	return &StatsUseCase{list: list}
}

func (uc *StatsUseCase) Execute(ctx context.Context, ownerID uuid.UUID) (*Stats, error) {
	out, err := uc.list.Execute(ctx, ListProposalsInput{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}
	return Summarize(out.Proposals, out.Degraded), nil
}

// Summarize ожидает список, уже отсортированный по updatedAt.
func Summarize(items []*entity.Proposal, degraded bool) *Stats {
	stats := &Stats{Total: len(items), Degraded: degraded}
	for _, p := range items {
		switch p.Status {
		case valueobject.ProposalStatusGenerated:
			stats.Generated++
		case valueobject.ProposalStatusSubmitted:
			stats.Submitted++
		default:
			stats.Drafts++
		}
		stats.TotalFunding += p.FundingAmount
	}

	n := recentLimit
	if len(items) < n {
		n = len(items)
	}
	stats.Recent = items[:n]
	return stats
}
