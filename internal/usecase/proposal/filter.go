package proposal

import (
	"strings"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
)

// Filter отбирает заявки на странице списка.
// Применяется после слияния, чтобы устаревшая локальная копия не проходила фильтр вместо записи хранилища.
type Filter struct {
	Status valueobject.ProposalStatus
	Agency string
	Search string
}

func (f Filter) IsEmpty() bool {
	return f.Status == "" && strings.TrimSpace(f.Agency) == "" && strings.TrimSpace(f.Search) == ""
}

func (f Filter) Matches(p *entity.Proposal) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if agency := strings.TrimSpace(f.Agency); agency != "" && !containsFold(p.FundingAgency, agency) {
		return false
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		if !containsFold(p.ProjectTitle, search) && !containsFold(p.GeneratedProposal, search) {
			return false
		}
	}
	return true
}

func (f Filter) Apply(items []*entity.Proposal) []*entity.Proposal {
	if f.IsEmpty() {
		return items
	}
	result := make([]*entity.Proposal, 0, len(items))
	for _, p := range items {
		if f.Matches(p) {
			result = append(result, p)
		}
	}
	return result
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
