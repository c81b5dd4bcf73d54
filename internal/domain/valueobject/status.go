package valueobject

import "github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"

type ProposalStatus string

const (
	ProposalStatusDraft     ProposalStatus = "draft"
	ProposalStatusSubmitted ProposalStatus = "submitted"
	ProposalStatusGenerated ProposalStatus = "generated"
)

func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusSubmitted, ProposalStatusGenerated:
		return true
	}
	return false
}

// rank задаёт порядок жизненного цикла: статус только растёт.
func (s ProposalStatus) rank() int {
	switch s {
	case ProposalStatusDraft:
		return 0
	case ProposalStatusSubmitted:
		return 1
	case ProposalStatusGenerated:
		return 2
	}
	return -1
}

// CanTransitionTo проверяет переход draft → submitted → generated.
// Откат назад запрещён, повторное сохранение в том же статусе разрешено.
func (s ProposalStatus) CanTransitionTo(newStatus ProposalStatus) bool {
	transitions := map[ProposalStatus][]ProposalStatus{
		ProposalStatusDraft:     {ProposalStatusDraft, ProposalStatusSubmitted, ProposalStatusGenerated},
		ProposalStatusSubmitted: {ProposalStatusSubmitted, ProposalStatusGenerated},
		ProposalStatusGenerated: {ProposalStatusGenerated},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

// AtLeast сообщает, что статус не ниже other.
func (s ProposalStatus) AtLeast(other ProposalStatus) bool {
	return s.rank() >= other.rank()
}

func NewProposalStatus(status string) (ProposalStatus, error) {
	s := ProposalStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "invalid proposal status")
	}
	return s, nil
}

// InferProposalStatus восстанавливает отсутствующий статус по наличию сгенерированного текста.
func InferProposalStatus(raw string, generatedProposal string) ProposalStatus {
	if s := ProposalStatus(raw); s.IsValid() {
		return s
	}
	if generatedProposal != "" {
		return ProposalStatusGenerated
	}
	return ProposalStatusDraft
}
