package proposal

import "github.com/ignatzorin/grantwriter-backend/internal/domain/repository"

// Dependencies: порты, на которых собираются все операции над заявками.
type Dependencies struct {
	Proposals    repository.ProposalRepository
	Drafts       repository.DraftCache
	Attachments  repository.AttachmentRepository
	Files        repository.AttachmentStorage
	Generator    repository.GenerationService
	Events       repository.EventPublisher
	Instructions Instructions
}

// UseCases общий набор для REST и RPC, чтобы обе поверхности вели себя одинаково.
type UseCases struct {
	Save     *SaveProposalUseCase
	List     *ListProposalsUseCase
	Get      *GetProposalUseCase
	Draft    *GetDraftUseCase
	Delete   *DeleteProposalUseCase
	Generate *GenerateProposalUseCase
	Edit     *EditProposalUseCase
	FromText *GenerateFromTextUseCase
	Stats    *StatsUseCase
}

func NewUseCases(d Dependencies) *UseCases {
	save := NewSaveProposalUseCase(d.Proposals, d.Drafts, d.Events)
	list := NewListProposalsUseCase(d.Proposals, d.Drafts)

	return &UseCases{
		Save:     save,
		List:     list,
		Get:      NewGetProposalUseCase(d.Proposals, d.Drafts),
		Draft:    NewGetDraftUseCase(d.Proposals, d.Drafts),
		Delete:   NewDeleteProposalUseCase(d.Proposals, d.Drafts, d.Attachments, d.Files, d.Events),
		Generate: NewGenerateProposalUseCase(save, d.Proposals, d.Drafts, d.Generator, d.Events, d.Instructions),
		Edit:     NewEditProposalUseCase(d.Proposals, d.Drafts, d.Generator, d.Events, d.Instructions),
		FromText: NewGenerateFromTextUseCase(d.Generator, d.Instructions),
		Stats:    NewStatsUseCase(list),
	}
}
