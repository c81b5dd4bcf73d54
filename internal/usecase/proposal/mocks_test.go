package proposal_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
)

var errStoreDown = errors.New("connection refused")

type mockProposalRepository struct {
	proposals map[uuid.UUID]*entity.Proposal
	failWrite bool
	failRead  bool
	creates   int
	updates   int
}

func newMockProposalRepository() *mockProposalRepository {
	return &mockProposalRepository{proposals: make(map[uuid.UUID]*entity.Proposal)}
}

func (m *mockProposalRepository) Create(ctx context.Context, p *entity.Proposal) error {
	m.creates++
	if m.failWrite {
		return apperror.Wrap(errStoreDown, apperror.ErrCodeDatabaseError, "failed to create proposal")
	}
	m.proposals[p.ID] = p.Clone()
	return nil
}

func (m *mockProposalRepository) Update(ctx context.Context, p *entity.Proposal) error {
	m.updates++
	if m.failWrite {
		return apperror.Wrap(errStoreDown, apperror.ErrCodeDatabaseError, "failed to update proposal")
	}
	existing, ok := m.proposals[p.ID]
	if !ok || existing.OwnerID != p.OwnerID {
		return apperror.ErrProposalNotFound
	}
	m.proposals[p.ID] = p.Clone()
	return nil
}

func (m *mockProposalRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.Proposal, error) {
	if m.failRead {
		return nil, apperror.Wrap(errStoreDown, apperror.ErrCodeDatabaseError, "failed to load proposal")
	}
	p, ok := m.proposals[id]
	if !ok || p.OwnerID != ownerID {
		return nil, apperror.ErrProposalNotFound
	}
	return p.Clone(), nil
}

func (m *mockProposalRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Proposal, error) {
	if m.failRead {
		return nil, apperror.Wrap(errStoreDown, apperror.ErrCodeDatabaseError, "failed to list proposals")
	}
	var result []*entity.Proposal
	for _, p := range m.proposals {
		if p.OwnerID == ownerID {
			result = append(result, p.Clone())
		}
	}
	return result, nil
}

func (m *mockProposalRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	p, ok := m.proposals[id]
	if !ok || p.OwnerID != ownerID {
		return apperror.ErrProposalNotFound
	}
	delete(m.proposals, id)
	return nil
}

func (m *mockProposalRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.failRead {
		return false, apperror.Wrap(errStoreDown, apperror.ErrCodeDatabaseError, "failed to check proposal")
	}
	_, ok := m.proposals[id]
	return ok, nil
}

type mockDraftCache struct {
	entries map[uuid.UUID]*entity.Proposal
	fail    bool
}

func newMockDraftCache() *mockDraftCache {
	return &mockDraftCache{entries: make(map[uuid.UUID]*entity.Proposal)}
}

func (m *mockDraftCache) Put(ctx context.Context, p *entity.Proposal) error {
	if m.fail {
		return errors.New("cache down")
	}
	m.entries[p.ID] = p.Clone()
	return nil
}

func (m *mockDraftCache) Get(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	if m.fail {
		return nil, errors.New("cache down")
	}
	p, ok := m.entries[id]
	if !ok {
		return nil, apperror.ErrProposalNotFound
	}
	return p.Clone(), nil
}

func (m *mockDraftCache) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Proposal, error) {
	if m.fail {
		return nil, errors.New("cache down")
	}
	var result []*entity.Proposal
	for _, p := range m.entries {
		if p.OwnerID == ownerID {
			result = append(result, p.Clone())
		}
	}
	return result, nil
}

func (m *mockDraftCache) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.entries, id)
	return nil
}

type mockGenerator struct {
	response string
	err      error
	calls    []repository.CompletionRequest
}

func (m *mockGenerator) Complete(ctx context.Context, req repository.CompletionRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type publishedEvent struct {
	ownerID uuid.UUID
	event   string
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(ownerID uuid.UUID, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{ownerID: ownerID, event: event})
}

func (m *mockPublisher) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, e.event)
	}
	return out
}

type mockAttachmentRepository struct {
	attachments []*entity.Attachment
}

func (m *mockAttachmentRepository) Create(ctx context.Context, a *entity.Attachment) error {
	m.attachments = append(m.attachments, a)
	return nil
}

func (m *mockAttachmentRepository) ListByProposal(ctx context.Context, proposalID, ownerID uuid.UUID) ([]*entity.Attachment, error) {
	var result []*entity.Attachment
	for _, a := range m.attachments {
		if a.ProposalID == proposalID && a.OwnerID == ownerID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockAttachmentRepository) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.Attachment, error) {
	for _, a := range m.attachments {
		if a.ID == id && a.OwnerID == ownerID {
			return a, nil
		}
	}
	return nil, apperror.ErrAttachmentNotFound
}

func (m *mockAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type mockFileStorage struct {
	deleted []string
}

func (m *mockFileStorage) DeleteAll(ctx context.Context, paths []string) error {
	m.deleted = append(m.deleted, paths...)
	return nil
}

// fixture собирает все use case'ы поверх общих моков.
type fixture struct {
	repo        *mockProposalRepository
	drafts      *mockDraftCache
	generator   *mockGenerator
	events      *mockPublisher
	attachments *mockAttachmentRepository
	files       *mockFileStorage

	save     *proposal.SaveProposalUseCase
	list     *proposal.ListProposalsUseCase
	get      *proposal.GetProposalUseCase
	draft    *proposal.GetDraftUseCase
	delete   *proposal.DeleteProposalUseCase
	generate *proposal.GenerateProposalUseCase
	edit     *proposal.EditProposalUseCase
	stats    *proposal.StatsUseCase
}

func newFixture() *fixture {
	f := &fixture{
		repo:        newMockProposalRepository(),
		drafts:      newMockDraftCache(),
		generator:   &mockGenerator{response: "DOC-TEXT"},
		events:      &mockPublisher{},
		attachments: &mockAttachmentRepository{},
		files:       &mockFileStorage{},
	}
	f.save = proposal.NewSaveProposalUseCase(f.repo, f.drafts, f.events)
	f.list = proposal.NewListProposalsUseCase(f.repo, f.drafts)
	f.get = proposal.NewGetProposalUseCase(f.repo, f.drafts)
	f.draft = proposal.NewGetDraftUseCase(f.repo, f.drafts)
	f.delete = proposal.NewDeleteProposalUseCase(f.repo, f.drafts, f.attachments, f.files, f.events)
	f.generate = proposal.NewGenerateProposalUseCase(f.save, f.repo, f.drafts, f.generator, f.events, proposal.Instructions{})
	f.edit = proposal.NewEditProposalUseCase(f.repo, f.drafts, f.generator, f.events, proposal.Instructions{})
	f.stats = proposal.NewStatsUseCase(f.list)
	return f
}

func solarGrid() entity.ProposalFields {
	return entity.ProposalFields{
		ProjectTitle:  "Solar Grid",
		FundingAmount: 50000,
		CoverLetter:   "Dear committee",
	}
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
