package attachment_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/attachment"
)

type mockProposals struct {
	repository.ProposalRepository
	items map[uuid.UUID]*entity.Proposal
}

func (m *mockProposals) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.Proposal, error) {
	if p, ok := m.items[id]; ok && p.OwnerID == ownerID {
		return p, nil
	}
	return nil, apperror.ErrProposalNotFound
}

type mockAttachments struct {
	items      map[uuid.UUID]*entity.Attachment
	failCreate bool
}

func (m *mockAttachments) Create(ctx context.Context, a *entity.Attachment) error {
	if m.failCreate {
		return apperror.New(apperror.ErrCodeDatabaseError, "failed to save attachment")
	}
	m.items[a.ID] = a
	return nil
}

func (m *mockAttachments) ListByProposal(ctx context.Context, proposalID, ownerID uuid.UUID) ([]*entity.Attachment, error) {
	var out []*entity.Attachment
	for _, a := range m.items {
		if a.ProposalID == proposalID && a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAttachments) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.Attachment, error) {
	if a, ok := m.items[id]; ok && a.OwnerID == ownerID {
		return a, nil
	}
	return nil, apperror.ErrAttachmentNotFound
}

func (m *mockAttachments) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

type mockFiles struct {
	saved   []string
	deleted []string
	saveErr error
}

func (m *mockFiles) Save(ctx context.Context, ownerID uuid.UUID, name string, r io.Reader) (*repository.StoredFile, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	data, _ := io.ReadAll(r)
	path := ownerID.String() + "/" + name
	m.saved = append(m.saved, path)
	return &repository.StoredFile{Path: path, Size: int64(len(data)), MimeType: "application/pdf"}, nil
}

func (m *mockFiles) Delete(ctx context.Context, path string) error {
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *mockFiles) DeleteAll(ctx context.Context, paths []string) error {
	m.deleted = append(m.deleted, paths...)
	return nil
}

type env struct {
	owner       uuid.UUID
	proposal    *entity.Proposal
	proposals   *mockProposals
	attachments *mockAttachments
	files       *mockFiles
}

func newEnv() *env {
	owner := uuid.New()
	p := &entity.Proposal{ID: uuid.New(), OwnerID: owner}
	return &env{
		owner:       owner,
		proposal:    p,
		proposals:   &mockProposals{items: map[uuid.UUID]*entity.Proposal{p.ID: p}},
		attachments: &mockAttachments{items: map[uuid.UUID]*entity.Attachment{}},
		files:       &mockFiles{},
	}
}

func TestUpload(t *testing.T) {
	e := newEnv()
	uc := attachment.NewUploadAttachmentUseCase(e.proposals, e.attachments, e.files)

	a, err := uc.Execute(context.Background(), attachment.UploadInput{
		OwnerID: e.owner, ProposalID: e.proposal.ID, FileName: "letters.pdf", Content: strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)

	assert.Equal(t, "letters.pdf", a.FileName)
	assert.Equal(t, int64(8), a.SizeBytes)
	assert.Contains(t, e.attachments.items, a.ID)
}

func TestUpload_ForeignProposalIsNotFound(t *testing.T) {
	e := newEnv()
	uc := attachment.NewUploadAttachmentUseCase(e.proposals, e.attachments, e.files)

	_, err := uc.Execute(context.Background(), attachment.UploadInput{
		OwnerID: uuid.New(), ProposalID: e.proposal.ID, FileName: "x.pdf", Content: strings.NewReader("x"),
	})
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, e.files.saved)
}

func TestUpload_MetadataFailureRemovesFile(t *testing.T) {
	e := newEnv()
	e.attachments.failCreate = true
	uc := attachment.NewUploadAttachmentUseCase(e.proposals, e.attachments, e.files)

	_, err := uc.Execute(context.Background(), attachment.UploadInput{
		OwnerID: e.owner, ProposalID: e.proposal.ID, FileName: "x.pdf", Content: strings.NewReader("x"),
	})
	assert.True(t, apperror.IsStoreError(err))
	assert.Equal(t, e.files.saved, e.files.deleted)
}

func TestUpload_StorageErrorsAreTyped(t *testing.T) {
	e := newEnv()
	e.files.saveErr = errors.New("disk full")
	uc := attachment.NewUploadAttachmentUseCase(e.proposals, e.attachments, e.files)

	_, err := uc.Execute(context.Background(), attachment.UploadInput{
		OwnerID: e.owner, ProposalID: e.proposal.ID, FileName: "x.pdf", Content: strings.NewReader("x"),
	})
	assert.Equal(t, apperror.ErrCodeInternal, apperror.CodeOf(err))
}

func TestListAndDelete(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	a, err := attachment.NewUploadAttachmentUseCase(e.proposals, e.attachments, e.files).Execute(ctx, attachment.UploadInput{
		OwnerID: e.owner, ProposalID: e.proposal.ID, FileName: "x.pdf", Content: strings.NewReader("x"),
	})
	require.NoError(t, err)

	list, err := attachment.NewListAttachmentsUseCase(e.proposals, e.attachments).Execute(ctx, e.owner, e.proposal.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	del := attachment.NewDeleteAttachmentUseCase(e.attachments, e.files)
	assert.ErrorIs(t, del.Execute(ctx, e.owner, uuid.New(), a.ID), apperror.ErrAttachmentNotFound)
	assert.ErrorIs(t, del.Execute(ctx, uuid.New(), e.proposal.ID, a.ID), apperror.ErrAttachmentNotFound)

	require.NoError(t, del.Execute(ctx, e.owner, e.proposal.ID, a.ID))
	assert.Empty(t, e.attachments.items)
	assert.Equal(t, []string{a.FilePath}, e.files.deleted)
}
