package attachment

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

type UploadInput struct {
	OwnerID    uuid.UUID
	ProposalID uuid.UUID
	FileName   string
	Content    io.Reader
}

type UploadAttachmentUseCase struct {
	proposals   repository.ProposalRepository
	attachments repository.AttachmentRepository
	files       repository.AttachmentFiles
}

func NewUploadAttachmentUseCase(
	proposals repository.ProposalRepository,
	attachments repository.AttachmentRepository,
	files repository.AttachmentFiles,
) *UploadAttachmentUseCase {
	return &UploadAttachmentUseCase{proposals: proposals, attachments: attachments, files: files}
}

// Execute прикрепляет файл только к заявке самого владельца.
func (uc *UploadAttachmentUseCase) Execute(ctx context.Context, input UploadInput) (*entity.Attachment, error) {
	if input.Content == nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "file is required")
	}
	if _, err := uc.proposals.FindByIDAndOwner(ctx, input.ProposalID, input.OwnerID); err != nil {
		return nil, err
	}

	stored, err := uc.files.Save(ctx, input.OwnerID, input.FileName, input.Content)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to store file")
	}

	a := entity.NewAttachment(input.ProposalID, input.OwnerID, input.FileName, stored.Path, stored.MimeType, stored.Size)
	if err := uc.attachments.Create(ctx, a); err != nil {
		if delErr := uc.files.Delete(ctx, stored.Path); delErr != nil {
			logger.L().WithError(delErr).WithField("path", stored.Path).Warn("вложение: не удалось удалить осиротевший файл")
		}
		return nil, err
	}
	return a, nil
}

type ListAttachmentsUseCase struct {
	proposals   repository.ProposalRepository
	attachments repository.AttachmentRepository
}

func NewListAttachmentsUseCase(proposals repository.ProposalRepository, attachments repository.AttachmentRepository) *ListAttachmentsUseCase {
	return &ListAttachmentsUseCase{proposals: proposals, attachments: attachments}
}

func (uc *ListAttachmentsUseCase) Execute(ctx context.Context, ownerID, proposalID uuid.UUID) ([]*entity.Attachment, error) {
	if _, err := uc.proposals.FindByIDAndOwner(ctx, proposalID, ownerID); err != nil {
		return nil, err
	}
	return uc.attachments.ListByProposal(ctx, proposalID, ownerID)
}

type DeleteAttachmentUseCase struct {
	attachments repository.AttachmentRepository
	files       repository.AttachmentFiles
}

func NewDeleteAttachmentUseCase(attachments repository.AttachmentRepository, files repository.AttachmentFiles) *DeleteAttachmentUseCase {
	return &DeleteAttachmentUseCase{attachments: attachments, files: files}
}

func (uc *DeleteAttachmentUseCase) Execute(ctx context.Context, ownerID, proposalID, attachmentID uuid.UUID) error {
	a, err := uc.attachments.FindByIDAndOwner(ctx, attachmentID, ownerID)
	if err != nil {
		return err
	}
	if a.ProposalID != proposalID {
		return apperror.ErrAttachmentNotFound
	}

	if err := uc.attachments.Delete(ctx, a.ID); err != nil {
		return err
	}
	if err := uc.files.Delete(ctx, a.FilePath); err != nil {
		logger.L().WithFields(logrus.Fields{
			"attachment_id": a.ID.String(),
			"path":          a.FilePath,
		}).WithError(err).Warn("вложение: файл не удалён")
	}
	return nil
}
