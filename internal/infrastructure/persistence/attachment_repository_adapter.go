package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

const selectAttachmentSQL = `SELECT id, proposal_id, owner_id, file_name, file_path, mime_type, size_bytes, created_at FROM proposal_attachments`

type AttachmentRepositoryAdapter struct {
	db *sqlx.DB
}

func NewAttachmentRepositoryAdapter(db *sqlx.DB) *AttachmentRepositoryAdapter {
	return &AttachmentRepositoryAdapter{db: db}
}

func (r *AttachmentRepositoryAdapter) Create(ctx context.Context, a *entity.Attachment) error {
	query := `
		INSERT INTO proposal_attachments (id, proposal_id, owner_id, file_name, file_path, mime_type, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.ProposalID, a.OwnerID, a.FileName, a.FilePath, a.MimeType, a.SizeBytes, a.CreatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to save attachment")
	}
	return nil
}

func (r *AttachmentRepositoryAdapter) ListByProposal(ctx context.Context, proposalID, ownerID uuid.UUID) ([]*entity.Attachment, error) {
	return selectAll(ctx, r.db, (*attachmentRow).toEntity, "failed to list attachments",
		selectAttachmentSQL+` WHERE proposal_id = $1 AND owner_id = $2 ORDER BY created_at`, proposalID, ownerID)
}

func (r *AttachmentRepositoryAdapter) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.Attachment, error) {
	row, err := getOne[attachmentRow](ctx, r.db, apperror.ErrAttachmentNotFound, "failed to load attachment",
		selectAttachmentSQL+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *AttachmentRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proposal_attachments WHERE id = $1`, id)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to delete attachment")
	}
	return requireAffected(res, apperror.ErrAttachmentNotFound)
}

type attachmentRow struct {
	ID         uuid.UUID `db:"id"`
	ProposalID uuid.UUID `db:"proposal_id"`
	OwnerID    uuid.UUID `db:"owner_id"`
	FileName   string    `db:"file_name"`
	FilePath   string    `db:"file_path"`
	MimeType   string    `db:"mime_type"`
	SizeBytes  int64     `db:"size_bytes"`
	CreatedAt  time.Time `db:"created_at"`
}

func (a *attachmentRow) toEntity() *entity.Attachment {
	return &entity.Attachment{
		ID:         a.ID,
		ProposalID: a.ProposalID,
		OwnerID:    a.OwnerID,
		FileName:   a.FileName,
		FilePath:   a.FilePath,
		MimeType:   a.MimeType,
		SizeBytes:  a.SizeBytes,
		CreatedAt:  a.CreatedAt,
	}
}
