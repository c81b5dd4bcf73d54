package entity

import (
	"time"

	"github.com/google/uuid"
)

// Attachment: вспомогательный материал к разделу приложений заявки.
type Attachment struct {
	ID         uuid.UUID
	ProposalID uuid.UUID
	OwnerID    uuid.UUID
	FileName   string
	FilePath   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}

func NewAttachment(proposalID, ownerID uuid.UUID, fileName, filePath, mimeType string, size int64) *Attachment {
	return &Attachment{
		ID:         uuid.New(),
		ProposalID: proposalID,
		OwnerID:    ownerID,
		FileName:   fileName,
		FilePath:   filePath,
		MimeType:   mimeType,
		SizeBytes:  size,
		CreatedAt:  time.Now().UTC(),
	}
}

func (a *Attachment) IsOwnedBy(userID uuid.UUID) bool {
	return a.OwnerID == userID
}
