package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
)

type AttachmentResponse struct {
	ID         uuid.UUID `json:"id"`
	ProposalID uuid.UUID `json:"proposalId"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ToAttachmentResponse(a *entity.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:         a.ID,
		ProposalID: a.ProposalID,
		FileName:   a.FileName,
		MimeType:   a.MimeType,
		SizeBytes:  a.SizeBytes,
		CreatedAt:  a.CreatedAt,
	}
}

func ToAttachmentResponses(items []*entity.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToAttachmentResponse(a))
	}
	return out
}
