package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/dto"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/storage"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/attachment"
)

type AttachmentHandler struct {
	uploadUC *attachment.UploadAttachmentUseCase
	listUC   *attachment.ListAttachmentsUseCase
	deleteUC *attachment.DeleteAttachmentUseCase
	maxBytes int64
}

func NewAttachmentHandler(
	uploadUC *attachment.UploadAttachmentUseCase,
	listUC *attachment.ListAttachmentsUseCase,
	deleteUC *attachment.DeleteAttachmentUseCase,
	maxBytes int64,
) *AttachmentHandler {
	return &AttachmentHandler{uploadUC: uploadUC, listUC: listUC, deleteUC: deleteUC, maxBytes: maxBytes}
}

// Upload обрабатывает POST /api/proposals/:id/attachments (multipart, поле file).
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if h.maxBytes > 0 {
		// Запас на заголовки multipart.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "file cannot be read")
		return
	}
	defer file.Close()

	created, err := h.uploadUC.Execute(c.Request.Context(), attachment.UploadInput{
		OwnerID:    userID,
		ProposalID: proposalID,
		FileName:   storage.DisplayName(header.Filename),
		Content:    file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToAttachmentResponse(created))
}

// List обрабатывает GET /api/proposals/:ownerId/:id/attachments.
func (h *AttachmentHandler) List(c *gin.Context) {
	ownerID, ok := ownerFromPath(c)
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	items, err := h.listUC.Execute(c.Request.Context(), ownerID, proposalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToAttachmentResponses(items))
}

// Delete обрабатывает DELETE /api/proposals/:ownerId/:id/attachments/:attachmentId.
func (h *AttachmentHandler) Delete(c *gin.Context) {
	ownerID, ok := ownerFromPath(c)
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	attachmentID, ok := uuidParam(c, "attachmentId")
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), ownerID, proposalID, attachmentID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.DeletedResponse{ID: attachmentID, Message: "attachment deleted"})
}
