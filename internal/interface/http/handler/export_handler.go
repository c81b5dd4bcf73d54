package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/grantwriter-backend/internal/infrastructure/export"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
)

type ExportHandler struct {
	getUC    *proposal.GetProposalUseCase
	exporter *export.Service
}

func NewExportHandler(getUC *proposal.GetProposalUseCase, exporter *export.Service) *ExportHandler {
	return &ExportHandler{getUC: getUC, exporter: exporter}
}

// Export обрабатывает GET /api/proposals/:ownerId/:id/export?format=pdf|html|md.
func (h *ExportHandler) Export(c *gin.Context) {
	ownerID, ok := ownerFromPath(c)
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.BadRequest(c, "format must be one of pdf, html, md")
		return
	}

	out, err := h.getUC.Execute(c.Request.Context(), ownerID, proposalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.exporter.Export(c.Request.Context(), out.Proposal, format)
	if err != nil {
		if errors.Is(err, export.ErrPDFDependencyMissing) {
			c.JSON(http.StatusNotImplemented, response.Response{
				Success: false,
				Error:   &response.ErrorInfo{Code: "EXPORT_UNAVAILABLE", Message: "pdf export is not available on this server"},
			})
			return
		}
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to export proposal"))
		return
	}

	response.Degraded(c, out.Degraded)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.MimeType, result.Data)
}
