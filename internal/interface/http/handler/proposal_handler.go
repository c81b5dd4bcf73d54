package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/dto"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/response"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
	"github.com/ignatzorin/grantwriter-backend/internal/validation"
)

// newProposalID в пути generate означает заявку, которой ещё нет в хранилище.
const newProposalID = "new"

type ProposalHandler struct {
	uc *proposal.UseCases
}

func NewProposalHandler(uc *proposal.UseCases) *ProposalHandler {
	return &ProposalHandler{uc: uc}
}

// bindBody читает тело как произвольный JSON и нормализует его.
func bindBody(c *gin.Context) (*dto.ProposalBody, bool) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.BadRequest(c, "request body must be a JSON object")
		return nil, false
	}
	body, err := dto.ParseProposalBody(raw)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return body, true
}

// Create обрабатывает POST /api/proposals.
func (h *ProposalHandler) Create(c *gin.Context) {
	body, ok := bindBody(c)
	if !ok {
		return
	}
	ownerID, ok := resolveOwner(c, body.OwnerID)
	if !ok {
		return
	}

	saved, err := h.uc.Save.Execute(c.Request.Context(), proposal.SaveProposalInput{
		OwnerID:    ownerID,
		ProposalID: body.ProposalID,
		Fields:     body.Fields,
		Status:     body.Status,
	})
	if err != nil {
		if saved != nil {
			// Хранилище не приняло запись, но черновик остался в кэше под этим id.
			response.ErrorWithData(c, err, dto.ToProposalResponse(saved))
			return
		}
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToProposalResponse(saved))
}

// Update обрабатывает PUT /api/proposals/:id.
func (h *ProposalHandler) Update(c *gin.Context) {
	proposalID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	body, ok := bindBody(c)
	if !ok {
		return
	}
	if body.ProposalID != nil && *body.ProposalID != proposalID {
		response.BadRequest(c, "id in body does not match the path")
		return
	}
	ownerID, ok := resolveOwner(c, body.OwnerID)
	if !ok {
		return
	}

	saved, err := h.uc.Save.Execute(c.Request.Context(), proposal.SaveProposalInput{
		OwnerID:    ownerID,
		ProposalID: &proposalID,
		Fields:     body.Fields,
		Status:     body.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponse(saved))
}

// List обрабатывает GET /api/proposals/:ownerId.
func (h *ProposalHandler) List(c *gin.Context) {
	ownerID, ok := ownerFromPath(c)
	if !ok {
		return
	}

	filter := proposal.Filter{Agency: c.Query("agency"), Search: c.Query("search")}
	if raw := c.Query("status"); raw != "" {
		status, err := valueobject.NewProposalStatus(raw)
		if err != nil {
			response.Error(c, err)
			return
		}
		filter.Status = status
	}

	out, err := h.uc.List.Execute(c.Request.Context(), proposal.ListProposalsInput{OwnerID: ownerID, Filter: filter})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Degraded(c, out.Degraded)
	response.Success(c, dto.ToProposalResponses(out.Proposals))
}

// Get обрабатывает GET /api/proposals/:ownerId/:id.
func (h *ProposalHandler) Get(c *gin.Context) {
	h.read(c, h.uc.Get.Execute)
}

// Draft обрабатывает GET /api/proposals/:ownerId/:id/draft: запись для конструктора
// с наложенными несохранёнными правками из кэша.
func (h *ProposalHandler) Draft(c *gin.Context) {
	h.read(c, h.uc.Draft.Execute)
}

func (h *ProposalHandler) read(c *gin.Context, load func(ctx context.Context, ownerID, id uuid.UUID) (*proposal.GetProposalOutput, error)) {
	ownerID, ok := ownerFromPath(c)
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	out, err := load(c.Request.Context(), ownerID, proposalID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Degraded(c, out.Degraded)
	response.Success(c, dto.ToProposalResponse(out.Proposal))
}

// Delete обрабатывает DELETE /api/proposals/:ownerId/:id.
func (h *ProposalHandler) Delete(c *gin.Context) {
	ownerID, ok := ownerFromPath(c)
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.uc.Delete.Execute(c.Request.Context(), ownerID, proposalID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.DeletedResponse{ID: proposalID, Message: "proposal deleted"})
}

// Generate обрабатывает POST /api/proposals/:id/generate; id может быть "new".
func (h *ProposalHandler) Generate(c *gin.Context) {
	var proposalID *uuid.UUID
	if raw := c.Param("id"); raw != newProposalID {
		id, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		proposalID = &id
	}

	body, ok := bindBody(c)
	if !ok {
		return
	}
	ownerID, ok := resolveOwner(c, body.OwnerID)
	if !ok {
		return
	}
	if proposalID == nil {
		proposalID = body.ProposalID
	}

	generated, err := h.uc.Generate.Execute(c.Request.Context(), proposal.GenerateProposalInput{
		OwnerID:        ownerID,
		ProposalID:     proposalID,
		Fields:         body.Fields,
		ResearcherName: body.ResearcherName,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToGeneratedResponse(generated))
}

// Edit обрабатывает POST /api/proposals/:id/edit.
func (h *ProposalHandler) Edit(c *gin.Context) {
	proposalID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req dto.EditProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body must be a JSON object")
		return
	}
	if err := validation.ValidateInstruction(req.UserPrompt); err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error()))
		return
	}

	var claimed *uuid.UUID
	if req.OwnerID != "" {
		id, err := uuid.Parse(req.OwnerID)
		if err != nil {
			response.BadRequest(c, "ownerId must be a valid UUID")
			return
		}
		claimed = &id
	}
	ownerID, ok := resolveOwner(c, claimed)
	if !ok {
		return
	}

	edited, err := h.uc.Edit.Execute(c.Request.Context(), proposal.EditProposalInput{
		OwnerID:     ownerID,
		ProposalID:  proposalID,
		Instruction: req.UserPrompt,
		Section:     req.Section,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToGeneratedResponse(edited))
}

// Stats обрабатывает GET /api/stats/:ownerId.
func (h *ProposalHandler) Stats(c *gin.Context) {
	ownerID, ok := ownerFromPath(c)
	if !ok {
		return
	}

	stats, err := h.uc.Stats.Execute(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Degraded(c, stats.Degraded)
	response.Success(c, dto.ToStatsResponse(stats))
}

type generateFromTextRequest struct {
	ReportText string `json:"reportText"`
}

// GenerateFromText обрабатывает POST /api/reports/generate. Ничего не сохраняет.
func (h *ProposalHandler) GenerateFromText(c *gin.Context) {
	if _, ok := getUserID(c); !ok {
		return
	}

	var req generateFromTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "request body must be a JSON object")
		return
	}
	if err := validation.ValidateReport(req.ReportText); err != nil {
		response.Error(c, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error()))
		return
	}

	text, err := h.uc.FromText.Execute(c.Request.Context(), req.ReportText)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"generatedProposal": text})
}
