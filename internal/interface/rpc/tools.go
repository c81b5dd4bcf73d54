package rpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/http/middleware"
	"github.com/ignatzorin/grantwriter-backend/internal/interface/http/dto"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
	"github.com/ignatzorin/grantwriter-backend/internal/validation"
)

const (
	ToolCreateProposal   = "kickstart_create_proposal"
	ToolGetProposals     = "kickstart_get_proposals"
	ToolGetProposal      = "kickstart_get_proposal"
	ToolUpdateProposal   = "kickstart_update_proposal"
	ToolDeleteProposal   = "kickstart_delete_proposal"
	ToolGenerateProposal = "kickstart_generate_proposal_ai"
	ToolEditProposal     = "kickstart_edit_proposal_ai"
	ToolGenerateFromText = "kickstart_generate_proposal_from_text"
)

var errUnknownTool = errors.New("unknown tool")

// ToolHandler выполняет вызовы инструментов.
type ToolHandler struct {
	uc     *proposal.UseCases
	tokens middleware.AccessTokenParser
}

func NewToolHandler(uc *proposal.UseCases, tokens middleware.AccessTokenParser) *ToolHandler {
	return &ToolHandler{uc: uc, tokens: tokens}
}

// Handle проверяет токен из аргументов и передаёт вызов нужному инструменту.
func (h *ToolHandler) Handle(ctx context.Context, name string, args map[string]any) (any, error) {
	run, ok := h.dispatch(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownTool, name)
	}

	token, _ := args["token"].(string)
	if token == "" {
		return nil, apperror.ErrUnauthorized
	}
	userID, err := h.tokens.ParseAccess(token)
	if err != nil || userID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeUnauthorized, "invalid or expired token")
	}
	return run(ctx, userID, args)
}

type toolFunc func(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error)

func (h *ToolHandler) dispatch(name string) (toolFunc, bool) {
	switch name {
	case ToolCreateProposal:
		return h.create, true
	case ToolGetProposals:
		return h.list, true
	case ToolGetProposal:
		return h.get, true
	case ToolUpdateProposal:
		return h.update, true
	case ToolDeleteProposal:
		return h.delete, true
	case ToolGenerateProposal:
		return h.generate, true
	case ToolEditProposal:
		return h.edit, true
	case ToolGenerateFromText:
		return h.generateFromText, true
	}
	return nil, false
}

// parseBody разбирает аргументы как тело REST и сверяет владельца.
func parseBody(userID uuid.UUID, args map[string]any) (*dto.ProposalBody, error) {
	body, err := dto.ParseProposalBody(args)
	if err != nil {
		return nil, err
	}
	if body.OwnerID != nil && *body.OwnerID != userID {
		return nil, apperror.ErrProposalNotFound
	}
	return body, nil
}

func requireProposalID(body *dto.ProposalBody) (uuid.UUID, error) {
	if body.ProposalID == nil {
		return uuid.Nil, apperror.New(apperror.ErrCodeValidation, "proposal_id is required")
	}
	return *body.ProposalID, nil
}

func proposalIDArg(args map[string]any) (uuid.UUID, error) {
	for _, key := range []string{"proposal_id", "proposalId", "id"} {
		if raw, ok := args[key].(string); ok && raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return uuid.Nil, apperror.New(apperror.ErrCodeValidation, key+" must be a valid UUID")
			}
			return id, nil
		}
	}
	return uuid.Nil, apperror.New(apperror.ErrCodeValidation, "proposal_id is required")
}

func stringArg(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := args[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (h *ToolHandler) create(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
	body, err := parseBody(userID, args)
	if err != nil {
		return nil, err
	}
	saved, err := h.uc.Save.Execute(ctx, proposal.SaveProposalInput{
		OwnerID:    userID,
		ProposalID: body.ProposalID,
		Fields:     body.Fields,
		Status:     body.Status,
	})
	if err != nil {
		if saved != nil {
			return nil, apperror.Wrap(err, apperror.CodeOf(err), "failed to create proposal, draft kept locally as "+saved.ID.String())
		}
		return nil, err
	}
	return dto.ToProposalResponse(saved), nil
}

func (h *ToolHandler) update(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
	body, err := parseBody(userID, args)
	if err != nil {
		return nil, err
	}
	id, err := requireProposalID(body)
	if err != nil {
		return nil, err
	}
	saved, err := h.uc.Save.Execute(ctx, proposal.SaveProposalInput{
		OwnerID:    userID,
		ProposalID: &id,
		Fields:     body.Fields,
		Status:     body.Status,
	})
	if err != nil {
		return nil, err
	}
	return dto.ToProposalResponse(saved), nil
}

type listResult struct {
	Proposals []dto.ProposalResponse `json:"proposals"`
	Degraded  bool                   `json:"degraded"`
}

func (h *ToolHandler) list(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
	filter := proposal.Filter{
		Agency: stringArg(args, "agency", "fundingAgency"),
		Search: stringArg(args, "search"),
	}
	if raw := stringArg(args, "status"); raw != "" {
		status, err := valueobject.NewProposalStatus(raw)
		if err != nil {
			return nil, err
		}
		filter.Status = status
	}

	out, err := h.uc.List.Execute(ctx, proposal.ListProposalsInput{OwnerID: userID, Filter: filter})
	if err != nil {
		return nil, err
	}
	return listResult{Proposals: dto.ToProposalResponses(out.Proposals), Degraded: out.Degraded}, nil
}

func (h *ToolHandler) get(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
	id, err := proposalIDArg(args)
	if err != nil {
		return nil, err
	}
	out, err := h.uc.Get.Execute(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return dto.ToProposalResponse(out.Proposal), nil
}

func (h *ToolHandler) delete(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
	id, err := proposalIDArg(args)
	if err != nil {
		return nil, err
	}
	if err := h.uc.Delete.Execute(ctx, userID, id); err != nil {
		return nil, err
	}
	return dto.DeletedResponse{ID: id, Message: "proposal deleted"}, nil
}

// generate без полей в аргументах берёт поля сохранённой записи.
func (h *ToolHandler) generate(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
	if raw, _ := args["proposal_id"].(string); raw == "new" {
		delete(args, "proposal_id")
	}
	body, err := parseBody(userID, args)
	if err != nil {
		return nil, err
	}

	fields := body.Fields
	if body.ProposalID != nil && fields == (entity.ProposalFields{}) {
		out, err := h.uc.Get.Execute(ctx, userID, *body.ProposalID)
		if err != nil {
			return nil, err
		}
		fields = out.Proposal.ProposalFields
	}

	generated, err := h.uc.Generate.Execute(ctx, proposal.GenerateProposalInput{
		OwnerID:        userID,
		ProposalID:     body.ProposalID,
		Fields:         fields,
		ResearcherName: body.ResearcherName,
	})
	if err != nil {
		return nil, err
	}
	return dto.ToGeneratedResponse(generated), nil
}

func (h *ToolHandler) edit(ctx context.Context, userID uuid.UUID, args map[string]any) (any, error) {
	id, err := proposalIDArg(args)
	if err != nil {
		return nil, err
	}
	instruction := stringArg(args, "edit_instructions", "userPrompt", "instructions")
	if err := validation.ValidateInstruction(instruction); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	edited, err := h.uc.Edit.Execute(ctx, proposal.EditProposalInput{
		OwnerID:     userID,
		ProposalID:  id,
		Instruction: instruction,
		Section:     stringArg(args, "section"),
	})
	if err != nil {
		return nil, err
	}
	return dto.ToGeneratedResponse(edited), nil
}

func (h *ToolHandler) generateFromText(ctx context.Context, _ uuid.UUID, args map[string]any) (any, error) {
	report := stringArg(args, "report_text", "reportText")
	if err := validation.ValidateReport(report); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	text, err := h.uc.FromText.Execute(ctx, report)
	if err != nil {
		return nil, err
	}
	return map[string]string{"generatedProposal": text}, nil
}

func toolDefinitions() []Tool {
	fieldProps := map[string]any{
		"token":         stringProp("Access token"),
		"proposal_id":   stringProp("Proposal id (UUID)"),
		"projectTitle":  stringProp("Project title"),
		"fundingAgency": stringProp("Funding agency"),
		"fundingAmount": map[string]any{"type": "number", "description": "Requested amount in USD"},
		"status":        map[string]any{"type": "string", "enum": []string{"draft", "submitted", "generated"}},
	}
	for _, s := range entity.Sections {
		fieldProps[s.Key] = stringProp(s.Label)
	}

	withFields := func(extra map[string]any, required ...string) map[string]any {
		props := make(map[string]any, len(fieldProps)+len(extra))
		for k, v := range fieldProps {
			props[k] = v
		}
		for k, v := range extra {
			props[k] = v
		}
		return objectSchema(props, required...)
	}

	return []Tool{
		{
			Name:        ToolCreateProposal,
			Description: "Create a proposal, or save over an existing one when proposal_id is given",
			InputSchema: withFields(nil, "token"),
		},
		{
			Name:        ToolGetProposals,
			Description: "List the caller's proposals merged with locally cached drafts",
			InputSchema: objectSchema(map[string]any{
				"token":  stringProp("Access token"),
				"status": stringProp("Filter by status"),
				"agency": stringProp("Filter by funding agency substring"),
				"search": stringProp("Search in title and generated text"),
			}, "token"),
		},
		{
			Name:        ToolGetProposal,
			Description: "Get one proposal",
			InputSchema: idSchema(),
		},
		{
			Name:        ToolUpdateProposal,
			Description: "Update proposal fields; status can only move forward",
			InputSchema: withFields(nil, "token", "proposal_id"),
		},
		{
			Name:        ToolDeleteProposal,
			Description: "Delete a proposal with its cached draft and attachments",
			InputSchema: idSchema(),
		},
		{
			Name:        ToolGenerateProposal,
			Description: "Generate the full proposal document with the language model",
			InputSchema: withFields(map[string]any{"researcherName": stringProp("Principal investigator")}, "token"),
		},
		{
			Name:        ToolEditProposal,
			Description: "Rewrite the generated document following edit instructions",
			InputSchema: objectSchema(map[string]any{
				"token":             stringProp("Access token"),
				"proposal_id":       stringProp("Proposal id (UUID)"),
				"edit_instructions": stringProp("What to change"),
				"section":           stringProp("Optional section to focus on"),
			}, "token", "proposal_id", "edit_instructions"),
		},
		{
			Name:        ToolGenerateFromText,
			Description: "Turn a free-text research report into a proposal document without saving it",
			InputSchema: objectSchema(map[string]any{
				"token":       stringProp("Access token"),
				"report_text": stringProp("Report text"),
			}, "token", "report_text"),
		},
	}
}

func idSchema() map[string]any {
	return objectSchema(map[string]any{
		"token":       stringProp("Access token"),
		"proposal_id": stringProp("Proposal id (UUID)"),
	}, "token", "proposal_id")
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	return map[string]any{"type": "object", "properties": props, "required": required}
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": strings.TrimSpace(description)}
}
