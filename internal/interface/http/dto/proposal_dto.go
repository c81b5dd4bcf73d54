package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
	"github.com/ignatzorin/grantwriter-backend/internal/validation"
)

// ProposalBody: тело create/update/generate после нормализации.
// Тело приходит как произвольный JSON: конструктор, старые черновики и RPC
// называют поля по-разному.
type ProposalBody struct {
	OwnerID        *uuid.UUID
	ProposalID     *uuid.UUID
	Status         valueobject.ProposalStatus
	ResearcherName string
	Fields         entity.ProposalFields
}

func ParseProposalBody(raw map[string]any) (*ProposalBody, error) {
	body := &ProposalBody{Fields: proposal.NormalizeFields(raw)}

	var err error
	if body.OwnerID, err = optionalUUID(raw, "ownerId", "owner_id", "userId"); err != nil {
		return nil, err
	}
	if body.ProposalID, err = optionalUUID(raw, "id", "_id", "proposalId", "proposal_id"); err != nil {
		return nil, err
	}

	if s, ok := raw["status"].(string); ok && s != "" {
		status, err := valueobject.NewProposalStatus(s)
		if err != nil {
			return nil, err
		}
		body.Status = status
	}
	if name, ok := raw["researcherName"].(string); ok {
		body.ResearcherName = name
	}

	if err := validation.ValidateProposalFields(body.Fields); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return body, nil
}

func optionalUUID(raw map[string]any, keys ...string) (*uuid.UUID, error) {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil || v == "" {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("%s must be a string", key))
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, fmt.Sprintf("%s must be a valid UUID", key))
		}
		return &id, nil
	}
	return nil, nil
}

type EditProposalRequest struct {
	OwnerID    string `json:"ownerId"`
	UserPrompt string `json:"userPrompt"`
	Section    string `json:"section"`
}

type ProposalResponse struct {
	ID                               uuid.UUID `json:"id"`
	OwnerID                          uuid.UUID `json:"ownerId"`
	ProjectTitle                     string    `json:"projectTitle"`
	FundingAgency                    string    `json:"fundingAgency"`
	FundingAmount                    float64   `json:"fundingAmount"`
	CoverLetter                      string    `json:"coverLetter"`
	ExecutiveSummary                 string    `json:"executiveSummary"`
	IntroductionAndBackground        string    `json:"introductionAndBackground"`
	StatementOfNeed                  string    `json:"statementOfNeed"`
	GoalsObjectivesAndSpecificAims   string    `json:"goalsObjectivesAndSpecificAims"`
	CommercializationStrategy        string    `json:"commercializationStrategy"`
	BudgetAndJustification           string    `json:"budgetAndJustification"`
	TimelineAndMilestone             string    `json:"timelineAndMilestone"`
	EvaluationAndImpactPlans         string    `json:"evaluationAndImpactPlans"`
	SustainabilityPlans              string    `json:"sustainabilityPlans"`
	AppendicesAndSupportingMaterials string    `json:"appendicesAndSupportingMaterials"`
	Status                           string    `json:"status"`
	GeneratedProposal                string    `json:"generatedProposal"`
	CreatedAt                        time.Time `json:"createdAt"`
	UpdatedAt                        time.Time `json:"updatedAt"`
}

func ToProposalResponse(p *entity.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:                               p.ID,
		OwnerID:                          p.OwnerID,
		ProjectTitle:                     p.ProjectTitle,
		FundingAgency:                    p.FundingAgency,
		FundingAmount:                    p.FundingAmount.Float64(),
		CoverLetter:                      p.CoverLetter,
		ExecutiveSummary:                 p.ExecutiveSummary,
		IntroductionAndBackground:        p.IntroductionAndBackground,
		StatementOfNeed:                  p.StatementOfNeed,
		GoalsObjectivesAndSpecificAims:   p.GoalsObjectivesAndSpecificAims,
		CommercializationStrategy:        p.CommercializationStrategy,
		BudgetAndJustification:           p.BudgetAndJustification,
		TimelineAndMilestone:             p.TimelineAndMilestones,
		EvaluationAndImpactPlans:         p.EvaluationAndImpactPlans,
		SustainabilityPlans:              p.SustainabilityPlans,
		AppendicesAndSupportingMaterials: p.AppendicesAndSupportingMaterials,
		Status:                           string(p.Status),
		GeneratedProposal:                p.GeneratedProposal,
		CreatedAt:                        p.CreatedAt,
		UpdatedAt:                        p.UpdatedAt,
	}
}

func ToProposalResponses(items []*entity.Proposal) []ProposalResponse {
	responses := make([]ProposalResponse, 0, len(items))
	for _, p := range items {
		responses = append(responses, ToProposalResponse(p))
	}
	return responses
}

type GeneratedResponse struct {
	GeneratedProposal string           `json:"generatedProposal"`
	Proposal          ProposalResponse `json:"proposal"`
}

func ToGeneratedResponse(p *entity.Proposal) GeneratedResponse {
	return GeneratedResponse{GeneratedProposal: p.GeneratedProposal, Proposal: ToProposalResponse(p)}
}

type DeletedResponse struct {
	ID      uuid.UUID `json:"id"`
	Message string    `json:"message"`
}

type StatsResponse struct {
	Total        int                `json:"total"`
	Drafts       int                `json:"drafts"`
	Submitted    int                `json:"submitted"`
	Generated    int                `json:"generated"`
	TotalFunding float64            `json:"totalFunding"`
	Recent       []ProposalResponse `json:"recent"`
	Degraded     bool               `json:"degraded"`
}

func ToStatsResponse(s *proposal.Stats) StatsResponse {
	return StatsResponse{
		Total:        s.Total,
		Drafts:       s.Drafts,
		Submitted:    s.Submitted,
		Generated:    s.Generated,
		TotalFunding: s.TotalFunding.Float64(),
		Recent:       ToProposalResponses(s.Recent),
		Degraded:     s.Degraded,
	}
}
