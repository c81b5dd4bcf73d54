package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

// DefaultProjectTitle подставляется, когда у записи нет названия.
const DefaultProjectTitle = "Untitled Proposal"

// ProposalFields содержит четырнадцать редактируемых полей заявки.
type ProposalFields struct {
	ProjectTitle                     string
	FundingAgency                    string
	FundingAmount                    valueobject.FundingAmount
	CoverLetter                      string
	ExecutiveSummary                 string
	IntroductionAndBackground        string
	StatementOfNeed                  string
	GoalsObjectivesAndSpecificAims   string
	CommercializationStrategy        string
	BudgetAndJustification           string
	TimelineAndMilestones            string
	EvaluationAndImpactPlans         string
	SustainabilityPlans              string
	AppendicesAndSupportingMaterials string
}

type Proposal struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	ProposalFields
	Status            valueobject.ProposalStatus
	GeneratedProposal string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewProposal(ownerID uuid.UUID, fields ProposalFields, status valueobject.ProposalStatus) (*Proposal, error) {
	if ownerID == uuid.Nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "owner id is required")
	}
	if err := fields.Validate(status); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Proposal{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		ProposalFields: fields,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Validate проверяет поля для целевого статуса.
// Отрицательная сумма запрещена всегда, для submitted и выше нужны название и сумма > 0.
func (f ProposalFields) Validate(target valueobject.ProposalStatus) error {
	if f.FundingAmount < 0 {
		return apperror.New(apperror.ErrCodeValidation, "funding amount cannot be negative")
	}
	if !target.AtLeast(valueobject.ProposalStatusSubmitted) {
		return nil
	}
	return f.ValidateForSubmission()
}

func (f ProposalFields) ValidateForSubmission() error {
	if strings.TrimSpace(f.ProjectTitle) == "" {
		return apperror.New(apperror.ErrCodeValidation, "project title is required")
	}
	if !f.FundingAmount.IsPositive() {
		return apperror.New(apperror.ErrCodeValidation, "funding amount must be a positive number")
	}
	return nil
}

// ApplyFields переносит поля и сдвигает updatedAt.
func (p *Proposal) ApplyFields(fields ProposalFields) {
	p.ProposalFields = fields
	p.UpdatedAt = time.Now().UTC()
}

// TransitionTo меняет статус только вперёд по жизненному циклу.
func (p *Proposal) TransitionTo(status valueobject.ProposalStatus) error {
	if !status.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "invalid proposal status")
	}
	if !p.Status.CanTransitionTo(status) {
		return apperror.New(apperror.ErrCodeInvalidState, "cannot move proposal from "+string(p.Status)+" to "+string(status))
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkGenerated сохраняет результат генерации целиком, без склейки с прошлым текстом.
func (p *Proposal) MarkGenerated(text string) {
	p.GeneratedProposal = text
	p.Status = valueobject.ProposalStatusGenerated
	p.UpdatedAt = time.Now().UTC()
}

// ReplaceGenerated подменяет документ после правки, статус остаётся generated.
func (p *Proposal) ReplaceGenerated(text string) error {
	if !p.HasDocument() {
		return apperror.ErrNothingToEdit
	}
	p.GeneratedProposal = text
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (p *Proposal) HasDocument() bool {
	return strings.TrimSpace(p.GeneratedProposal) != ""
}

func (p *Proposal) IsOwnedBy(userID uuid.UUID) bool {
	return p.OwnerID == userID
}

// Clone возвращает независимую копию; все поля значимые.
func (p *Proposal) Clone() *Proposal {
	c := *p
	return &c
}
