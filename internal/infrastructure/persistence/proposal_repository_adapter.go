package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
)

// Колонки разделов берутся из entity.Sections, чтобы состав разделов правился в одном месте.
var (
	proposalColumns   = buildProposalColumns()
	selectProposalSQL = "SELECT " + strings.Join(proposalColumns, ", ") + " FROM proposals"
	insertProposalSQL = buildInsertSQL()
	updateProposalSQL = buildUpdateSQL()
)

type ProposalRepositoryAdapter struct {
	db *sqlx.DB
}

func NewProposalRepositoryAdapter(db *sqlx.DB) *ProposalRepositoryAdapter {
	return &ProposalRepositoryAdapter{db: db}
}

func (r *ProposalRepositoryAdapter) Create(ctx context.Context, proposal *entity.Proposal) error {
	if _, err := r.db.NamedExecContext(ctx, insertProposalSQL, proposalArgs(proposal)); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to create proposal")
	}
	return nil
}

// Update пишет запись только если она принадлежит владельцу.
func (r *ProposalRepositoryAdapter) Update(ctx context.Context, proposal *entity.Proposal) error {
	res, err := r.db.NamedExecContext(ctx, updateProposalSQL, proposalArgs(proposal))
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to update proposal")
	}
	return requireAffected(res, apperror.ErrProposalNotFound)
}

func (r *ProposalRepositoryAdapter) FindByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) (*entity.Proposal, error) {
	row, err := getOne[proposalRow](ctx, r.db, apperror.ErrProposalNotFound, "failed to load proposal",
		selectProposalSQL+` WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

func (r *ProposalRepositoryAdapter) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Proposal, error) {
	return selectAll(ctx, r.db, (*proposalRow).toEntity, "failed to list proposals",
		selectProposalSQL+` WHERE owner_id = $1 ORDER BY updated_at DESC, id`, ownerID)
}

func (r *ProposalRepositoryAdapter) DeleteByIDAndOwner(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to delete proposal")
	}
	return requireAffected(res, apperror.ErrProposalNotFound)
}

func (r *ProposalRepositoryAdapter) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM proposals WHERE id = $1)`, id); err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to check proposal")
	}
	return exists, nil
}

// Ping проверяет доступность базы для /health.
func (r *ProposalRepositoryAdapter) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type proposalRow struct {
	ID                               uuid.UUID `db:"id"`
	OwnerID                          uuid.UUID `db:"owner_id"`
	ProjectTitle                     string    `db:"project_title"`
	FundingAgency                    string    `db:"funding_agency"`
	FundingAmount                    float64   `db:"funding_amount"`
	CoverLetter                      string    `db:"cover_letter"`
	ExecutiveSummary                 string    `db:"executive_summary"`
	IntroductionAndBackground        string    `db:"introduction_and_background"`
	StatementOfNeed                  string    `db:"statement_of_need"`
	GoalsObjectivesAndSpecificAims   string    `db:"goals_objectives_and_specific_aims"`
	CommercializationStrategy        string    `db:"commercialization_strategy"`
	BudgetAndJustification           string    `db:"budget_and_justification"`
	TimelineAndMilestones            string    `db:"timeline_and_milestones"`
	EvaluationAndImpactPlans         string    `db:"evaluation_and_impact_plans"`
	SustainabilityPlans              string    `db:"sustainability_plans"`
	AppendicesAndSupportingMaterials string    `db:"appendices_and_supporting_materials"`
	Status                           string    `db:"status"`
	GeneratedProposal                string    `db:"generated_proposal"`
	CreatedAt                        time.Time `db:"created_at"`
	UpdatedAt                        time.Time `db:"updated_at"`
}

func (p *proposalRow) toEntity() *entity.Proposal {
	return &entity.Proposal{
		ID:      p.ID,
		OwnerID: p.OwnerID,
		ProposalFields: entity.ProposalFields{
			ProjectTitle:                     p.ProjectTitle,
			FundingAgency:                    p.FundingAgency,
			FundingAmount:                    valueobject.ParseFundingAmount(p.FundingAmount),
			CoverLetter:                      p.CoverLetter,
			ExecutiveSummary:                 p.ExecutiveSummary,
			IntroductionAndBackground:        p.IntroductionAndBackground,
			StatementOfNeed:                  p.StatementOfNeed,
			GoalsObjectivesAndSpecificAims:   p.GoalsObjectivesAndSpecificAims,
			CommercializationStrategy:        p.CommercializationStrategy,
			BudgetAndJustification:           p.BudgetAndJustification,
			TimelineAndMilestones:            p.TimelineAndMilestones,
			EvaluationAndImpactPlans:         p.EvaluationAndImpactPlans,
			SustainabilityPlans:              p.SustainabilityPlans,
			AppendicesAndSupportingMaterials: p.AppendicesAndSupportingMaterials,
		},
		Status:            valueobject.InferProposalStatus(p.Status, p.GeneratedProposal),
		GeneratedProposal: p.GeneratedProposal,
		CreatedAt:         p.CreatedAt.UTC(),
		UpdatedAt:         p.UpdatedAt.UTC(),
	}
}

func proposalArgs(p *entity.Proposal) map[string]any {
	args := map[string]any{
		"id":                 p.ID,
		"owner_id":           p.OwnerID,
		"project_title":      p.ProjectTitle,
		"funding_agency":     p.FundingAgency,
		"funding_amount":     p.FundingAmount.Float64(),
		"status":             string(p.Status),
		"generated_proposal": p.GeneratedProposal,
		"created_at":         p.CreatedAt,
		"updated_at":         p.UpdatedAt,
	}
	for _, s := range entity.Sections {
		args[s.Column] = s.Value(&p.ProposalFields)
	}
	return args
}

func buildProposalColumns() []string {
	cols := []string{"id", "owner_id", "project_title", "funding_agency", "funding_amount"}
	for _, s := range entity.Sections {
		cols = append(cols, s.Column)
	}
	return append(cols, "status", "generated_proposal", "created_at", "updated_at")
}

func buildInsertSQL() string {
	placeholders := make([]string, len(proposalColumns))
	for i, c := range proposalColumns {
		placeholders[i] = ":" + c
	}
	return "INSERT INTO proposals (" + strings.Join(proposalColumns, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
}

func buildUpdateSQL() string {
	var sets []string
	for _, c := range proposalColumns {
		switch c {
		case "id", "owner_id", "created_at":
			continue
		}
		sets = append(sets, c+" = :"+c)
	}
	return "UPDATE proposals SET " + strings.Join(sets, ", ") + " WHERE id = :id AND owner_id = :owner_id"
}
