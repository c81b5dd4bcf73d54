package proposal_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/proposal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Defaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	p := proposal.Normalize(map[string]any{}, now)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, entity.DefaultProjectTitle, p.ProjectTitle)
	assert.Equal(t, valueobject.FundingAmount(0), p.FundingAmount)
	assert.True(t, p.UpdatedAt.Equal(now))
	assert.Empty(t, p.GeneratedProposal)
	assert.Equal(t, valueobject.ProposalStatusDraft, p.Status)
}

func TestNormalize_StatusInference(t *testing.T) {
	now := time.Now()

	generated := proposal.Normalize(map[string]any{"generatedProposal": "text"}, now)
	assert.Equal(t, valueobject.ProposalStatusGenerated, generated.Status)

	explicit := proposal.Normalize(map[string]any{"status": "submitted", "generatedProposal": "text"}, now)
	assert.Equal(t, valueobject.ProposalStatusSubmitted, explicit.Status)

	bogus := proposal.Normalize(map[string]any{"status": "archived"}, now)
	assert.Equal(t, valueobject.ProposalStatusDraft, bogus.Status)
}

func TestNormalize_ServerShape(t *testing.T) {
	raw := `{
		"_id": "65f2a1b2c3d4e5f6a7b8c9d0",
		"ownerId": "8f14e45f-ceea-467f-a0e6-3c1b2b6a9d11",
		"projectTitle": "Solar Grid",
		"fundingAmount": "50,000",
		"timelineAndMilestone": "Q1 pilot",
		"createdAt": "2025-01-02T03:04:05.000Z"
	}`
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	p := proposal.Normalize(m, time.Now())

	assert.Equal(t, uuid.NewSHA1(uuid.MustParse("6f1c9a52-4d0b-4f43-9a6e-2b8f3c5d7e10"), []byte("65f2a1b2c3d4e5f6a7b8c9d0")), p.ID)
	assert.Equal(t, "8f14e45f-ceea-467f-a0e6-3c1b2b6a9d11", p.OwnerID.String())
	assert.Equal(t, valueobject.FundingAmount(50000), p.FundingAmount)
	assert.Equal(t, "Q1 pilot", p.TimelineAndMilestones)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), p.UpdatedAt)
	assert.Equal(t, p.CreatedAt, p.UpdatedAt)
}

func TestNormalize_ToolShape(t *testing.T) {
	id := uuid.New()
	m := map[string]any{
		"proposal_id": id.String(),
		"proposal": map[string]any{
			"title":              "From tool",
			"generated_proposal": "Tool text",
			"executive_summary":  "Summary",
			"amount":             float64(1200),
		},
	}

	p := proposal.Normalize(m, time.Now())

	assert.Equal(t, id, p.ID)
	assert.Equal(t, "From tool", p.ProjectTitle)
	assert.Equal(t, "Tool text", p.GeneratedProposal)
	assert.Equal(t, "Summary", p.ExecutiveSummary)
	assert.Equal(t, valueobject.FundingAmount(1200), p.FundingAmount)
	assert.Equal(t, valueobject.ProposalStatusGenerated, p.Status)
}

func TestNormalize_ReportAlias(t *testing.T) {
	p := proposal.Normalize(map[string]any{"report": "Report body"}, time.Now())
	assert.Equal(t, "Report body", p.GeneratedProposal)
}

func TestNormalizeFields_KeepsEmptyTitle(t *testing.T) {
	fields := proposal.NormalizeFields(map[string]any{"fundingAmount": 10})
	assert.Empty(t, fields.ProjectTitle)
	assert.Equal(t, valueobject.FundingAmount(10), fields.FundingAmount)
}

func TestMerge_Deterministic(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	shared := uuid.New()
	local := []*entity.Proposal{{ID: shared, ProposalFields: entity.ProposalFields{ProjectTitle: "local"}, UpdatedAt: now.Add(time.Hour)}}
	remote := []*entity.Proposal{{ID: shared, ProposalFields: entity.ProposalFields{ProjectTitle: "remote"}, UpdatedAt: now}}

	for i := 0; i < 10; i++ {
		merged := proposal.Merge(local, remote, now)
		require.Len(t, merged, 1)
		assert.Equal(t, "remote", merged[0].ProjectTitle)
	}
}

func TestMerge_TieBreakByID(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	merged := proposal.Merge(
		[]*entity.Proposal{{ID: b, UpdatedAt: now}},
		[]*entity.Proposal{{ID: a, UpdatedAt: now}},
		now,
	)

	require.Len(t, merged, 2)
	assert.Equal(t, a, merged[0].ID)
	assert.Equal(t, b, merged[1].ID)
	assert.Equal(t, entity.DefaultProjectTitle, merged[0].ProjectTitle)
}
