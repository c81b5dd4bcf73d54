package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*RedisDraftCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := NewRedisDraftCache(context.Background(), "redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("failed to create draft cache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c, s
}

func sampleDraft(owner uuid.UUID) *entity.Proposal {
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	return &entity.Proposal{
		ID:      uuid.New(),
		OwnerID: owner,
		ProposalFields: entity.ProposalFields{
			ProjectTitle:          "Solar Grid",
			FundingAgency:         "DOE",
			FundingAmount:         50000,
			TimelineAndMilestones: "Q1 pilot",
		},
		Status:    valueobject.ProposalStatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRedisDraftCache_PutGet(t *testing.T) {
	c, s := setupTestCache(t)
	ctx := context.Background()
	p := sampleDraft(uuid.New())

	require.NoError(t, c.Put(ctx, p))
	assert.True(t, s.Exists("draft_proposal_"+p.ID.String()))

	got, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestRedisDraftCache_StoredShape(t *testing.T) {
	c, s := setupTestCache(t)
	p := sampleDraft(uuid.New())
	require.NoError(t, c.Put(context.Background(), p))

	raw, err := s.Get("draft_proposal_" + p.ID.String())
	require.NoError(t, err)
	assert.Contains(t, raw, `"timelineAndMilestone":"Q1 pilot"`)
	assert.Contains(t, raw, `"status":"submitted"`)
	assert.Contains(t, raw, `"ownerId":"`+p.OwnerID.String()+`"`)
}

func TestRedisDraftCache_GetMissing(t *testing.T) {
	c, _ := setupTestCache(t)

	_, err := c.Get(context.Background(), uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestRedisDraftCache_ListByOwnerSkipsMalformedAndForeign(t *testing.T) {
	c, s := setupTestCache(t)
	ctx := context.Background()
	owner := uuid.New()

	mine := sampleDraft(owner)
	other := sampleDraft(uuid.New())
	require.NoError(t, c.Put(ctx, mine))
	require.NoError(t, c.Put(ctx, other))

	broken := uuid.New()
	require.NoError(t, s.Set("draft_proposal_"+broken.String(), "{not json"))
	_, err := s.SAdd("draft_owner_"+owner.String(), broken.String())
	require.NoError(t, err)

	list, err := c.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
}

func TestRedisDraftCache_ExpiredEntriesDropped(t *testing.T) {
	c, s := setupTestCache(t)
	ctx := context.Background()
	owner := uuid.New()
	require.NoError(t, c.Put(ctx, sampleDraft(owner)))

	s.FastForward(2 * time.Hour)

	list, err := c.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedisDraftCache_Delete(t *testing.T) {
	c, s := setupTestCache(t)
	ctx := context.Background()
	p := sampleDraft(uuid.New())
	require.NoError(t, c.Put(ctx, p))

	require.NoError(t, c.Delete(ctx, p.ID))

	assert.False(t, s.Exists("draft_proposal_"+p.ID.String()))
	list, err := c.ListByOwner(ctx, p.OwnerID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoError(t, c.Delete(ctx, uuid.New()))
}
