package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/valueobject"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/redis/go-redis/v9"
)

const (
	draftKeyPrefix = "draft_proposal_"
	ownerKeyPrefix = "draft_owner_"
	defaultTTL     = 30 * 24 * time.Hour
)

// RedisDraftCache хранит полные копии заявок под ключом draft_proposal_<id>.
// Множество draft_owner_<ownerId> индексирует id черновиков владельца.
type RedisDraftCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftCache подключается по URL вида redis://host:port/db и проверяет соединение.
func NewRedisDraftCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisDraftCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: некорректный url: %w", err)
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: не удалось подключиться: %w", err)
	}

	return NewRedisDraftCacheWithClient(client, ttl), nil
}

func NewRedisDraftCacheWithClient(client *redis.Client, ttl time.Duration) *RedisDraftCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisDraftCache{client: client, ttl: ttl}
}

func draftKey(id uuid.UUID) string {
	return draftKeyPrefix + id.String()
}

func ownerKey(ownerID uuid.UUID) string {
	return ownerKeyPrefix + ownerID.String()
}

func (c *RedisDraftCache) Put(ctx context.Context, p *entity.Proposal) error {
	raw, err := json.Marshal(encodeDraft(p))
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "failed to encode draft")
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, draftKey(p.ID), raw, c.ttl)
		pipe.SAdd(ctx, ownerKey(p.OwnerID), p.ID.String())
		pipe.Expire(ctx, ownerKey(p.OwnerID), c.ttl)
		return nil
	})
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to cache draft")
	}
	return nil
}

func (c *RedisDraftCache) Get(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	raw, err := c.client.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrProposalNotFound
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to read draft")
	}

	p, err := decodeDraft(raw)
	if err != nil {
		logger.L().WithError(err).WithField("proposal_id", id.String()).Warn("кэш черновиков: повреждённая запись пропущена")
		return nil, apperror.ErrProposalNotFound
	}
	return p, nil
}

// ListByOwner возвращает черновики владельца; повреждённые и истёкшие записи пропускаются.
func (c *RedisDraftCache) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entity.Proposal, error) {
	ids, err := c.client.SMembers(ctx, ownerKey(ownerID)).Result()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to list drafts")
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = draftKeyPrefix + id
	}
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to list drafts")
	}

	var (
		result []*entity.Proposal
		stale  []any
	)
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		p, err := decodeDraft([]byte(s))
		if err != nil || !p.IsOwnedBy(ownerID) {
			logger.L().WithField("key", keys[i]).Warn("кэш черновиков: повреждённая запись пропущена")
			continue
		}
		result = append(result, p)
	}

	if len(stale) > 0 {
		_ = c.client.SRem(ctx, ownerKey(ownerID), stale...).Err()
	}
	return result, nil
}

func (c *RedisDraftCache) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := c.Get(ctx, id)
	if err != nil && !apperror.IsNotFound(err) {
		return err
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, draftKey(id))
		if p != nil {
			pipe.SRem(ctx, ownerKey(p.OwnerID), id.String())
		}
		return nil
	})
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to delete draft")
	}
	return nil
}

func (c *RedisDraftCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisDraftCache) Close() error {
	return c.client.Close()
}

// encodeDraft кладёт разделы под их JSON-ключами, как их шлёт конструктор.
func encodeDraft(p *entity.Proposal) map[string]any {
	m := map[string]any{
		"id":                p.ID.String(),
		"ownerId":           p.OwnerID.String(),
		"projectTitle":      p.ProjectTitle,
		"fundingAgency":     p.FundingAgency,
		"fundingAmount":     p.FundingAmount.Float64(),
		"status":            string(p.Status),
		"generatedProposal": p.GeneratedProposal,
		"createdAt":         p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt":         p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, s := range entity.Sections {
		m[s.Key] = s.Value(&p.ProposalFields)
	}
	return m
}

func decodeDraft(raw []byte) (*entity.Proposal, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(str(m["id"]))
	if err != nil {
		return nil, fmt.Errorf("draft: некорректный id: %w", err)
	}
	ownerID, err := uuid.Parse(str(m["ownerId"]))
	if err != nil {
		return nil, fmt.Errorf("draft: некорректный ownerId: %w", err)
	}

	p := &entity.Proposal{
		ID:      id,
		OwnerID: ownerID,
		ProposalFields: entity.ProposalFields{
			ProjectTitle:  str(m["projectTitle"]),
			FundingAgency: str(m["fundingAgency"]),
			FundingAmount: valueobject.ParseFundingAmount(m["fundingAmount"]),
		},
		GeneratedProposal: str(m["generatedProposal"]),
	}
	for _, s := range entity.Sections {
		s.Set(&p.ProposalFields, str(m[s.Key]))
	}
	p.Status = valueobject.InferProposalStatus(str(m["status"]), p.GeneratedProposal)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, str(m["createdAt"]))
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, str(m["updatedAt"]))
	return p, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
