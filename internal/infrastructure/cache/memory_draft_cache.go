package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

// MemoryDraftCache держит черновики в памяти процесса с TTL.
// Запасной вариант, когда Redis не настроен: копии не переживают рестарт.
type MemoryDraftCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	ownerID   uuid.UUID
	data      []byte
	expiresAt time.Time
}

// NewMemoryDraftCache создаёт кэш; истёкшие записи вычищаются, пока жив ctx.
func NewMemoryDraftCache(ctx context.Context, ttl time.Duration) *MemoryDraftCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &MemoryDraftCache{
		entries: make(map[uuid.UUID]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	go c.cleanup(ctx, 5*time.Minute)
	return c
}

// Записи хранятся в том же JSON, что и в Redis: копия независима от вызывающего.
func (c *MemoryDraftCache) Put(_ context.Context, p *entity.Proposal) error {
	raw, err := json.Marshal(encodeDraft(p))
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "failed to encode draft")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = &memoryEntry{ownerID: p.OwnerID, data: raw, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryDraftCache) Get(_ context.Context, id uuid.UUID) (*entity.Proposal, error) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, apperror.ErrProposalNotFound
	}
	p, err := decodeDraft(entry.data)
	if err != nil {
		return nil, apperror.ErrProposalNotFound
	}
	return p, nil
}

func (c *MemoryDraftCache) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*entity.Proposal, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	var result []*entity.Proposal
	for _, entry := range c.entries {
		if entry.ownerID != ownerID || now.After(entry.expiresAt) {
			continue
		}
		if p, err := decodeDraft(entry.data); err == nil {
			result = append(result, p)
		}
	}
	return result, nil
}

func (c *MemoryDraftCache) Delete(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *MemoryDraftCache) Ping(context.Context) error {
	return nil
}

func (c *MemoryDraftCache) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryDraftCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for id, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, id)
		}
	}
}
