package handler_test

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

var errOutage = errors.New("connection refused")

// memProposals: хранилище в памяти; down имитирует недоступную базу.
type memProposals struct {
	mu    sync.Mutex
	items map[uuid.UUID]*entity.Proposal
	down  bool
}

func newMemProposals() *memProposals {
	return &memProposals{items: map[uuid.UUID]*entity.Proposal{}}
}

func (r *memProposals) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

func (r *memProposals) Create(_ context.Context, p *entity.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errOutage
	}
	r.items[p.ID] = p.Clone()
	return nil
}

func (r *memProposals) Update(_ context.Context, p *entity.Proposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errOutage
	}
	if _, ok := r.items[p.ID]; !ok {
		return apperror.ErrProposalNotFound
	}
	r.items[p.ID] = p.Clone()
	return nil
}

func (r *memProposals) FindByIDAndOwner(_ context.Context, id, ownerID uuid.UUID) (*entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return nil, errOutage
	}
	p, ok := r.items[id]
	if !ok || p.OwnerID != ownerID {
		return nil, apperror.ErrProposalNotFound
	}
	return p.Clone(), nil
}

func (r *memProposals) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*entity.Proposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return nil, errOutage
	}
	var out []*entity.Proposal
	for _, p := range r.items {
		if p.OwnerID == ownerID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *memProposals) DeleteByIDAndOwner(_ context.Context, id, ownerID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return errOutage
	}
	p, ok := r.items[id]
	if !ok || p.OwnerID != ownerID {
		return apperror.ErrProposalNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memProposals) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.down {
		return false, errOutage
	}
	_, ok := r.items[id]
	return ok, nil
}

func (r *memProposals) get(id uuid.UUID) (*entity.Proposal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	return p, ok
}

type stubGenerator struct {
	text     string
	err      error
	requests []repository.CompletionRequest
}

func (g *stubGenerator) Complete(_ context.Context, req repository.CompletionRequest) (string, error) {
	g.requests = append(g.requests, req)
	return g.text, g.err
}

// stubTokens принимает токен вида "token-<uuid>".
type stubTokens struct{}

func (stubTokens) ParseAccess(token string) (uuid.UUID, error) {
	const prefix = "token-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return uuid.Nil, errors.New("bad token")
	}
	return uuid.Parse(token[len(prefix):])
}

func tokenFor(userID uuid.UUID) string {
	return "token-" + userID.String()
}
