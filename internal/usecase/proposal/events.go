package proposal

import (
	"context"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// События жизненного цикла для подписчиков владельца.
const (
	EventProposalSaved     = "proposal.saved"
	EventProposalGenerated = "proposal.generated"
	EventProposalEdited    = "proposal.edited"
	EventProposalDeleted   = "proposal.deleted"
)

func publish(events repository.EventPublisher, p *entity.Proposal, event string) {
	if events == nil {
		return
	}
	events.Publish(p.OwnerID, event, map[string]any{
		"id":        p.ID.String(),
		"status":    string(p.Status),
		"updatedAt": p.UpdatedAt,
	})
}

// mirrorDraft копирует полный набор полей в локальный кэш.
// Ошибки кэша только логируются; чужую запись в кэше не перезаписываем.
func mirrorDraft(ctx context.Context, drafts repository.DraftCache, p *entity.Proposal) {
	if drafts == nil || p == nil {
		return
	}
	fields := logrus.Fields{"proposal_id": p.ID.String(), "owner_id": p.OwnerID.String()}

	current, err := drafts.Get(ctx, p.ID)
	if err == nil && current != nil && !current.IsOwnedBy(p.OwnerID) {
		logger.L().WithFields(fields).Warn("кэш черновиков: запись принадлежит другому владельцу, зеркалирование пропущено")
		return
	}
	if err != nil && !apperror.IsNotFound(err) {
		logger.L().WithFields(fields).WithError(err).Warn("кэш черновиков: не удалось прочитать запись")
	}

	if err := drafts.Put(ctx, p); err != nil {
		logger.L().WithFields(fields).WithError(err).Warn("кэш черновиков: не удалось сохранить копию")
	}
}

func forgetDraft(ctx context.Context, drafts repository.DraftCache, p *entity.Proposal) {
	if drafts == nil {
		return
	}
	if err := drafts.Delete(ctx, p.ID); err != nil {
		logger.L().WithFields(logrus.Fields{
			"proposal_id": p.ID.String(),
			"owner_id":    p.OwnerID.String(),
		}).WithError(err).Warn("кэш черновиков: не удалось удалить копию")
	}
}
