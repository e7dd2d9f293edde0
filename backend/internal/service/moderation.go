package service

import (
	"context"
	"log/slog"

	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/logger"
)

type ModerationService interface {
	Approve(ctx context.Context, id domain.MsgId, approve bool) error
	Remove(ctx context.Context, id domain.MsgId, ban bool) error
	List(ctx context.Context, page, pageSize int, pendingOnly bool) (domain.Page, error)
}

type Moderation struct {
	storage ModerationStorage
	assets  AssetStore
	listing ListingService
	log     *slog.Logger
}

func NewModeration(storage ModerationStorage, assets AssetStore, listing ListingService) ModerationService {
	return &Moderation{storage: storage, assets: assets, listing: listing, log: logger.Named("moderation")}
}

// Approve sets the visibility flag. Approving a visible message again is a
// no-op, a missing message is a not-found error.
func (m *Moderation) Approve(ctx context.Context, id domain.MsgId, approve bool) error {
	if err := m.storage.SetVisibility(ctx, id, approve); err != nil {
		return err
	}
	m.log.Info("message moderated", "message_id", id, "visible", approve)
	return nil
}

// Remove deletes the message, or with ban the whole user. A ban also removes
// the asset directory once the rows are gone. Failing to remove it is logged
// only, the orphan sweeper retries later.
func (m *Moderation) Remove(ctx context.Context, id domain.MsgId, ban bool) error {
	if !ban {
		if err := m.storage.DeleteMessage(ctx, id); err != nil {
			return err
		}
		m.log.Info("message deleted", "message_id", id)
		return nil
	}

	userId, err := m.storage.BanAuthor(ctx, id)
	if err != nil {
		return err
	}
	m.log.Info("user banned", "message_id", id, "user_id", userId)

	var undo compensation
	undo.add("remove assets", func(ctx context.Context) error {
		return m.assets.RemoveUser(ctx, userId)
	})
	undo.run(ctx, m.log.With("user_id", userId))
	return nil
}

func (m *Moderation) List(ctx context.Context, page, pageSize int, pendingOnly bool) (domain.Page, error) {
	visibility := domain.AnyVisibility
	if pendingOnly {
		visibility = domain.PendingOnly
	}
	return m.listing.List(ctx, page, pageSize, visibility)
}
