package room

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// GiveRights adds accountID to the rights list. Only the owner may do this.
func (r *Room) GiveRights(ctx context.Context, actorVID int, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor := r.pop.get(actorVID)
	if actor == nil {
		return ErrNotInRoom
	}
	if !r.access.IsOwner(actor.AccountID()) {
		return ErrNoRights
	}
	if accountID == 0 || r.access.HasRights(accountID) {
		return nil
	}
	if err := r.deps.Rights.AddRight(ctx, r.ID, accountID); err != nil {
		r.notice(actor.AccountID(), NoticeRightsFailed)
		return fmt.Errorf("give rights to %d: %w", accountID, err)
	}
	r.access.grant(accountID)
	if target := r.pop.byAccountID(accountID); target != nil {
		target.setStatus(StatusControl, "1")
	}
	r.notice(accountID, NoticeRightsGiven)
	r.log.Info("rights given", zap.Int64("account", accountID))
	return nil
}

// TakeRights removes accountID from the rights list.
func (r *Room) TakeRights(ctx context.Context, actorVID int, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor := r.pop.get(actorVID)
	if actor == nil {
		return ErrNotInRoom
	}
	if !r.access.IsOwner(actor.AccountID()) {
		return ErrNoRights
	}
	if r.access.IsOwner(accountID) {
		return nil
	}
	if err := r.deps.Rights.RemoveRight(ctx, r.ID, accountID); err != nil {
		r.notice(actor.AccountID(), NoticeRightsFailed)
		return fmt.Errorf("take rights from %d: %w", accountID, err)
	}
	if !r.access.revoke(accountID) {
		return nil
	}
	if target := r.pop.byAccountID(accountID); target != nil {
		target.clearStatus(StatusControl)
		target.override = false
	}
	r.notice(accountID, NoticeRightsTaken)
	r.log.Info("rights taken", zap.Int64("account", accountID))
	return nil
}

// Kick removes a player. Rights holders may kick anyone but the owner.
func (r *Room) Kick(actorVID, targetVID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, target, err := r.moderate(actorVID, targetVID)
	if err != nil {
		return err
	}
	if !r.access.HasRights(actor.AccountID()) {
		return ErrNoRights
	}
	r.removeEntity(target, ReasonKick)
	r.notice(target.AccountID(), NoticeKicked)
	return nil
}

// Ban removes a player and keeps them out for the configured duration.
// Bans live in memory only and end when the room unloads.
func (r *Room) Ban(actorVID, targetVID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor, target, err := r.moderate(actorVID, targetVID)
	if err != nil {
		return err
	}
	if !r.access.IsOwner(actor.AccountID()) {
		return ErrNoRights
	}
	r.access.ban(target.AccountID(), r.cfg.BanDuration)
	r.removeEntity(target, ReasonBan)
	r.notice(target.AccountID(), NoticeBanned)
	r.log.Info("player banned", zap.Int64("account", target.AccountID()), zap.Duration("for", r.cfg.BanDuration))
	return nil
}

// Unban lifts a ban early.
func (r *Room) Unban(actorVID int, accountID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	actor := r.pop.get(actorVID)
	if actor == nil {
		return ErrNotInRoom
	}
	if !r.access.IsOwner(actor.AccountID()) {
		return ErrNoRights
	}
	r.access.unban(accountID)
	return nil
}

func (r *Room) moderate(actorVID, targetVID int) (actor, target *Entity, err error) {
	actor = r.pop.get(actorVID)
	target = r.pop.get(targetVID)
	if actor == nil || target == nil {
		return nil, nil, ErrNotInRoom
	}
	if target.Kind != KindPlayer || actor == target || r.access.IsOwner(target.AccountID()) {
		return nil, nil, ErrNoRights
	}
	return actor, target, nil
}
