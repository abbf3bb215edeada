package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
)

// HandleGiveRights processes C_GIVE_RIGHTS: [Q accountID].
func HandleGiveRights(sess *net.Session, r *packet.Reader, deps *Deps) {
	accountID := r.ReadQ()
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := rm.GiveRights(ctx, p.VID, accountID); err != nil {
		deps.Log.Debug("give rights refused", zap.Int64("actor", p.AccountID), zap.Int64("target", accountID), zap.Error(err))
	}
}

// HandleTakeRights processes C_TAKE_RIGHTS: [Q accountID].
func HandleTakeRights(sess *net.Session, r *packet.Reader, deps *Deps) {
	accountID := r.ReadQ()
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := rm.TakeRights(ctx, p.VID, accountID); err != nil {
		deps.Log.Debug("take rights refused", zap.Int64("actor", p.AccountID), zap.Int64("target", accountID), zap.Error(err))
	}
}

// HandleKick processes C_KICK: [D targetVID].
func HandleKick(sess *net.Session, r *packet.Reader, deps *Deps) {
	target := int(r.ReadD())
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	if err := rm.Kick(p.VID, target); err != nil {
		deps.Log.Debug("kick refused", zap.Int64("actor", p.AccountID), zap.Int("target", target), zap.Error(err))
	}
}

// HandleBan processes C_BAN: [D targetVID].
func HandleBan(sess *net.Session, r *packet.Reader, deps *Deps) {
	target := int(r.ReadD())
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	if err := rm.Ban(p.VID, target); err != nil {
		deps.Log.Debug("ban refused", zap.Int64("actor", p.AccountID), zap.Int("target", target), zap.Error(err))
	}
}

// HandleUnban processes C_UNBAN: [Q accountID].
func HandleUnban(sess *net.Session, r *packet.Reader, deps *Deps) {
	accountID := r.ReadQ()
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	if err := rm.Unban(p.VID, accountID); err != nil {
		deps.Log.Debug("unban refused", zap.Int64("actor", p.AccountID), zap.Error(err))
	}
}
