package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
	"github.com/hotelgo/server/internal/room"
	"github.com/hotelgo/server/internal/world"
)

// Notice keys raised by the handler layer itself.
const (
	NoticeAuthFailed     = "auth.failed"
	NoticeRoomNotFound   = "room.not_found"
	NoticeRoomClosed     = "room.unavailable"
	NoticeRoomFull       = "room.full"
	NoticeRoomLocked     = "room.locked"
	NoticeWrongPassword  = "room.wrong_password"
	NoticeRoomNoSpawn    = "room.no_spawn"
	NoticeNavigatorError = "navigator.unavailable"
)

// HandleSSOTicket processes C_SSO_TICKET: [S ticket]. A ticket is single
// use; a second login for the same account replaces the first.
func HandleSSOTicket(sess *net.Session, r *packet.Reader, deps *Deps) {
	ticket := r.ReadS()
	if ticket == "" {
		rejectLogin(sess, deps, "empty ticket")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	acc, err := deps.Accounts.RedeemTicket(ctx, ticket)
	if err != nil {
		deps.Log.Error("redeem ticket", zap.Uint64("session", sess.ID), zap.Error(err))
		sess.Close()
		return
	}
	if acc == nil || acc.Banned {
		rejectLogin(sess, deps, "unknown ticket")
		return
	}
	inv, err := deps.Inventory.LoadInventory(ctx, acc.ID)
	if err != nil {
		deps.Log.Error("load inventory", zap.Int64("account", acc.ID), zap.Error(err))
		sess.Close()
		return
	}

	if old := deps.Players.ByAccount(acc.ID); old != nil {
		leaveRoom(old, room.ReasonDisconnect, deps)
		old.Session.Close()
		deps.Log.Info("duplicate login replaced", zap.Int64("account", acc.ID),
			zap.Uint64("old_session", old.Session.ID))
	}

	p := &world.Player{
		Session:   sess,
		AccountID: acc.ID,
		Username:  acc.Username,
		Figure:    acc.Figure,
		Motto:     acc.Motto,
		Inventory: inv,
	}
	deps.Players.Add(p)
	sess.AccountID = acc.ID
	sess.SetState(packet.StateAuthenticated)

	w := packet.NewWriter(packet.S_OPCODE_AUTH_OK)
	w.WriteQ(acc.ID)
	w.WriteS(acc.Username)
	w.WriteS(acc.Figure)
	w.WriteS(acc.Motto)
	w.WriteH(uint16(inv.Count()))
	sess.Send(w.Bytes())

	deps.Log.Info("player logged in",
		zap.Int64("account", acc.ID),
		zap.String("username", acc.Username),
		zap.String("ip", sess.IP),
		zap.String("transport", sess.Transport),
	)
}

func rejectLogin(sess *net.Session, deps *Deps, why string) {
	deps.Log.Debug("login rejected", zap.Uint64("session", sess.ID), zap.String("reason", why))
	sendNotice(sess, NoticeAuthFailed)
	sess.FlushOutput()
	sess.Close()
}

// HandlePing answers C_PING with S_PONG echoing the client's stamp.
func HandlePing(sess *net.Session, r *packet.Reader, _ *Deps) {
	stamp := r.ReadD()
	w := packet.NewWriter(packet.S_OPCODE_PONG)
	w.WriteD(stamp)
	sess.Send(w.Bytes())
}

func sendNotice(sess *net.Session, key string) {
	w := packet.NewWriter(packet.S_OPCODE_NOTICE)
	w.WriteS(key)
	sess.Send(w.Bytes())
}
