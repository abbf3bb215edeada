package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/room"
)

// Disconnect removes a closed session's player from its room and marks
// the account offline. Called by the input system.
func Disconnect(sess *net.Session, deps *Deps) {
	p := deps.Players.BySession(sess.ID)
	if p == nil {
		return
	}
	leaveRoom(p, room.ReasonDisconnect, deps)
	deps.Players.Remove(sess.ID)

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := deps.Accounts.SetOnline(ctx, p.AccountID, false); err != nil {
		deps.Log.Error("mark offline", zap.Int64("account", p.AccountID), zap.Error(err))
	}
	deps.Log.Info("player disconnected", zap.Int64("account", p.AccountID), zap.String("username", p.Username))
}
