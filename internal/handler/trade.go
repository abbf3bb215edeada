package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
)

// HandleTradeOpen processes C_TRADE_OPEN: [D targetVID].
func HandleTradeOpen(sess *net.Session, r *packet.Reader, deps *Deps) {
	target := int(r.ReadD())
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.OpenTrade(p.VID, target)
}

// HandleTradeOffer processes C_TRADE_OFFER: [Q itemID].
func HandleTradeOffer(sess *net.Session, r *packet.Reader, deps *Deps) {
	itemID := r.ReadQ()
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.OfferTradeItem(p.VID, itemID)
}

// HandleTradeRemove processes C_TRADE_REMOVE: [Q itemID].
func HandleTradeRemove(sess *net.Session, r *packet.Reader, deps *Deps) {
	itemID := r.ReadQ()
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.WithdrawTradeItem(p.VID, itemID)
}

// HandleTradeAccept processes C_TRADE_ACCEPT. The second acceptance
// commits the exchange.
func HandleTradeAccept(sess *net.Session, _ *packet.Reader, deps *Deps) {
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := rm.AcceptTrade(ctx, p.VID); err != nil {
		deps.Log.Warn("trade commit failed", zap.Int64("account", p.AccountID), zap.Error(err))
	}
}

// HandleTradeUnaccept processes C_TRADE_UNACCEPT.
func HandleTradeUnaccept(sess *net.Session, _ *packet.Reader, deps *Deps) {
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.UnacceptTrade(p.VID)
}

// HandleTradeClose processes C_TRADE_CLOSE.
func HandleTradeClose(sess *net.Session, _ *packet.Reader, deps *Deps) {
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.CloseTrade(p.VID)
}
