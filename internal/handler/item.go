package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
)

// Furniture handlers. Validation failures are silent; the room raises a
// notice itself when persistence refuses a change.

// HandlePlaceItem processes C_PLACE_ITEM: [Q itemID][H x][H y][C rot][S wallPos].
func HandlePlaceItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	itemID := r.ReadQ()
	x, y := int(r.ReadH()), int(r.ReadH())
	rot := int(r.ReadC())
	wallPos := r.ReadS()
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := rm.PlaceItem(ctx, p.VID, itemID, x, y, rot, wallPos); err != nil {
		deps.Log.Debug("place item refused", zap.Int64("item", itemID), zap.Int64("account", p.AccountID), zap.Error(err))
	}
}

// HandleMoveItem processes C_MOVE_ITEM: [Q itemID][H x][H y][C rot].
func HandleMoveItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	itemID := r.ReadQ()
	x, y := int(r.ReadH()), int(r.ReadH())
	rot := int(r.ReadC())
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := rm.MoveItem(ctx, p.VID, itemID, x, y, rot); err != nil {
		deps.Log.Debug("move item refused", zap.Int64("item", itemID), zap.Int64("account", p.AccountID), zap.Error(err))
	}
}

// HandlePickupItem processes C_PICKUP_ITEM: [Q itemID].
func HandlePickupItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	itemID := r.ReadQ()
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := rm.PickupItem(ctx, p.VID, itemID); err != nil {
		deps.Log.Debug("pickup refused", zap.Int64("item", itemID), zap.Int64("account", p.AccountID), zap.Error(err))
	}
}

// HandleUseItem processes C_USE_ITEM: [Q itemID][D param].
func HandleUseItem(sess *net.Session, r *packet.Reader, deps *Deps) {
	itemID := r.ReadQ()
	param := int(r.ReadD())
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	if err := rm.UseItem(ctx, p.VID, itemID, param); err != nil {
		deps.Log.Debug("use item refused", zap.Int64("item", itemID), zap.Int64("account", p.AccountID), zap.Error(err))
	}
}
