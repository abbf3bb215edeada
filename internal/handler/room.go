package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
	"github.com/hotelgo/server/internal/room"
	"github.com/hotelgo/server/internal/world"
)

// HandleEnterRoom processes C_ENTER_ROOM: [D roomID][S password].
// The room is loaded on demand. A player already in a room leaves it
// first, even when re-entering the same room.
func HandleEnterRoom(sess *net.Session, r *packet.Reader, deps *Deps) {
	roomID := int(r.ReadD())
	password := r.ReadS()
	p := deps.Players.BySession(sess.ID)
	if p == nil || roomID <= 0 {
		return
	}
	if p.InRoom() {
		leaveRoom(p, room.ReasonLeave, deps)
		sendRoomLeft(sess, room.ReasonLeave)
	}

	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()

	rm, err := deps.World.Load(ctx, roomID)
	if err != nil {
		if errors.Is(err, world.ErrRoomNotFound) {
			sendNotice(sess, NoticeRoomNotFound)
			return
		}
		deps.Log.Error("load room", zap.Int("room", roomID), zap.Error(err))
		sendNotice(sess, NoticeRoomClosed)
		return
	}

	e, err := rm.Enter(room.EnterRequest{
		Player: &room.PlayerData{
			AccountID: p.AccountID,
			Username:  p.Username,
			Figure:    p.Figure,
			Motto:     p.Motto,
			Inventory: p.Inventory,
		},
		Password: password,
	})
	if err != nil {
		deps.Log.Debug("enter refused", zap.Int("room", roomID), zap.Int64("account", p.AccountID), zap.Error(err))
		sendNotice(sess, enterNotice(err))
		return
	}

	deps.Players.SetRoom(p, roomID, e.VID)
	sess.SetState(packet.StateInRoom)
	sendRoomSnapshot(sess, rm.Snapshot(), e.VID)
}

// enterNotice maps an entry refusal to the notice the client shows.
func enterNotice(err error) string {
	switch {
	case errors.Is(err, room.ErrBanned):
		return room.NoticeBanned
	case errors.Is(err, room.ErrRoomFull):
		return NoticeRoomFull
	case errors.Is(err, room.ErrDoorLocked):
		return NoticeRoomLocked
	case errors.Is(err, room.ErrWrongPassword):
		return NoticeWrongPassword
	case errors.Is(err, room.ErrNoSpawn):
		return NoticeRoomNoSpawn
	default:
		return NoticeRoomClosed
	}
}

// HandleLeaveRoom processes C_LEAVE_ROOM (no payload).
func HandleLeaveRoom(sess *net.Session, _ *packet.Reader, deps *Deps) {
	p := deps.Players.BySession(sess.ID)
	if p == nil || !p.InRoom() {
		return
	}
	leaveRoom(p, room.ReasonLeave, deps)
	sendRoomLeft(sess, room.ReasonLeave)
}

// leaveRoom removes the player's entity and resets its room binding.
func leaveRoom(p *world.Player, reason string, deps *Deps) {
	if !p.InRoom() {
		return
	}
	if r := deps.World.Get(p.RoomID); r != nil {
		r.Leave(p.VID, reason)
	}
	deps.Players.SetRoom(p, 0, 0)
	if !p.Session.IsClosed() {
		p.Session.SetState(packet.StateAuthenticated)
	}
}

// sendRoomSnapshot sends S_ROOM_READY followed by S_ROOM_ITEMS.
func sendRoomSnapshot(sess *net.Session, s room.Snapshot, selfVID int) {
	w := packet.NewWriter(packet.S_OPCODE_ROOM_READY)
	w.WriteD(int32(s.RoomID))
	w.WriteS(s.Model)
	w.WriteS(s.Heightmap)
	w.WriteD(int32(selfVID))
	w.WriteH(uint16(len(s.Entities)))
	for _, ev := range s.Entities {
		writeEntity(w, ev)
	}
	w.WriteH(uint16(len(s.Statuses)))
	for _, st := range s.Statuses {
		writeStatus(w, st)
	}
	sess.Send(w.Bytes())

	items := packet.NewWriter(packet.S_OPCODE_ROOM_ITEMS)
	items.WriteH(uint16(len(s.Items)))
	for _, it := range s.Items {
		writeItem(items, it)
	}
	sess.Send(items.Bytes())
}

func sendRoomLeft(sess *net.Session, reason string) {
	w := packet.NewWriter(packet.S_OPCODE_ROOM_LEFT)
	w.WriteS(reason)
	sess.Send(w.Bytes())
}
