package handler

import (
	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/core/event"
	"github.com/hotelgo/server/internal/net/packet"
)

// RegisterBroadcasts subscribes the packet composers to room events.
// Handlers run during the output phase on the loop goroutine.
func RegisterBroadcasts(bus *event.Bus, deps *Deps) {
	event.Subscribe(bus, func(ev event.StatusBatch) {
		w := packet.NewWriter(packet.S_OPCODE_STATUS)
		w.WriteH(uint16(len(ev.Statuses)))
		for _, st := range ev.Statuses {
			writeStatus(w, st)
		}
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.EntityEntered) {
		w := packet.NewWriter(packet.S_OPCODE_ENTITY_ENTERED)
		writeEntity(w, ev)
		// The entering player already got the full snapshot.
		toRoom(deps, ev.RoomID, w.Bytes(), ev.AccountID)
	})

	event.Subscribe(bus, func(ev event.EntityLeft) {
		if ev.AccountID != 0 {
			if p := deps.Players.ByAccount(ev.AccountID); p != nil && p.RoomID == ev.RoomID && p.VID == ev.VID {
				// Removed by the room itself: kick, ban, door or unload.
				deps.Players.SetRoom(p, 0, 0)
				if !p.Session.IsClosed() {
					p.Session.SetState(packet.StateAuthenticated)
					sendRoomLeft(p.Session, ev.Reason)
				}
			}
		}
		w := packet.NewWriter(packet.S_OPCODE_ENTITY_LEFT)
		w.WriteD(int32(ev.VID))
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.EntitySlept) {
		w := packet.NewWriter(packet.S_OPCODE_SLEEP)
		w.WriteD(int32(ev.VID))
		w.WriteBool(ev.Asleep)
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.EntityDanced) {
		w := packet.NewWriter(packet.S_OPCODE_DANCE)
		w.WriteD(int32(ev.VID))
		w.WriteD(int32(ev.DanceID))
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.EntityCarry) {
		w := packet.NewWriter(packet.S_OPCODE_CARRY)
		w.WriteD(int32(ev.VID))
		w.WriteD(int32(ev.ItemID))
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.EntitySaid) {
		w := packet.NewWriter(packet.S_OPCODE_CHAT)
		w.WriteD(int32(ev.VID))
		w.WriteS(ev.Text)
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.ItemPlaced) {
		w := packet.NewWriter(packet.S_OPCODE_ITEM_PLACED)
		writeItem(w, ev.Item)
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.ItemUpdated) {
		w := packet.NewWriter(packet.S_OPCODE_ITEM_UPDATED)
		writeItem(w, ev.Item)
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.ItemRemoved) {
		w := packet.NewWriter(packet.S_OPCODE_ITEM_REMOVED)
		w.WriteQ(ev.ItemID)
		w.WriteQ(ev.PickerID)
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.RollerMoved) {
		w := packet.NewWriter(packet.S_OPCODE_ROLLER)
		w.WriteQ(ev.RollerID)
		w.WriteH(uint16(len(ev.Items)))
		for _, o := range ev.Items {
			writeRolled(w, o)
		}
		w.WriteH(uint16(len(ev.Entities)))
		for _, o := range ev.Entities {
			writeRolled(w, o)
		}
		toRoom(deps, ev.RoomID, w.Bytes(), 0)
	})

	event.Subscribe(bus, func(ev event.TradeOpened) {
		toTraders(deps, ev.Sides, tradePacket(packet.S_OPCODE_TRADE_OPEN, ev.TradeID, ev.Sides))
	})
	event.Subscribe(bus, func(ev event.TradeUpdated) {
		toTraders(deps, ev.Sides, tradePacket(packet.S_OPCODE_TRADE_UPDATE, ev.TradeID, ev.Sides))
	})
	event.Subscribe(bus, func(ev event.TradeCompleted) {
		w := packet.NewWriter(packet.S_OPCODE_TRADE_DONE)
		w.WriteS(ev.TradeID)
		w.WriteBool(true)
		toTraders(deps, ev.Sides, w.Bytes())
	})
	event.Subscribe(bus, func(ev event.TradeFailed) {
		w := packet.NewWriter(packet.S_OPCODE_TRADE_DONE)
		w.WriteS(ev.TradeID)
		w.WriteBool(false)
		toTraders(deps, ev.Sides, w.Bytes())
	})
	event.Subscribe(bus, func(ev event.TradeClosed) {
		w := packet.NewWriter(packet.S_OPCODE_TRADE_CLOSE)
		w.WriteS(ev.TradeID)
		w.WriteD(int32(ev.ClosedBy))
		toTraders(deps, ev.Sides, w.Bytes())
	})

	event.Subscribe(bus, func(ev event.Notice) {
		if p := deps.Players.ByAccount(ev.AccountID); p != nil {
			sendNotice(p.Session, ev.Key)
		}
	})

	event.Subscribe(bus, func(ev event.RoomUnloaded) {
		deps.Log.Debug("room unloaded", zap.Int("room", ev.RoomID))
	})
}

// toRoom sends body to every player bound to roomID except one account.
func toRoom(deps *Deps, roomID int, body []byte, except int64) {
	for _, p := range deps.Players.InRoom(roomID) {
		if p.AccountID == except {
			continue
		}
		p.Session.Send(body)
	}
}

func toTraders(deps *Deps, sides [2]event.TradeSide, body []byte) {
	for _, s := range sides {
		if p := deps.Players.ByAccount(s.AccountID); p != nil {
			p.Session.Send(body)
		}
	}
}

func tradePacket(header uint16, tradeID string, sides [2]event.TradeSide) []byte {
	w := packet.NewWriter(header)
	w.WriteS(tradeID)
	for _, s := range sides {
		w.WriteD(int32(s.VID))
		w.WriteQ(s.AccountID)
		w.WriteBool(s.Accepted)
		w.WriteH(uint16(len(s.Items)))
		for _, it := range s.Items {
			w.WriteQ(it.ItemID)
			w.WriteD(int32(it.BaseID))
		}
	}
	return w.Bytes()
}

func writeEntity(w *packet.Writer, ev event.EntityEntered) {
	w.WriteD(int32(ev.VID))
	w.WriteC(byte(ev.Kind))
	w.WriteQ(ev.AccountID)
	w.WriteS(ev.Name)
	w.WriteS(ev.Figure)
	w.WriteS(ev.Motto)
	w.WriteH(uint16(ev.X))
	w.WriteH(uint16(ev.Y))
	w.WriteF(ev.Z)
	w.WriteC(byte(ev.Rot))
}

func writeStatus(w *packet.Writer, st event.EntityStatus) {
	w.WriteD(int32(st.VID))
	w.WriteH(uint16(st.X))
	w.WriteH(uint16(st.Y))
	w.WriteF(st.Z)
	w.WriteC(byte(st.HeadRot))
	w.WriteC(byte(st.BodyRot))
	w.WriteS(st.Status)
}

func writeItem(w *packet.Writer, it event.ItemInfo) {
	w.WriteQ(it.ID)
	w.WriteD(int32(it.BaseID))
	w.WriteQ(it.OwnerID)
	w.WriteH(uint16(it.X))
	w.WriteH(uint16(it.Y))
	w.WriteF(it.Z)
	w.WriteC(byte(it.Rot))
	w.WriteS(it.WallPos)
	w.WriteS(it.ExtraData)
}

func writeRolled(w *packet.Writer, o event.RolledObject) {
	w.WriteQ(o.ID)
	w.WriteH(uint16(o.FromX))
	w.WriteH(uint16(o.FromY))
	w.WriteF(o.FromZ)
	w.WriteH(uint16(o.ToX))
	w.WriteH(uint16(o.ToY))
	w.WriteF(o.ToZ)
}
