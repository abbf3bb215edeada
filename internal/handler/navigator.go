package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
)

const maxPopularRooms = 50

// HandlePopularRooms processes C_POPULAR_ROOMS: [C count] and answers
// with the most populated rooms, busiest first.
func HandlePopularRooms(sess *net.Session, r *packet.Reader, deps *Deps) {
	n := int(r.ReadC())
	if n <= 0 || n > maxPopularRooms {
		n = maxPopularRooms
	}
	if deps.Directory == nil {
		sendNotice(sess, NoticeNavigatorError)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()
	rooms, err := deps.Directory.Popular(ctx, n)
	if err != nil {
		deps.Log.Warn("popular rooms", zap.Error(err))
		sendNotice(sess, NoticeNavigatorError)
		return
	}

	w := packet.NewWriter(packet.S_OPCODE_POPULAR_ROOMS)
	w.WriteH(uint16(len(rooms)))
	for _, rp := range rooms {
		w.WriteD(int32(rp.RoomID))
		w.WriteD(int32(rp.Players))
	}
	sess.Send(w.Bytes())
}
