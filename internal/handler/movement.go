package handler

import (
	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
	"github.com/hotelgo/server/internal/room"
)

// HandleWalk processes C_WALK: [H x][H y]. Unreachable goals are
// silently dropped by the room.
func HandleWalk(sess *net.Session, r *packet.Reader, deps *Deps) {
	x, y := int(r.ReadH()), int(r.ReadH())
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.Walk(p.VID, room.Point{X: x, Y: y})
}

// HandleLook processes C_LOOK: [H x][H y].
func HandleLook(sess *net.Session, r *packet.Reader, deps *Deps) {
	x, y := int(r.ReadH()), int(r.ReadH())
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.LookTo(p.VID, room.Point{X: x, Y: y})
}

// HandleDance processes C_DANCE: [C danceID]. 0 stops dancing.
func HandleDance(sess *net.Session, r *packet.Reader, deps *Deps) {
	id := int(r.ReadC())
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.Dance(p.VID, id)
}

// HandleSit processes C_SIT (no payload).
func HandleSit(sess *net.Session, _ *packet.Reader, deps *Deps) {
	p, rm := inRoom(sess, deps)
	if p == nil {
		return
	}
	rm.Sit(p.VID)
}
