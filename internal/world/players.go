package world

import (
	"sort"

	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/room"
)

// Player is an authenticated client. Accessed only from the server loop
// goroutine; no locks needed.
type Player struct {
	Session   *net.Session
	AccountID int64
	Username  string
	Figure    string
	Motto     string
	Inventory *room.Inventory

	RoomID int // 0 = not in a room
	VID    int // virtual id inside RoomID
}

// InRoom reports whether the player currently occupies a room.
func (p *Player) InRoom() bool { return p.RoomID != 0 }

// Players indexes online players by session, account and room.
type Players struct {
	bySession map[uint64]*Player
	byAccount map[int64]*Player
	byRoom    map[int]map[int64]*Player
}

func NewPlayers() *Players {
	return &Players{
		bySession: make(map[uint64]*Player),
		byAccount: make(map[int64]*Player),
		byRoom:    make(map[int]map[int64]*Player),
	}
}

// Add registers a player. A previous login of the same account is
// returned so the caller can disconnect it.
func (ps *Players) Add(p *Player) (previous *Player) {
	previous = ps.byAccount[p.AccountID]
	if previous != nil {
		ps.Remove(previous.Session.ID)
	}
	ps.bySession[p.Session.ID] = p
	ps.byAccount[p.AccountID] = p
	return previous
}

// Remove drops a player by session id and returns it.
func (ps *Players) Remove(sessionID uint64) *Player {
	p := ps.bySession[sessionID]
	if p == nil {
		return nil
	}
	ps.SetRoom(p, 0, 0)
	delete(ps.bySession, sessionID)
	if ps.byAccount[p.AccountID] == p {
		delete(ps.byAccount, p.AccountID)
	}
	return p
}

func (ps *Players) BySession(sessionID uint64) *Player { return ps.bySession[sessionID] }
func (ps *Players) ByAccount(accountID int64) *Player  { return ps.byAccount[accountID] }
func (ps *Players) Count() int                         { return len(ps.bySession) }

// SetRoom moves the player between room indexes. roomID 0 means the
// player left its room.
func (ps *Players) SetRoom(p *Player, roomID, vid int) {
	if p.RoomID != 0 {
		if members := ps.byRoom[p.RoomID]; members != nil {
			delete(members, p.AccountID)
			if len(members) == 0 {
				delete(ps.byRoom, p.RoomID)
			}
		}
	}
	p.RoomID, p.VID = roomID, vid
	if roomID == 0 {
		return
	}
	members := ps.byRoom[roomID]
	if members == nil {
		members = make(map[int64]*Player)
		ps.byRoom[roomID] = members
	}
	members[p.AccountID] = p
}

// InRoom returns the players present in a room ordered by account id.
func (ps *Players) InRoom(roomID int) []*Player {
	members := ps.byRoom[roomID]
	out := make([]*Player, 0, len(members))
	for _, p := range members {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}

// All returns every online player.
func (ps *Players) All() []*Player {
	out := make([]*Player, 0, len(ps.bySession))
	for _, p := range ps.bySession {
		out = append(out, p)
	}
	return out
}
