package handler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
	"github.com/hotelgo/server/internal/persist"
	"github.com/hotelgo/server/internal/presence"
	"github.com/hotelgo/server/internal/room"
	"github.com/hotelgo/server/internal/world"
)

// AccountStore is the slice of persist.AccountRepo the handlers need.
type AccountStore interface {
	RedeemTicket(ctx context.Context, ticket string) (*persist.AccountRow, error)
	SetOnline(ctx context.Context, id int64, online bool) error
}

// InventoryStore loads a player's unplaced furniture on login.
type InventoryStore interface {
	LoadInventory(ctx context.Context, ownerID int64) (*room.Inventory, error)
}

// RoomDirectory answers navigator queries.
type RoomDirectory interface {
	Popular(ctx context.Context, n int) ([]presence.RoomPopulation, error)
}

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Accounts  AccountStore
	Inventory InventoryStore
	Directory RoomDirectory // nil when presence is disabled
	World     *world.Manager
	Players   *world.Players
	Config    *config.Config
	Log       *zap.Logger
}

const (
	dbTimeout   = 3 * time.Second
	loadTimeout = 5 * time.Second
)

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	anyState := []packet.SessionState{packet.StateHandshake, packet.StateAuthenticated, packet.StateInRoom}

	reg.Register(packet.C_OPCODE_SSO_TICKET,
		[]packet.SessionState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleSSOTicket(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_PING, anyState,
		func(sess any, r *packet.Reader) {
			HandlePing(sess.(*net.Session), r, deps)
		},
	)

	// Authenticated, in or out of a room
	authStates := []packet.SessionState{packet.StateAuthenticated, packet.StateInRoom}

	reg.Register(packet.C_OPCODE_ENTER_ROOM, authStates,
		func(sess any, r *packet.Reader) {
			HandleEnterRoom(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_POPULAR_ROOMS, authStates,
		func(sess any, r *packet.Reader) {
			HandlePopularRooms(sess.(*net.Session), r, deps)
		},
	)

	// In-room phase
	inRoomStates := []packet.SessionState{packet.StateInRoom}

	reg.Register(packet.C_OPCODE_LEAVE_ROOM, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleLeaveRoom(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_WALK, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleWalk(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_LOOK, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleLook(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_DANCE, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleDance(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SIT, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleSit(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_CHAT, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleChat(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_PLACE_ITEM, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandlePlaceItem(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_MOVE_ITEM, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleMoveItem(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_PICKUP_ITEM, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandlePickupItem(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_USE_ITEM, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleUseItem(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_TRADE_OPEN, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleTradeOpen(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_TRADE_OFFER, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleTradeOffer(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_TRADE_REMOVE, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleTradeRemove(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_TRADE_ACCEPT, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleTradeAccept(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_TRADE_UNACCEPT, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleTradeUnaccept(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_TRADE_CLOSE, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleTradeClose(sess.(*net.Session), r, deps)
		},
	)

	reg.Register(packet.C_OPCODE_GIVE_RIGHTS, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleGiveRights(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_TAKE_RIGHTS, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleTakeRights(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_KICK, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleKick(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_BAN, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleBan(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_UNBAN, inRoomStates,
		func(sess any, r *packet.Reader) {
			HandleUnban(sess.(*net.Session), r, deps)
		},
	)
}

// inRoom resolves the session's player and the room it occupies.
func inRoom(sess *net.Session, deps *Deps) (*world.Player, *room.Room) {
	p := deps.Players.BySession(sess.ID)
	if p == nil || !p.InRoom() {
		return nil, nil
	}
	r := deps.World.Get(p.RoomID)
	if r == nil {
		return nil, nil
	}
	return p, r
}
