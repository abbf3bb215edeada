package handler

import (
	"context"
	"errors"
	stdnet "net"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zaptest"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/core/event"
	"github.com/hotelgo/server/internal/data"
	"github.com/hotelgo/server/internal/net"
	"github.com/hotelgo/server/internal/net/packet"
	"github.com/hotelgo/server/internal/persist"
	"github.com/hotelgo/server/internal/presence"
	"github.com/hotelgo/server/internal/room"
	roommock "github.com/hotelgo/server/internal/room/mock"
	"github.com/hotelgo/server/internal/world"
)

const modelsYAML = `
models:
  - name: small
    door_x: 0
    door_y: 0
    door_dir: 2
    heightmap: |
      0000
      0000
      0000
      0000
`

const (
	aliceID int64 = 100
	bobID   int64 = 200
)

var defChair = &data.FurniDef{ID: 1, Name: "chair", Width: 1, Length: 1, AllowTrade: true, Interaction: data.InteractionChair}

type fakeAccounts struct {
	tickets map[string]*persist.AccountRow
	online  map[int64]bool
}

func (a *fakeAccounts) RedeemTicket(_ context.Context, ticket string) (*persist.AccountRow, error) {
	if ticket == "broken" {
		return nil, errors.New("db down")
	}
	return a.tickets[ticket], nil
}

func (a *fakeAccounts) SetOnline(_ context.Context, id int64, online bool) error {
	a.online[id] = online
	return nil
}

type fakeInventory struct {
	items map[int64][]*room.InvItem
}

func (f *fakeInventory) LoadInventory(_ context.Context, ownerID int64) (*room.Inventory, error) {
	return room.NewInventory(f.items[ownerID]...), nil
}

type fakeLoader struct {
	records map[int]*world.RoomRecord
}

func (l *fakeLoader) LoadRoom(_ context.Context, id int) (*world.RoomRecord, error) {
	rec, ok := l.records[id]
	if !ok {
		return nil, world.ErrRoomNotFound
	}
	return rec, nil
}

type fakeDirectory struct {
	rooms []presence.RoomPopulation
	err   error
	asked int
}

func (d *fakeDirectory) Popular(_ context.Context, n int) ([]presence.RoomPopulation, error) {
	d.asked = n
	return d.rooms, d.err
}

type fixture struct {
	deps     *Deps
	reg      *packet.Registry
	bus      *event.Bus
	accounts *fakeAccounts
	trades   *roommock.MockTradeStore
	nextID   uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t)
	models, err := data.ParseModelTable([]byte(modelsYAML))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	trades := roommock.NewMockTradeStore(ctrl)
	bus := event.NewBus()
	loader := &fakeLoader{records: map[int]*world.RoomRecord{
		1: {ID: 1, Model: "small", Settings: room.Settings{OwnerID: aliceID, MaxUsers: 10, TradeMode: room.TradeAll}},
		2: {ID: 2, Model: "small", Settings: room.Settings{OwnerID: 999, MaxUsers: 1}},
	}}
	cfg := config.Default()
	manager := world.NewManager(loader, models, cfg.Room, room.Deps{
		Items:  roommock.NewMockItemStore(ctrl),
		Trades: trades,
		Rights: roommock.NewMockRightsStore(ctrl),
		Bus:    bus,
		Log:    log,
	}, nil, log)

	accounts := &fakeAccounts{
		tickets: map[string]*persist.AccountRow{
			"alice":   {ID: aliceID, Username: "alice", Figure: "hd-180", Motto: "hi"},
			"bob":     {ID: bobID, Username: "bob"},
			"mallory": {ID: 300, Username: "mallory", Banned: true},
		},
		online: map[int64]bool{},
	}
	inventory := &fakeInventory{items: map[int64][]*room.InvItem{
		aliceID: {{ID: 11, Def: defChair}},
		bobID:   {{ID: 21, Def: defChair}},
	}}

	deps := &Deps{
		Accounts:  accounts,
		Inventory: inventory,
		World:     manager,
		Players:   world.NewPlayers(),
		Config:    cfg,
		Log:       log,
	}
	reg := packet.NewRegistry(log)
	RegisterAll(reg, deps)
	RegisterBroadcasts(bus, deps)
	return &fixture{deps: deps, reg: reg, bus: bus, accounts: accounts, trades: trades}
}

func (f *fixture) session(t *testing.T) *net.Session {
	t.Helper()
	a, b := stdnet.Pipe()
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	f.nextID++
	return net.NewSession(a, f.nextID, "tcp", net.SessionOptions{InQueueSize: 8, OutQueueSize: 64}, zaptest.NewLogger(t))
}

// send dispatches one client frame the way the input system would.
func (f *fixture) send(sess *net.Session, header uint16, body func(w *packet.Writer)) error {
	w := packet.NewWriter(header)
	if body != nil {
		body(w)
	}
	return f.reg.Dispatch(sess, sess.State(), w.Bytes())
}

// deliver runs the output phase's event delivery.
func (f *fixture) deliver() {
	f.bus.SwapBuffers()
	f.bus.DispatchAll()
}

func (f *fixture) login(t *testing.T, ticket string) *net.Session {
	t.Helper()
	sess := f.session(t)
	require.NoError(t, f.send(sess, packet.C_OPCODE_SSO_TICKET, func(w *packet.Writer) { w.WriteS(ticket) }))
	require.Equal(t, packet.StateAuthenticated, sess.State())
	received(sess)
	return sess
}

func (f *fixture) enter(t *testing.T, sess *net.Session, roomID int) *world.Player {
	t.Helper()
	require.NoError(t, f.send(sess, packet.C_OPCODE_ENTER_ROOM, func(w *packet.Writer) {
		w.WriteD(int32(roomID))
		w.WriteS("")
	}))
	require.Equal(t, packet.StateInRoom, sess.State())
	f.deliver()
	received(sess)
	return f.deps.Players.BySession(sess.ID)
}

// received flushes the session and returns every frame sent to it.
func received(sess *net.Session) []*packet.Reader {
	sess.FlushOutput()
	var out []*packet.Reader
	for {
		select {
		case body := <-sess.OutQueue:
			out = append(out, packet.NewReader(body))
		default:
			return out
		}
	}
}

func headers(frames []*packet.Reader) []uint16 {
	hs := make([]uint16, len(frames))
	for i, r := range frames {
		hs[i] = r.Header()
	}
	return hs
}

func find(frames []*packet.Reader, header uint16) *packet.Reader {
	for _, r := range frames {
		if r.Header() == header {
			return r
		}
	}
	return nil
}

func notices(frames []*packet.Reader) []string {
	var keys []string
	for _, r := range frames {
		if r.Header() == packet.S_OPCODE_NOTICE {
			keys = append(keys, r.ReadS())
		}
	}
	return keys
}

func TestSSOTicketLogsIn(t *testing.T) {
	f := newFixture(t)
	sess := f.session(t)

	require.NoError(t, f.send(sess, packet.C_OPCODE_SSO_TICKET, func(w *packet.Writer) { w.WriteS("alice") }))
	assert.Equal(t, packet.StateAuthenticated, sess.State())
	assert.Equal(t, aliceID, sess.AccountID)

	p := f.deps.Players.ByAccount(aliceID)
	require.NotNil(t, p)
	assert.Same(t, sess, p.Session)

	ok := find(received(sess), packet.S_OPCODE_AUTH_OK)
	require.NotNil(t, ok)
	assert.Equal(t, aliceID, ok.ReadQ())
	assert.Equal(t, "alice", ok.ReadS())
	assert.Equal(t, "hd-180", ok.ReadS())
	assert.Equal(t, "hi", ok.ReadS())
	assert.Equal(t, uint16(1), ok.ReadH())
}

func TestSSOTicketRejected(t *testing.T) {
	for _, ticket := range []string{"", "unknown", "mallory"} {
		t.Run(ticket, func(t *testing.T) {
			f := newFixture(t)
			sess := f.session(t)
			require.NoError(t, f.send(sess, packet.C_OPCODE_SSO_TICKET, func(w *packet.Writer) { w.WriteS(ticket) }))
			assert.True(t, sess.IsClosed())
			assert.Equal(t, []string{NoticeAuthFailed}, notices(received(sess)))
			assert.Zero(t, f.deps.Players.Count())
		})
	}
}

func TestSSOTicketStorageError(t *testing.T) {
	f := newFixture(t)
	sess := f.session(t)
	require.NoError(t, f.send(sess, packet.C_OPCODE_SSO_TICKET, func(w *packet.Writer) { w.WriteS("broken") }))
	assert.True(t, sess.IsClosed())
	assert.Zero(t, f.deps.Players.Count())
}

func TestHandlersRespectSessionState(t *testing.T) {
	f := newFixture(t)
	sess := f.session(t)

	err := f.send(sess, packet.C_OPCODE_ENTER_ROOM, func(w *packet.Writer) {
		w.WriteD(1)
		w.WriteS("")
	})
	assert.Error(t, err, "room entry needs a login")

	require.NoError(t, f.send(sess, packet.C_OPCODE_PING, func(w *packet.Writer) { w.WriteD(77) }))
	pong := find(received(sess), packet.S_OPCODE_PONG)
	require.NotNil(t, pong)
	assert.Equal(t, int32(77), pong.ReadD())
}

func TestDuplicateLoginReplacesSession(t *testing.T) {
	f := newFixture(t)
	first := f.login(t, "alice")
	p := f.enter(t, first, 1)
	rm := f.deps.World.Get(1)
	require.NotNil(t, rm)
	assert.Equal(t, 1, rm.ActivePlayers())

	second := f.login(t, "alice")
	assert.True(t, first.IsClosed())
	assert.False(t, p.InRoom())
	assert.Zero(t, rm.ActivePlayers())
	assert.Same(t, second, f.deps.Players.ByAccount(aliceID).Session)

	// The replaced session's disconnect must not touch the new login.
	Disconnect(first, f.deps)
	assert.NotNil(t, f.deps.Players.ByAccount(aliceID))
	_, marked := f.accounts.online[aliceID]
	assert.False(t, marked)
}

func TestEnterRoomSendsSnapshotAndAnnounces(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")
	ap := f.enter(t, alice, 1)

	require.NoError(t, f.send(bob, packet.C_OPCODE_ENTER_ROOM, func(w *packet.Writer) {
		w.WriteD(1)
		w.WriteS("")
	}))
	bp := f.deps.Players.BySession(bob.ID)
	require.True(t, bp.InRoom())
	assert.Equal(t, 1, bp.RoomID)

	frames := received(bob)
	assert.Equal(t, []uint16{packet.S_OPCODE_ROOM_READY, packet.S_OPCODE_ROOM_ITEMS}, headers(frames))
	ready := frames[0]
	assert.Equal(t, int32(1), ready.ReadD())
	assert.Equal(t, "small", ready.ReadS())
	assert.NotEmpty(t, ready.ReadS())
	assert.Equal(t, int32(bp.VID), ready.ReadD())
	assert.Equal(t, uint16(2), ready.ReadH(), "alice and bob")

	f.deliver()
	entered := find(received(alice), packet.S_OPCODE_ENTITY_ENTERED)
	require.NotNil(t, entered, "alice sees bob arrive")
	assert.Nil(t, find(received(bob), packet.S_OPCODE_ENTITY_ENTERED), "bob already has the snapshot")
	assert.NotEqual(t, ap.VID, bp.VID)
}

func TestEnterRoomRefusals(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")

	require.NoError(t, f.send(bob, packet.C_OPCODE_ENTER_ROOM, func(w *packet.Writer) {
		w.WriteD(42)
		w.WriteS("")
	}))
	assert.Equal(t, []string{NoticeRoomNotFound}, notices(received(bob)))
	assert.Equal(t, packet.StateAuthenticated, bob.State())

	f.enter(t, alice, 2)
	require.NoError(t, f.send(bob, packet.C_OPCODE_ENTER_ROOM, func(w *packet.Writer) {
		w.WriteD(2)
		w.WriteS("")
	}))
	assert.Equal(t, []string{NoticeRoomFull}, notices(received(bob)))
	assert.False(t, f.deps.Players.BySession(bob.ID).InRoom())
}

func TestEnterNoticeMapping(t *testing.T) {
	cases := map[error]string{
		room.ErrBanned:        room.NoticeBanned,
		room.ErrRoomFull:      NoticeRoomFull,
		room.ErrDoorLocked:    NoticeRoomLocked,
		room.ErrWrongPassword: NoticeWrongPassword,
		room.ErrNoSpawn:       NoticeRoomNoSpawn,
		room.ErrRoomClosed:    NoticeRoomClosed,
	}
	for err, want := range cases {
		assert.Equal(t, want, enterNotice(err), err.Error())
	}
}

func TestLeaveRoom(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	p := f.enter(t, alice, 1)

	require.NoError(t, f.send(alice, packet.C_OPCODE_LEAVE_ROOM, nil))
	assert.False(t, p.InRoom())
	assert.Equal(t, packet.StateAuthenticated, alice.State())
	left := find(received(alice), packet.S_OPCODE_ROOM_LEFT)
	require.NotNil(t, left)
	assert.Equal(t, room.ReasonLeave, left.ReadS())

	err := f.send(alice, packet.C_OPCODE_WALK, func(w *packet.Writer) {
		w.WriteH(1)
		w.WriteH(1)
	})
	assert.Error(t, err, "walking needs a room")
}

func TestKickResetsTarget(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")
	f.enter(t, alice, 1)
	bp := f.enter(t, bob, 1)
	f.deliver()
	received(alice)

	require.NoError(t, f.send(alice, packet.C_OPCODE_KICK, func(w *packet.Writer) { w.WriteD(int32(bp.VID)) }))
	f.deliver()

	assert.False(t, bp.InRoom())
	assert.Equal(t, packet.StateAuthenticated, bob.State())
	frames := received(bob)
	left := find(frames, packet.S_OPCODE_ROOM_LEFT)
	require.NotNil(t, left)
	assert.Equal(t, room.ReasonKick, left.ReadS())
	assert.Contains(t, notices(frames), room.NoticeKicked)

	gone := find(received(alice), packet.S_OPCODE_ENTITY_LEFT)
	require.NotNil(t, gone)
	assert.Equal(t, int32(bp.VID), gone.ReadD())
}

func TestKickWithoutRightsIsIgnored(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")
	ap := f.enter(t, alice, 1)
	bp := f.enter(t, bob, 1)

	require.NoError(t, f.send(bob, packet.C_OPCODE_KICK, func(w *packet.Writer) { w.WriteD(int32(ap.VID)) }))
	f.deliver()
	assert.True(t, ap.InRoom())
	assert.True(t, bp.InRoom())
}

func TestDisconnectLeavesRoom(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")
	f.enter(t, alice, 1)
	f.enter(t, bob, 1)
	rm := f.deps.World.Get(1)
	require.Equal(t, 2, rm.ActivePlayers())

	bob.Close()
	Disconnect(bob, f.deps)
	assert.Nil(t, f.deps.Players.BySession(bob.ID))
	assert.Equal(t, false, f.accounts.online[bobID])
	assert.Equal(t, 1, rm.ActivePlayers())

	f.deliver()
	assert.NotNil(t, find(received(alice), packet.S_OPCODE_ENTITY_LEFT))
}

func TestChatIsTrimmedAndTruncated(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	f.enter(t, alice, 1)

	require.NoError(t, f.send(alice, packet.C_OPCODE_CHAT, func(w *packet.Writer) { w.WriteS("   ") }))
	f.deliver()
	assert.Nil(t, find(received(alice), packet.S_OPCODE_CHAT))

	long := "  " + strings.Repeat("é", 150)
	require.NoError(t, f.send(alice, packet.C_OPCODE_CHAT, func(w *packet.Writer) { w.WriteS(long) }))
	f.deliver()
	said := find(received(alice), packet.S_OPCODE_CHAT)
	require.NotNil(t, said)
	said.ReadD()
	assert.Equal(t, maxChatLength, utf8.RuneCountInString(said.ReadS()))
}

func TestPopularRooms(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")

	require.NoError(t, f.send(alice, packet.C_OPCODE_POPULAR_ROOMS, func(w *packet.Writer) { w.WriteC(5) }))
	assert.Equal(t, []string{NoticeNavigatorError}, notices(received(alice)), "no directory configured")

	dir := &fakeDirectory{rooms: []presence.RoomPopulation{{RoomID: 7, Players: 12}, {RoomID: 3, Players: 4}}}
	f.deps.Directory = dir
	require.NoError(t, f.send(alice, packet.C_OPCODE_POPULAR_ROOMS, func(w *packet.Writer) { w.WriteC(0) }))
	assert.Equal(t, maxPopularRooms, dir.asked)

	reply := find(received(alice), packet.S_OPCODE_POPULAR_ROOMS)
	require.NotNil(t, reply)
	require.Equal(t, uint16(2), reply.ReadH())
	assert.Equal(t, int32(7), reply.ReadD())
	assert.Equal(t, int32(12), reply.ReadD())

	dir.err = errors.New("redis down")
	require.NoError(t, f.send(alice, packet.C_OPCODE_POPULAR_ROOMS, func(w *packet.Writer) { w.WriteC(5) }))
	assert.Equal(t, []string{NoticeNavigatorError}, notices(received(alice)))
}

func TestTradeCommitsThroughStore(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")
	ap := f.enter(t, alice, 1)
	bp := f.enter(t, bob, 1)
	f.deliver()
	received(alice)

	f.trades.EXPECT().CommitTrade(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ex room.TradeExchange) error {
			assert.Equal(t, 1, ex.RoomID)
			assert.ElementsMatch(t, []room.TradeTransfer{
				{ItemID: 11, From: aliceID, To: bobID},
				{ItemID: 21, From: bobID, To: aliceID},
			}, ex.Transfers)
			return nil
		})

	require.NoError(t, f.send(alice, packet.C_OPCODE_TRADE_OPEN, func(w *packet.Writer) { w.WriteD(int32(bp.VID)) }))
	require.NoError(t, f.send(alice, packet.C_OPCODE_TRADE_OFFER, func(w *packet.Writer) { w.WriteQ(11) }))
	require.NoError(t, f.send(bob, packet.C_OPCODE_TRADE_OFFER, func(w *packet.Writer) { w.WriteQ(21) }))
	f.deliver()

	update := find(received(bob), packet.S_OPCODE_TRADE_UPDATE)
	require.NotNil(t, update)
	assert.NotEmpty(t, update.ReadS())

	require.NoError(t, f.send(alice, packet.C_OPCODE_TRADE_ACCEPT, nil))
	require.NoError(t, f.send(bob, packet.C_OPCODE_TRADE_ACCEPT, nil))
	f.deliver()

	for _, sess := range []*net.Session{alice, bob} {
		done := find(received(sess), packet.S_OPCODE_TRADE_DONE)
		require.NotNil(t, done)
		done.ReadS()
		assert.True(t, done.ReadBool())
	}
	assert.Equal(t, []int64{21}, ap.Inventory.IDs())
	assert.Equal(t, []int64{11}, bp.Inventory.IDs())
}

func TestTradeCloseNotifiesBothSides(t *testing.T) {
	f := newFixture(t)
	alice := f.login(t, "alice")
	bob := f.login(t, "bob")
	f.enter(t, alice, 1)
	bp := f.enter(t, bob, 1)

	require.NoError(t, f.send(alice, packet.C_OPCODE_TRADE_OPEN, func(w *packet.Writer) { w.WriteD(int32(bp.VID)) }))
	require.NoError(t, f.send(bob, packet.C_OPCODE_TRADE_CLOSE, nil))
	f.deliver()

	for _, sess := range []*net.Session{alice, bob} {
		closed := find(received(sess), packet.S_OPCODE_TRADE_CLOSE)
		require.NotNil(t, closed)
		closed.ReadS()
		assert.Equal(t, int32(bp.VID), closed.ReadD())
	}
}
