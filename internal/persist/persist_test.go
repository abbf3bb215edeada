package persist

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/data"
	"github.com/hotelgo/server/internal/room"
	"github.com/hotelgo/server/internal/world"
)

// The repositories are exercised against a real Postgres. Point
// HOTEL_TEST_DSN at a disposable database to run them.
type repoSuite struct {
	suite.Suite
	ctx      context.Context
	db       *DB
	accounts *AccountRepo
	items    *ItemRepo
	rooms    *RoomRepo
	wal      *WALRepo
	furni    *data.FurniTable
}

func TestRepositories(t *testing.T) {
	dsn := os.Getenv("HOTEL_TEST_DSN")
	if dsn == "" {
		t.Skip("HOTEL_TEST_DSN not set")
	}
	suite.Run(t, &repoSuite{})
}

func (s *repoSuite) SetupSuite() {
	s.ctx = context.Background()
	cfg := config.Default().Database
	cfg.DSN = os.Getenv("HOTEL_TEST_DSN")
	db, err := NewDB(s.ctx, cfg, zaptest.NewLogger(s.T()))
	s.Require().NoError(err)
	s.db = db
	s.Require().NoError(RunMigrations(s.ctx, db.Pool))

	s.furni = data.NewFurniTable(
		&data.FurniDef{ID: 1, Name: "table", Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, CanStack: true, AllowTrade: true, Interaction: data.InteractionDefault, InteractionModes: 1},
		&data.FurniDef{ID: 2, Name: "bear", Kind: data.FurniFloor, Width: 1, Length: 1, AllowTrade: true, Interaction: data.InteractionDefault, InteractionModes: 1},
	)
	s.accounts = NewAccountRepo(db)
	s.items = NewItemRepo(db, s.furni)
	s.rooms = NewRoomRepo(db, s.items, NewBotRepo(db))
	s.wal = NewWALRepo(db)
}

func (s *repoSuite) TearDownSuite() {
	s.db.Close()
}

func (s *repoSuite) SetupTest() {
	_, err := s.db.Pool.Exec(s.ctx,
		`TRUNCATE economic_wal, pets, bots, items, room_rights, rooms, accounts RESTART IDENTITY CASCADE`)
	s.Require().NoError(err)
}

func (s *repoSuite) account(name string) *AccountRow {
	ticket, err := s.accounts.IssueTicket(s.ctx, name)
	s.Require().NoError(err)
	acc, err := s.accounts.RedeemTicket(s.ctx, ticket)
	s.Require().NoError(err)
	s.Require().NotNil(acc)
	return acc
}

func (s *repoSuite) TestTicketsAreSingleUse() {
	ticket, err := s.accounts.IssueTicket(s.ctx, "alice")
	s.Require().NoError(err)

	acc, err := s.accounts.RedeemTicket(s.ctx, ticket)
	s.Require().NoError(err)
	s.Require().NotNil(acc)
	s.Equal("alice", acc.Username)
	s.True(acc.Online)

	again, err := s.accounts.RedeemTicket(s.ctx, ticket)
	s.NoError(err)
	s.Nil(again)

	n, err := s.accounts.ResetOnline(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), n)
}

func (s *repoSuite) TestItemLifecycle() {
	owner := s.account("owner")
	roomID, err := s.rooms.Create(s.ctx, "model_a", room.Settings{OwnerID: owner.ID, Name: "lobby", MaxUsers: 25, TradeMode: room.TradeAll})
	s.Require().NoError(err)
	id, err := s.items.Create(s.ctx, owner.ID, 1, "")
	s.Require().NoError(err)

	inv, err := s.items.LoadInventory(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Equal([]int64{id}, inv.IDs())

	pos := room.ItemPosition{ItemID: id, RoomID: roomID, X: 3, Y: 4, Rot: 2}
	s.Require().NoError(s.items.PlaceItem(s.ctx, pos))
	s.ErrorIs(s.items.PlaceItem(s.ctx, pos), ErrStale, "already placed")

	pos.X = 5
	s.Require().NoError(s.items.SaveItemPosition(s.ctx, pos))
	s.Require().NoError(s.items.SaveItemState(s.ctx, id, "1"))

	rec, err := s.rooms.LoadRoom(s.ctx, roomID)
	s.Require().NoError(err)
	s.Require().Len(rec.Items, 1)
	s.Equal(5, rec.Items[0].X)
	s.Equal("1", rec.Items[0].ExtraData)
	s.Equal("owner", rec.Settings.OwnerName)

	s.Require().NoError(s.items.PickupItem(s.ctx, id, owner.ID))
	s.ErrorIs(s.items.PickupItem(s.ctx, id, owner.ID), ErrStale)
	inv, err = s.items.LoadInventory(s.ctx, owner.ID)
	s.Require().NoError(err)
	s.Equal(1, inv.Count())
}

func (s *repoSuite) TestRightsAndMissingRoom() {
	owner := s.account("owner")
	alice := s.account("alice")
	roomID, err := s.rooms.Create(s.ctx, "model_a", room.Settings{OwnerID: owner.ID, Name: "lobby"})
	s.Require().NoError(err)

	s.Require().NoError(s.rooms.AddRight(s.ctx, roomID, alice.ID))
	s.Require().NoError(s.rooms.AddRight(s.ctx, roomID, alice.ID))
	rec, err := s.rooms.LoadRoom(s.ctx, roomID)
	s.Require().NoError(err)
	s.Equal([]int64{alice.ID}, rec.Rights)

	s.Require().NoError(s.rooms.RemoveRight(s.ctx, roomID, alice.ID))
	rec, err = s.rooms.LoadRoom(s.ctx, roomID)
	s.Require().NoError(err)
	s.Empty(rec.Rights)

	_, err = s.rooms.LoadRoom(s.ctx, roomID+100)
	s.ErrorIs(err, world.ErrRoomNotFound)
}

func (s *repoSuite) TestTradeCommitIsAtomic() {
	alice := s.account("alice")
	bob := s.account("bob")
	a1, err := s.items.Create(s.ctx, alice.ID, 1, "")
	s.Require().NoError(err)
	b1, err := s.items.Create(s.ctx, bob.ID, 2, "")
	s.Require().NoError(err)

	stale := room.TradeExchange{
		TradeID: uuid.NewString(),
		Transfers: []room.TradeTransfer{
			{ItemID: a1, From: alice.ID, To: bob.ID},
			{ItemID: b1, From: alice.ID, To: bob.ID}, // not alice's
		},
	}
	s.ErrorIs(s.wal.CommitTrade(s.ctx, stale), ErrStale)
	inv, err := s.items.LoadInventory(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal([]int64{a1}, inv.IDs(), "first transfer rolled back")
	entries, err := s.wal.Entries(s.ctx, stale.TradeID)
	s.Require().NoError(err)
	s.Empty(entries)

	ok := room.TradeExchange{
		TradeID: uuid.NewString(),
		Transfers: []room.TradeTransfer{
			{ItemID: a1, From: alice.ID, To: bob.ID},
			{ItemID: b1, From: bob.ID, To: alice.ID},
		},
	}
	s.Require().NoError(s.wal.CommitTrade(s.ctx, ok))
	inv, err = s.items.LoadInventory(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.Equal([]int64{b1}, inv.IDs())
	entries, err = s.wal.Entries(s.ctx, ok.TradeID)
	s.Require().NoError(err)
	s.Len(entries, 2)

	n, err := s.wal.MarkProcessed(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(2), n)
}

func TestMigrationsAreEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "00001_init.sql", entries[0].Name())
}
