package room

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/core/event"
)

type tradeFixture struct {
	*fixture
	alice, bob *Entity
}

func newTradeFixture(t *testing.T, opts ...fixtureOpt) *tradeFixture {
	f := newFixture(t, opts...)
	tf := &tradeFixture{fixture: f}
	tf.alice = f.enter(t, aliceID, Point{2, 2},
		&InvItem{ID: 11, Def: defBlock},
		&InvItem{ID: 12, Def: defRug},
		&InvItem{ID: 13, Def: defNoTrad},
	)
	tf.bob = f.enter(t, bobID, Point{3, 2},
		&InvItem{ID: 21, Def: defLamp},
	)
	return tf
}

func TestTradeSwapsOffers(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()

	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	tr := f.room.TradeOf(f.bob.VID)
	require.NotNil(t, tr)
	assert.Same(t, tr, f.room.TradeOf(f.alice.VID))
	_, trading := f.alice.Status(StatusTrade)
	assert.True(t, trading)

	require.True(t, f.room.OfferTradeItem(f.alice.VID, 11))
	require.True(t, f.room.OfferTradeItem(f.alice.VID, 12))
	require.True(t, f.room.OfferTradeItem(f.bob.VID, 21))
	assert.Equal(t, []int64{11, 12}, tr.Offers(f.alice.VID))

	require.NoError(t, f.room.AcceptTrade(ctx, f.alice.VID))
	assert.Empty(t, f.store.trades, "one acceptance is not enough")
	require.NoError(t, f.room.AcceptTrade(ctx, f.bob.VID))

	require.Len(t, f.store.trades, 1)
	ex := f.store.trades[0]
	assert.Equal(t, tr.ID, ex.TradeID)
	assert.ElementsMatch(t, []TradeTransfer{
		{ItemID: 11, From: aliceID, To: bobID},
		{ItemID: 12, From: aliceID, To: bobID},
		{ItemID: 21, From: bobID, To: aliceID},
	}, ex.Transfers)

	assert.Equal(t, []int64{13, 21}, f.alice.Player.Inventory.IDs())
	assert.Equal(t, []int64{11, 12}, f.bob.Player.Inventory.IDs())
	assert.Nil(t, f.room.TradeOf(f.alice.VID))
	assert.Equal(t, TradeCompleted, tr.State)
	_, trading = f.alice.Status(StatusTrade)
	assert.False(t, trading)

	done := event.Drain[event.TradeCompleted](f.bus)
	require.Len(t, done, 1)
	assert.Len(t, done[0].Sides[0].Items, 2)
}

func TestTradeChangeResetsAcceptance(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()
	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	tr := f.room.TradeOf(f.alice.VID)

	require.True(t, f.room.OfferTradeItem(f.alice.VID, 11))
	require.NoError(t, f.room.AcceptTrade(ctx, f.alice.VID))
	assert.True(t, tr.Accepted(f.alice.VID))

	require.True(t, f.room.OfferTradeItem(f.bob.VID, 21))
	assert.False(t, tr.Accepted(f.alice.VID))

	require.NoError(t, f.room.AcceptTrade(ctx, f.alice.VID))
	require.True(t, f.room.WithdrawTradeItem(f.bob.VID, 21))
	assert.False(t, tr.Accepted(f.alice.VID))
	assert.False(t, f.room.WithdrawTradeItem(f.bob.VID, 21))

	require.NoError(t, f.room.AcceptTrade(ctx, f.alice.VID))
	f.room.UnacceptTrade(f.alice.VID)
	assert.False(t, tr.Accepted(f.alice.VID))
	assert.Empty(t, f.store.trades)
}

func TestTradeRejectsInvalidOffers(t *testing.T) {
	f := newTradeFixture(t)
	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))

	assert.False(t, f.room.OfferTradeItem(f.alice.VID, 13), "not tradeable")
	assert.False(t, f.room.OfferTradeItem(f.alice.VID, 21), "not owned")
	require.True(t, f.room.OfferTradeItem(f.alice.VID, 11))
	assert.False(t, f.room.OfferTradeItem(f.alice.VID, 11), "already offered")
}

func TestTradeOfferLimit(t *testing.T) {
	f := newTradeFixture(t, withConfig(func(c *config.RoomConfig) { c.MaxTradeItems = 1 }))
	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	require.True(t, f.room.OfferTradeItem(f.alice.VID, 11))
	assert.False(t, f.room.OfferTradeItem(f.alice.VID, 12))
}

func TestOneTradePerParticipant(t *testing.T) {
	f := newTradeFixture(t)
	carol := f.enter(t, 103, Point{4, 2})
	bot, err := f.room.DeployBot(&BotData{ID: 1, Name: "frank"}, Point{6, 6}, 2)
	require.NoError(t, err)

	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	assert.False(t, f.room.OpenTrade(carol.VID, f.alice.VID))
	assert.False(t, f.room.OpenTrade(f.bob.VID, carol.VID))
	assert.False(t, f.room.OpenTrade(carol.VID, bot.VID), "bots do not trade")
	assert.False(t, f.room.OpenTrade(carol.VID, carol.VID))
	assert.Equal(t, 1, f.room.ActiveTrades())

	f.room.CloseTrade(f.bob.VID)
	f.room.CloseTrade(f.bob.VID)
	require.Len(t, event.Drain[event.TradeClosed](f.bus), 1, "closing twice is a no-op")
	assert.True(t, f.room.OpenTrade(carol.VID, f.alice.VID))
}

func TestTradeCommitFailureAbortsEverything(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()
	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	tr := f.room.TradeOf(f.alice.VID)
	require.True(t, f.room.OfferTradeItem(f.alice.VID, 11))
	require.True(t, f.room.OfferTradeItem(f.bob.VID, 21))
	require.NoError(t, f.room.AcceptTrade(ctx, f.alice.VID))

	f.store.failNext = errStore
	err := f.room.AcceptTrade(ctx, f.bob.VID)
	require.ErrorIs(t, err, errStore)

	assert.Same(t, tr, f.room.TradeOf(f.alice.VID), "trade stays open")
	assert.False(t, tr.Accepted(f.alice.VID))
	assert.False(t, tr.Accepted(f.bob.VID))
	assert.Equal(t, []int64{11, 12, 13}, f.alice.Player.Inventory.IDs())
	assert.Equal(t, []int64{21}, f.bob.Player.Inventory.IDs())

	notices := event.Drain[event.Notice](f.bus)
	require.Len(t, notices, 2)
	assert.Equal(t, NoticeTradeFailed, notices[0].Key)
	require.Len(t, event.Drain[event.TradeFailed](f.bus), 1)

	require.NoError(t, f.room.AcceptTrade(ctx, f.alice.VID))
	require.NoError(t, f.room.AcceptTrade(ctx, f.bob.VID))
	assert.Equal(t, []int64{12, 13, 21}, f.alice.Player.Inventory.IDs())
}

func TestEmptyTradeSkipsStore(t *testing.T) {
	f := newTradeFixture(t)
	ctx := context.Background()
	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	f.store.failNext = errStore
	require.NoError(t, f.room.AcceptTrade(ctx, f.alice.VID))
	require.NoError(t, f.room.AcceptTrade(ctx, f.bob.VID))
	assert.Nil(t, f.room.TradeOf(f.alice.VID))
	assert.ErrorIs(t, f.store.fail(), errStore, "store never called")
}

func TestLeavingClosesTrade(t *testing.T) {
	f := newTradeFixture(t)
	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	require.True(t, f.room.OfferTradeItem(f.alice.VID, 11))

	f.room.Leave(f.bob.VID, ReasonDisconnect)
	assert.Nil(t, f.room.TradeOf(f.alice.VID))
	closed := event.Drain[event.TradeClosed](f.bus)
	require.Len(t, closed, 1)
	assert.Equal(t, f.bob.VID, closed[0].ClosedBy)
	_, trading := f.alice.Status(StatusTrade)
	assert.False(t, trading)
	assert.Equal(t, []int64{11, 12, 13}, f.alice.Player.Inventory.IDs())
}

func TestTradeModes(t *testing.T) {
	f := newTradeFixture(t, withSettings(func(s *Settings) { s.TradeMode = TradeDisabled }))
	assert.False(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	notices := event.Drain[event.Notice](f.bus)
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeTradeDisabled, notices[0].Key)

	f = newTradeFixture(t, withSettings(func(s *Settings) { s.TradeMode = TradeRightsOnly }))
	assert.False(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	require.NoError(t, f.room.GiveRights(context.Background(), f.enter(t, ownerID, Point{7, 7}).VID, aliceID))
	assert.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
}

func TestOfferedItemCannotBePlaced(t *testing.T) {
	f := newFixture(t)
	owner := f.enter(t, ownerID, Point{1, 1}, &InvItem{ID: 11, Def: defBlock})
	alice := f.enter(t, aliceID, Point{2, 1})
	require.True(t, f.room.OpenTrade(owner.VID, alice.VID))
	require.True(t, f.room.OfferTradeItem(owner.VID, 11))

	err := f.room.PlaceItem(context.Background(), owner.VID, 11, 5, 5, 0, "")
	assert.ErrorIs(t, err, ErrInvalidPlacement)
}

func TestCloseRoomClosesTrades(t *testing.T) {
	f := newTradeFixture(t)
	require.True(t, f.room.OpenTrade(f.alice.VID, f.bob.VID))
	f.room.Close()
	assert.Zero(t, f.room.ActiveTrades())
	require.Len(t, event.Drain[event.TradeClosed](f.bus), 1)
}
