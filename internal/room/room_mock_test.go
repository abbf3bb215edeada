package room_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/hotelgo/server/internal/config"
	"github.com/hotelgo/server/internal/core/event"
	"github.com/hotelgo/server/internal/data"
	"github.com/hotelgo/server/internal/room"
	roommock "github.com/hotelgo/server/internal/room/mock"
)

type mocks struct {
	items    *roommock.MockItemStore
	trades   *roommock.MockTradeStore
	rights   *roommock.MockRightsStore
	behavior *roommock.MockBehavior
}

func newMockedRoom(t *testing.T) (*room.Room, *mocks, *event.Bus) {
	ctrl := gomock.NewController(t)
	m := &mocks{
		items:    roommock.NewMockItemStore(ctrl),
		trades:   roommock.NewMockTradeStore(ctrl),
		rights:   roommock.NewMockRightsStore(ctrl),
		behavior: roommock.NewMockBehavior(ctrl),
	}
	model, err := data.ParseHeightmap("mock", "00000\n00000\n00000\n00000\n00000", 0, 0, 2)
	require.NoError(t, err)
	bus := event.NewBus()
	r, err := room.New(7, model, room.Settings{OwnerID: 1, TradeMode: room.TradeAll}, nil, config.Default().Room, room.Deps{
		Items:    m.items,
		Trades:   m.trades,
		Rights:   m.rights,
		Behavior: m.behavior,
		Bus:      bus,
		Log:      zap.NewNop(),
	})
	require.NoError(t, err)
	return r, m, bus
}

func TestTradeCommitIsAllOrNothing(t *testing.T) {
	r, m, bus := newMockedRoom(t)
	ctx := context.Background()
	sofa := &data.FurniDef{ID: 1, Kind: data.FurniFloor, Width: 1, Length: 1, AllowTrade: true}

	a, err := r.Enter(room.EnterRequest{Player: &room.PlayerData{AccountID: 10, Inventory: room.NewInventory(&room.InvItem{ID: 100, Def: sofa})}})
	require.NoError(t, err)
	b, err := r.Enter(room.EnterRequest{Player: &room.PlayerData{AccountID: 20, Inventory: room.NewInventory(&room.InvItem{ID: 200, Def: sofa})}})
	require.NoError(t, err)

	require.True(t, r.OpenTrade(a.VID, b.VID))
	require.True(t, r.OfferTradeItem(a.VID, 100))
	require.True(t, r.OfferTradeItem(b.VID, 200))
	tradeID := r.TradeOf(a.VID).ID

	gomock.InOrder(
		m.trades.EXPECT().
			CommitTrade(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, ex room.TradeExchange) error {
				assert.Equal(t, tradeID, ex.TradeID)
				assert.Equal(t, 7, ex.RoomID)
				assert.Len(t, ex.Transfers, 2)
				return errors.New("deadlock detected")
			}),
		m.trades.EXPECT().CommitTrade(ctx, gomock.Any()).Return(nil),
	)

	require.NoError(t, r.AcceptTrade(ctx, a.VID))
	require.Error(t, r.AcceptTrade(ctx, b.VID))
	assert.Equal(t, []int64{100}, a.Player.Inventory.IDs())
	assert.Equal(t, []int64{200}, b.Player.Inventory.IDs())
	assert.Equal(t, 1, event.Pending[event.TradeFailed](bus))

	require.NoError(t, r.AcceptTrade(ctx, b.VID))
	require.NoError(t, r.AcceptTrade(ctx, a.VID))
	assert.Equal(t, []int64{200}, a.Player.Inventory.IDs())
	assert.Equal(t, []int64{100}, b.Player.Inventory.IDs())
}

func TestBehaviorSeesRoomState(t *testing.T) {
	r, m, _ := newMockedRoom(t)

	m.behavior.EXPECT().
		Think(gomock.Any()).
		DoAndReturn(func(c room.BehaviorContext) ([]room.Command, error) {
			assert.Equal(t, 7, c.RoomID)
			assert.Equal(t, room.KindBot, c.Kind)
			assert.Equal(t, "greeter", c.Behavior)
			assert.Equal(t, 5, c.SizeX)
			assert.Equal(t, []string{"hi"}, c.Speech)
			return []room.Command{{Op: room.CommandLook, X: 2, Y: 0}}, nil
		})

	bot, err := r.DeployBot(&room.BotData{ID: 1, Name: "greeter", Behavior: "greeter", Speech: []string{"hi"}}, room.Point{X: 2, Y: 2}, 4)
	require.NoError(t, err)
	r.Tick(context.Background())
	assert.Equal(t, 0, bot.BodyRot)
}

func TestRightsStoreFailureLeavesListUnchanged(t *testing.T) {
	r, m, bus := newMockedRoom(t)
	owner, err := r.Enter(room.EnterRequest{Player: &room.PlayerData{AccountID: 1, Inventory: room.NewInventory()}})
	require.NoError(t, err)

	m.rights.EXPECT().AddRight(gomock.Any(), 7, int64(5)).Return(errors.New("db down"))
	require.Error(t, r.GiveRights(context.Background(), owner.VID, 5))
	assert.False(t, r.HasRights(5))

	notices := event.Drain[event.Notice](bus)
	require.Len(t, notices, 1)
	assert.Equal(t, room.NoticeRightsFailed, notices[0].Key)
}

func TestPickupPersistsBeforeRemoving(t *testing.T) {
	r, m, _ := newMockedRoom(t)
	owner, err := r.Enter(room.EnterRequest{Player: &room.PlayerData{AccountID: 1, Inventory: room.NewInventory()}})
	require.NoError(t, err)
	table := &data.FurniDef{ID: 2, Kind: data.FurniFloor, Width: 1, Length: 1, StackHeight: 1, CanStack: true, Interaction: data.InteractionDefault, InteractionModes: 1}
	r.LoadItems([]*room.Item{{ID: 55, OwnerID: 1, Def: table, X: 3, Y: 3}})

	m.items.EXPECT().PickupItem(gomock.Any(), int64(55), int64(1)).Return(errors.New("timeout"))
	require.Error(t, r.PickupItem(context.Background(), owner.VID, 55))
	assert.NotNil(t, r.Item(55))

	m.items.EXPECT().PickupItem(gomock.Any(), int64(55), int64(1)).Return(nil)
	require.NoError(t, r.PickupItem(context.Background(), owner.VID, 55))
	assert.Nil(t, r.Item(55))
	_, back := owner.Player.Inventory.Get(55)
	assert.True(t, back)
}
