package room

import "context"

//go:generate mockgen -destination=mock/mock_store.go -package=roommock github.com/hotelgo/server/internal/room ItemStore,TradeStore,RightsStore,Behavior

// ItemStore persists furniture placement and state.
type ItemStore interface {
	// PlaceItem moves an inventory item into the room at pos.
	PlaceItem(ctx context.Context, pos ItemPosition) error
	// SaveItemPosition updates a placed item's position.
	SaveItemPosition(ctx context.Context, pos ItemPosition) error
	// SaveItemState updates a placed item's extra data.
	SaveItemState(ctx context.Context, itemID int64, extraData string) error
	// PickupItem returns a placed item to ownerID's inventory.
	PickupItem(ctx context.Context, itemID, ownerID int64) error
}

// TradeTransfer moves one item between accounts.
type TradeTransfer struct {
	ItemID int64
	From   int64
	To     int64
}

// TradeExchange is the full, atomic result of a completed trade.
type TradeExchange struct {
	TradeID   string
	RoomID    int
	Transfers []TradeTransfer
}

// TradeStore commits a trade exchange. Either every transfer is applied or
// none is.
type TradeStore interface {
	CommitTrade(ctx context.Context, ex TradeExchange) error
}

// RightsStore persists the room rights list. Bans are never persisted.
type RightsStore interface {
	AddRight(ctx context.Context, roomID int, accountID int64) error
	RemoveRight(ctx context.Context, roomID int, accountID int64) error
}
