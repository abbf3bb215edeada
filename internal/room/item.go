package room

import (
	"strconv"

	"github.com/hotelgo/server/internal/core/event"
	"github.com/hotelgo/server/internal/data"
)

// Item is a furniture instance placed in a room.
type Item struct {
	ID        int64
	OwnerID   int64
	Def       *data.FurniDef
	X, Y      int
	Z         float64
	Rot       int
	WallPos   string // wall items only
	ExtraData string

	timer      int // ticks until a delayed interaction fires, 0 = idle
	timerActor int // virtual id that triggered the timer
}

func (it *Item) Pos() Point { return Point{X: it.X, Y: it.Y} }

func (it *Item) IsFloor() bool { return it.Def.IsFloor() }

// Tiles returns the footprint of a floor item; wall items cover none.
func (it *Item) Tiles() []Point {
	if !it.IsFloor() {
		return nil
	}
	return AffectedTiles(it.Def.Length, it.Def.Width, it.X, it.Y, it.Rot)
}

// Top is the height something stacked on this item would rest at.
func (it *Item) Top() float64 {
	return it.Z + it.Def.StackHeight
}

// Walkable reports whether entities may stand on the item. Open gates are
// walkable regardless of the template flag.
func (it *Item) Walkable() bool {
	if it.Def.Interaction == data.InteractionGate {
		return it.ExtraData == "1"
	}
	return it.Def.IsWalkable || it.Def.CanSit || it.Def.CanLay
}

func (it *Item) Covers(p Point) bool {
	for _, t := range it.Tiles() {
		if t == p {
			return true
		}
	}
	return false
}

func (it *Item) stateIndex() int {
	n, err := strconv.Atoi(it.ExtraData)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Info returns the event snapshot of the item.
func (it *Item) Info() event.ItemInfo {
	return event.ItemInfo{
		ID:        it.ID,
		BaseID:    it.Def.ID,
		OwnerID:   it.OwnerID,
		X:         it.X,
		Y:         it.Y,
		Z:         it.Z,
		Rot:       it.Rot,
		WallPos:   it.WallPos,
		ExtraData: it.ExtraData,
	}
}

// ItemPosition is the persisted placement of an item.
type ItemPosition struct {
	ItemID  int64
	RoomID  int
	X, Y    int
	Z       float64
	Rot     int
	WallPos string
}

func (it *Item) position(roomID int) ItemPosition {
	return ItemPosition{
		ItemID:  it.ID,
		RoomID:  roomID,
		X:       it.X,
		Y:       it.Y,
		Z:       it.Z,
		Rot:     it.Rot,
		WallPos: it.WallPos,
	}
}
